// Package config loads the tickboard configuration from TOML.
package config

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/logutil"
)

const (
	defaultWorkers       = 1
	defaultMaxTextLength = 10
	defaultBanThreshold  = 5
	defaultMaxTicks      = 1000
)

// JournalConfig is the [journal] section.
type JournalConfig struct {
	// Path of the SQLite journal; empty disables journaling.
	Path string `toml:"path" json:"path"`
}

// Config is the full tickboard configuration.
type Config struct {
	LogConf logutil.Config `toml:"log" json:"log"`

	// Workers is the size of the dispatcher's worker pool.
	Workers int `toml:"workers" json:"workers"`
	// MaxTextLength caps item text, counted in characters.
	MaxTextLength int `toml:"max-text-length" json:"max-text-length"`
	// BanThreshold is the number of distinct reporters that bans an author.
	BanThreshold int `toml:"ban-threshold" json:"ban-threshold"`
	// MaxTicks bounds how long a scripted client waits for one reply.
	MaxTicks int `toml:"max-ticks" json:"max-ticks"`

	Journal JournalConfig `toml:"journal" json:"journal"`
}

// GetDefaultConfig returns a config with every default filled in.
func GetDefaultConfig() *Config {
	return &Config{
		LogConf: logutil.Config{
			Level:  logutil.DefaultLogLevel,
			Format: logutil.DefaultLogFormat,
		},
		Workers:       defaultWorkers,
		MaxTextLength: defaultMaxTextLength,
		BanThreshold:  defaultBanThreshold,
		MaxTicks:      defaultMaxTicks,
	}
}

// FromFile loads path over the defaults and validates the result.
func FromFile(path string) (*Config, error) {
	c := GetDefaultConfig()
	if err := c.configFromFile(path); err != nil {
		return nil, err
	}
	if err := c.Adjust(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromString is FromFile for an in-memory document.
func FromString(data string) (*Config, error) {
	c := GetDefaultConfig()
	if err := c.configFromString(data); err != nil {
		return nil, err
	}
	if err := c.Adjust(); err != nil {
		return nil, err
	}
	return c, nil
}

// Adjust fills defaults and rejects values the simulation cannot run with.
func (c *Config) Adjust() error {
	c.LogConf.Adjust()
	if c.Workers < 1 {
		return errors.ErrInvalidConfig.GenWithStackByArgs("workers must be at least 1")
	}
	if c.MaxTextLength < 1 {
		return errors.ErrInvalidConfig.GenWithStackByArgs("max-text-length must be at least 1")
	}
	if c.BanThreshold < 1 {
		return errors.ErrInvalidConfig.GenWithStackByArgs("ban-threshold must be at least 1")
	}
	if c.MaxTicks < 1 {
		c.MaxTicks = defaultMaxTicks
	}
	return nil
}

func (c *Config) String() string {
	cfg, err := json.Marshal(c)
	if err != nil {
		log.L().Error("marshal config to json", zap.Reflect("config", c), logutil.ShortError(err))
	}
	return string(cfg)
}

// Toml renders the config as a TOML document.
func (c *Config) Toml() (string, error) {
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		log.L().Error("fail to marshal config to toml", logutil.ShortError(err))
		return "", err
	}
	return b.String(), nil
}

func (c *Config) configFromFile(path string) error {
	metaData, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.WrapError(errors.ErrInvalidConfig, err)
	}
	return checkUndecodedItems(metaData)
}

func (c *Config) configFromString(data string) error {
	metaData, err := toml.Decode(data, c)
	if err != nil {
		return errors.WrapError(errors.ErrInvalidConfig, err)
	}
	return checkUndecodedItems(metaData)
}

func checkUndecodedItems(metaData toml.MetaData) error {
	undecoded := metaData.Undecoded()
	if len(undecoded) > 0 {
		var undecodedItems []string
		for _, item := range undecoded {
			undecodedItems = append(undecodedItems, item.String())
		}
		return errors.ErrConfigUnknownItem.GenWithStackByArgs(strings.Join(undecodedItems, ","))
	}
	return nil
}
