// Package logutil configures the global pingcap/log logger for tickboard.
package logutil

import (
	"io"
	"os"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
	// DefaultLogFormat is used when no format is configured.
	DefaultLogFormat = "text"
)

// Config is the [log] section of the tickboard config.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
	// File is the log file path; empty logs to stderr.
	File string `toml:"file" json:"file"`
	// Format is text or json.
	Format string `toml:"format" json:"format"`
}

// Adjust fills in defaults.
func (cfg *Config) Adjust() {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
}

// InitLogger builds a logger from cfg and installs it as the global logger.
func InitLogger(cfg *Config) error {
	if cfg.File == "" {
		return InitLoggerWithWriter(cfg, os.Stderr)
	}
	cfg.Adjust()
	lg, props, err := log.InitLogger(cfg.logConfig())
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(lg, props)
	return nil
}

// InitLoggerWithWriter is InitLogger writing to w. cfg.File is ignored.
func InitLoggerWithWriter(cfg *Config, w io.Writer) error {
	cfg.Adjust()
	lg, props, err := log.InitLoggerWithWriteSyncer(cfg.logConfig(), zapcore.AddSync(w), nil)
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(lg, props)
	return nil
}

func (cfg *Config) logConfig() *log.Config {
	return &log.Config{
		Level:  normalizeLevel(cfg.Level),
		Format: cfg.Format,
		File:   log.FileLogConfig{Filename: cfg.File},
	}
}

// SetLogLevel changes the level of the global logger.
func SetLogLevel(level string) error {
	var lv zapcore.Level
	if err := lv.UnmarshalText([]byte(normalizeLevel(level))); err != nil {
		return errors.Trace(err)
	}
	log.SetLevel(lv)
	return nil
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}

// NewLogger4Actor returns the global logger tagged with an actor's identity.
func NewLogger4Actor(name string, id int64) *zap.Logger {
	return log.L().With(zap.String("actor", name), zap.Int64("actor_id", id))
}

// ShortError logs only the message of err, without its stack.
func ShortError(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", err.Error())
}
