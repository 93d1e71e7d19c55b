package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestInitLoggerAndSetLogLevel(t *testing.T) {
	f := filepath.Join(t.TempDir(), "tickboard.log")
	cfg := &Config{
		Level: "warning",
		File:  f,
	}
	require.NoError(t, InitLogger(cfg))
	require.Equal(t, zapcore.WarnLevel, log.GetLevel())
	require.Equal(t, DefaultLogFormat, cfg.Format)

	require.NoError(t, SetLogLevel("info"))
	require.Equal(t, zapcore.InfoLevel, log.GetLevel())

	require.Error(t, SetLogLevel("loud"))
	require.Equal(t, zapcore.InfoLevel, log.GetLevel())

	NewLogger4Actor("worker-0", 1).Warn("probe line")
	_ = log.L().Sync()
	data, err := os.ReadFile(f)
	require.NoError(t, err)
	require.Contains(t, string(data), "probe line")
	require.Contains(t, string(data), "worker-0")
}

func TestInitLoggerWithWriter(t *testing.T) {
	var buffer zaptest.Buffer
	require.NoError(t, InitLoggerWithWriter(&Config{Level: "warn"}, &buffer))

	log.Info("quiet line")
	require.Empty(t, buffer.Lines())

	log.Warn("loud line")
	require.Contains(t, buffer.Stripped(), "loud line")
}

func TestConfigAdjust(t *testing.T) {
	cfg := &Config{}
	cfg.Adjust()
	require.Equal(t, DefaultLogLevel, cfg.Level)
	require.Equal(t, DefaultLogFormat, cfg.Format)

	cfg = &Config{Level: "debug", Format: "json"}
	cfg.Adjust()
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, "json", cfg.Format)
}

func TestShortError(t *testing.T) {
	require.Equal(t, "error", ShortError(errors.New("boom")).Key)
	require.Equal(t, zapcore.SkipType, ShortError(nil).Type)
}
