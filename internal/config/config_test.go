package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DBBIND_ROOT", "/srv/app")

	cfg := LoadFromEnv()
	assert.Equal(t, "/srv/app", cfg.Root)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# clickhouse\nCLICKHOUSE_URL=\"https://ch.internal\"\nCLICKHOUSE_USER=reader\n"), 0o644))

	t.Setenv("CLICKHOUSE_URL", "")
	require.NoError(t, os.Unsetenv("CLICKHOUSE_URL"))
	t.Setenv("CLICKHOUSE_USER", "already-set")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "https://ch.internal", os.Getenv("CLICKHOUSE_URL"))
	assert.Equal(t, "already-set", os.Getenv("CLICKHOUSE_USER"), "the environment takes precedence")
}

func TestLoadDotEnvMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadDotEnvMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEY='unterminated\n"), 0o644))

	assert.Error(t, LoadDotEnv(path))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("table", "ethereum.blocks"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "table=ethereum.blocks")
}

func TestSetDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetDefaultLogger(&buf, slog.LevelDebug)
	assert.Same(t, logger, slog.Default())

	slog.Debug("resolving manifest", slog.String("root", "/srv/app"))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "root=/srv/app")
}
