package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every REVIEWMARKS_ env var that Load() reads.
var allConfigKeys = []string{
	"REVIEWMARKS_LISTEN_ADDR",
	"REVIEWMARKS_DB_PATH",
	"REVIEWMARKS_GITHUB_TOKEN",
	"REVIEWMARKS_SHUTDOWN_TIMEOUT",
	"REVIEWMARKS_LOG_LEVEL",
	"REVIEWMARKS_LOG_FORMAT",
}

// isolateConfigEnv saves and unsets all REVIEWMARKS_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REVIEWMARKS_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("REVIEWMARKS_DB_PATH", "/tmp/test.db")
	t.Setenv("REVIEWMARKS_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("REVIEWMARKS_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REVIEWMARKS_LOG_LEVEL", "debug")
	t.Setenv("REVIEWMARKS_LOG_FORMAT", "JSON")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.True(t, cfg.HasGitHubToken())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8484", cfg.ListenAddr)
	assert.Equal(t, "reviewmarks.db", cfg.DBPath)
	assert.Equal(t, "", cfg.GitHubToken)
	assert.False(t, cfg.HasGitHubToken())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "bad duration", key: "REVIEWMARKS_SHUTDOWN_TIMEOUT", value: "soon", wantErr: "invalid duration"},
		{name: "non-positive duration", key: "REVIEWMARKS_SHUTDOWN_TIMEOUT", value: "0s", wantErr: "must be positive"},
		{name: "bad level", key: "REVIEWMARKS_LOG_LEVEL", value: "loud", wantErr: "invalid level"},
		{name: "bad format", key: "REVIEWMARKS_LOG_FORMAT", value: "xml", wantErr: "text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}

	logger := cfg.NewLogger(os.Stderr)

	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}
