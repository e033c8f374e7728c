// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	GitHubToken     string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	LogFormat       string // "text" or "json"
}

// HasGitHubToken reports whether pull request imports can authenticate.
// Imports of public repositories also work without a token.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: REVIEWMARKS_LISTEN_ADDR (127.0.0.1:8484),
// REVIEWMARKS_DB_PATH (reviewmarks.db), REVIEWMARKS_SHUTDOWN_TIMEOUT (10s),
// REVIEWMARKS_LOG_LEVEL (info), REVIEWMARKS_LOG_FORMAT (text).
// REVIEWMARKS_GITHUB_TOKEN authenticates pull request imports.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8484"
	if v, ok := os.LookupEnv("REVIEWMARKS_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	dbPath := "reviewmarks.db"
	if v, ok := os.LookupEnv("REVIEWMARKS_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	shutdownTimeout := 10 * time.Second
	if v, ok := os.LookupEnv("REVIEWMARKS_SHUTDOWN_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWMARKS_SHUTDOWN_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("REVIEWMARKS_SHUTDOWN_TIMEOUT must be positive, got %s", parsed)
		}
		shutdownTimeout = parsed
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("REVIEWMARKS_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("REVIEWMARKS_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	logFormat := "text"
	if v, ok := os.LookupEnv("REVIEWMARKS_LOG_FORMAT"); ok && v != "" {
		logFormat = strings.ToLower(v)
		if logFormat != "text" && logFormat != "json" {
			return nil, fmt.Errorf("REVIEWMARKS_LOG_FORMAT must be text or json, got %q", v)
		}
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		GitHubToken:     os.Getenv("REVIEWMARKS_GITHUB_TOKEN"),
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
	}, nil
}

// NewLogger builds the process logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
