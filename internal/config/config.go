// Package config loads server settings from CONFIGSTORE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Store       string     // CONFIGSTORE_STORE (postgres|memory, default postgres)
	DatabaseURL string     // CONFIGSTORE_DATABASE_URL (required for postgres)
	HTTPAddr    string     // CONFIGSTORE_HTTP_ADDR (default ":8078")
	GRPCAddr    string     // CONFIGSTORE_GRPC_ADDR (default ":9078"; set empty to disable)
	NATSURL     string     // CONFIGSTORE_NATS_URL (optional, empty = no events)
	AuthToken   string     // CONFIGSTORE_AUTH_TOKEN (optional, empty = auth disabled)
	ModelsFile  string     // CONFIGSTORE_MODELS_FILE (optional TOML catalog)
	LogLevel    slog.Level // CONFIGSTORE_LOG_LEVEL (debug|info|warn|error, default info)

	// Sync settings
	SyncInterval   time.Duration // CONFIGSTORE_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // CONFIGSTORE_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // CONFIGSTORE_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // CONFIGSTORE_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // CONFIGSTORE_SYNC_S3_KEY (default "configstore/backup.jsonl")
	SyncGitRepo    string        // CONFIGSTORE_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // CONFIGSTORE_SYNC_GIT_FILE (default "configstore.jsonl")
	SyncGitBranch  string        // CONFIGSTORE_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		Store:          strings.ToLower(envOrDefault("CONFIGSTORE_STORE", StorePostgres)),
		DatabaseURL:    os.Getenv("CONFIGSTORE_DATABASE_URL"),
		HTTPAddr:       envOrDefault("CONFIGSTORE_HTTP_ADDR", ":8078"),
		GRPCAddr:       envOrUnset("CONFIGSTORE_GRPC_ADDR", ":9078"),
		NATSURL:        os.Getenv("CONFIGSTORE_NATS_URL"),
		AuthToken:      os.Getenv("CONFIGSTORE_AUTH_TOKEN"),
		ModelsFile:     os.Getenv("CONFIGSTORE_MODELS_FILE"),
		SyncS3Bucket:   os.Getenv("CONFIGSTORE_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("CONFIGSTORE_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("CONFIGSTORE_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("CONFIGSTORE_SYNC_S3_KEY", "configstore/backup.jsonl"),
		SyncGitRepo:    os.Getenv("CONFIGSTORE_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("CONFIGSTORE_SYNC_GIT_FILE", "configstore.jsonl"),
		SyncGitBranch:  envOrDefault("CONFIGSTORE_SYNC_GIT_BRANCH", "main"),
	}

	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("CONFIGSTORE_DATABASE_URL is required when CONFIGSTORE_STORE=postgres")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("CONFIGSTORE_STORE: unknown store %q (want postgres or memory)", c.Store)
	}

	level, err := ParseLogLevel(os.Getenv("CONFIGSTORE_LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("CONFIGSTORE_LOG_LEVEL: %w", err)
	}
	c.LogLevel = level

	intervalStr := envOrDefault("CONFIGSTORE_SYNC_INTERVAL", "3m")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("CONFIGSTORE_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("CONFIGSTORE_SYNC_INTERVAL: negative duration %s", d)
	}
	c.SyncInterval = d

	return c, nil
}

// SyncEnabled reports whether at least one sync destination is configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

// ParseLogLevel maps a level name to a slog.Level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrUnset is like envOrDefault but keeps an explicitly empty value.
func envOrUnset(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
