package main

import (
	"log/slog"
	"os"

	"github.com/groblegark/configstore/internal/config"
	"github.com/groblegark/configstore/internal/events"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
	"github.com/groblegark/configstore/internal/store/memory"
	"github.com/groblegark/configstore/internal/store/postgres"
)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore connects to the backend named by cfg.Store.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}
	return postgres.New(cfg.DatabaseURL)
}

// openBackend loads the configuration, the model registry and the store
// shared by the commands that bypass the service.
func openBackend() (*config.Config, *model.Registry, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	reg, err := model.LoadRegistry(cfg.ModelsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, reg, st, nil
}

// newPublisher connects to NATS when url is set and falls back to a no-op.
func newPublisher(url string, logger *slog.Logger) (events.Publisher, error) {
	if url == "" {
		logger.Info("events disabled (CONFIGSTORE_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		return nil, err
	}
	logger.Info("events enabled", "nats_url", url)
	return pub, nil
}
