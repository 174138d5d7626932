package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groblegark/configstore/internal/config"
	"github.com/groblegark/configstore/internal/contract"
	"github.com/groblegark/configstore/internal/events"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
	"github.com/spf13/cobra"
)

var fixturesCmd = &cobra.Command{
	Use:     "fixtures",
	Short:   "Manage the contract fixture rows",
	GroupID: "contract",
}

var fixturesSeedCmd = &cobra.Command{
	Use:               "seed",
	Short:             "Insert the contract fixtures into the store",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFixtureBackend(cmd.Context(), func(ctx context.Context, st store.Store, reg *model.Registry, pub events.Publisher, logger *slog.Logger) error {
			return seedFixtures(ctx, st, reg, pub, logger)
		})
	},
}

var fixturesCleanCmd = &cobra.Command{
	Use:               "clean",
	Short:             "Delete the contract fixtures from the store",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFixtureBackend(cmd.Context(), func(ctx context.Context, st store.Store, reg *model.Registry, pub events.Publisher, logger *slog.Logger) error {
			fixtures, err := contract.DefaultFixtures(reg)
			if err != nil {
				return err
			}
			return contract.Attach(st, fixtures, logger, contract.WithPublisher(pub)).End(ctx)
		})
	},
}

func init() {
	fixturesCmd.AddCommand(fixturesSeedCmd)
	fixturesCmd.AddCommand(fixturesCleanCmd)
}

// seedFixtures inserts the default fixtures for reg into st.
func seedFixtures(ctx context.Context, st store.Store, reg *model.Registry, pub events.Publisher, logger *slog.Logger) error {
	fixtures, err := contract.DefaultFixtures(reg)
	if err != nil {
		return err
	}
	if _, err := contract.Begin(ctx, st, fixtures, logger, contract.WithPublisher(pub)); err != nil {
		return fmt.Errorf("seeding fixtures: %w", err)
	}
	return nil
}

type fixtureFunc func(ctx context.Context, st store.Store, reg *model.Registry, pub events.Publisher, logger *slog.Logger) error

// withFixtureBackend opens the configured store and publisher, runs fn and
// releases both.
func withFixtureBackend(ctx context.Context, fn fixtureFunc) error {
	cfg, reg, st, err := openBackend()
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger(cfg.LogLevel)
	if cfg.Store == config.StoreMemory {
		logger.Warn("memory store selected; fixtures will not outlive this command")
	}

	pub, err := newPublisher(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, st, reg, pub, logger)
}
