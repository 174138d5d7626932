package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groblegark/configstore/internal/config"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/server"
	"github.com/groblegark/configstore/internal/store"
	cssync "github.com/groblegark/configstore/internal/sync"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the lookup service",
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		reg, err := model.LoadRegistry(cfg.ModelsFile)
		if err != nil {
			return err
		}
		logger.Info("models loaded", "count", reg.Len())

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		logger.Info("store opened", "backend", cfg.Store)

		publisher, err := newPublisher(cfg.NATSURL, logger)
		if err != nil {
			st.Close()
			return err
		}

		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			if err := seedFixtures(cmd.Context(), st, reg, publisher, logger); err != nil {
				publisher.Close()
				st.Close()
				return err
			}
		}

		configServer := server.NewConfigServer(reg, st, publisher, logger)

		var grpcServer *grpc.Server
		if cfg.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				publisher.Close()
				st.Close()
				return err
			}
			grpcServer = server.NewGRPCServer(configServer, cfg.AuthToken)
			go func() {
				logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
				if err := grpcServer.Serve(lis); err != nil {
					logger.Error("gRPC server error", "err", err)
				}
			}()
		}

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           configServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startSync(cfg, st, reg, logger)

		if cfg.AuthToken == "" {
			logger.Warn("auth disabled (CONFIGSTORE_AUTH_TOKEN not set)")
		}
		logger.Info("configstore started", "http_addr", cfg.HTTPAddr, "grpc_addr", cfg.GRPCAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		if grpcServer != nil {
			grpcServer.GracefulStop()
			logger.Info("gRPC server stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("seed", false, "insert the contract fixtures before serving")
}

// startSync starts the export scheduler when at least one destination is
// configured. It returns nil otherwise.
func startSync(cfg *config.Config, st store.Store, reg *model.Registry, logger *slog.Logger) *cssync.Scheduler {
	if !cfg.SyncEnabled() {
		return nil
	}

	var dests []cssync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := cssync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync destination enabled", "dest", s3Dest.Name())
		}
	}
	if cfg.SyncGitRepo != "" {
		gitDest := cssync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
		dests = append(dests, gitDest)
		logger.Info("sync destination enabled", "dest", gitDest.Name())
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := cssync.NewScheduler(st, reg, dests, cfg.SyncInterval, logger)
	scheduler.Start(context.Background())
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
