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

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/config"
	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/server"
	"github.com/alfredjeanlab/kplan/internal/store/postgres"
	plansync "github.com/alfredjeanlab/kplan/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the kplan HTTP and gRPC servers",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ceilings, err := capacity.LoadCeilings(cfg.CapacityFile, cfg.DefaultCapacityHours)
		if err != nil {
			return err
		}
		calc := capacity.NewCalculator(ceilings)
		calc.LookbackWeeks = cfg.CapacityLookbackWeeks
		calc.HorizonWeeks = cfg.CapacityHorizonWeeks

		ctx := context.Background()
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}

		publisher, err := newPublisher(ctx, cfg, logger)
		if err != nil {
			store.Close()
			return err
		}

		planServer := server.NewPlanServer(store, publisher, calc)
		grpcServer := server.NewGRPCServer(planServer, cfg.AuthToken)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           planServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := newSyncScheduler(ctx, cfg, store, logger)
		if scheduler != nil {
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		}

		logger.Info("kplan server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"default_capacity_hours", ceilings.DefaultHoursPerWeek,
			"capacity_overrides", len(ceilings.Users),
			"auth", cfg.AuthToken != "",
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// newPublisher connects to every configured event bus and fans events out
// to all of them.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	var pubs []events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
		logger.Info("NATS events enabled", "nats_url", cfg.NATSURL)
	}
	if cfg.RedisURL != "" {
		pub, err := events.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			for _, p := range pubs {
				p.Close()
			}
			return nil, err
		}
		pubs = append(pubs, pub)
		logger.Info("Redis events enabled")
	}
	if len(pubs) == 0 {
		logger.Info("events disabled (KPLAN_NATS_URL and KPLAN_REDIS_URL not set)")
	}
	return events.Combine(pubs...), nil
}

// newSyncScheduler returns nil when sync is disabled or no destination
// could be set up.
func newSyncScheduler(ctx context.Context, cfg *config.Config, store *postgres.PostgresStore, logger *slog.Logger) *plansync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []plansync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := plansync.NewS3Destination(ctx, plansync.S3Options{
			Bucket:   cfg.SyncS3Bucket,
			Key:      cfg.SyncS3Key,
			Region:   cfg.SyncS3Region,
			Endpoint: cfg.SyncS3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync destination enabled", "destination", s3Dest.Name())
		}
	}
	if cfg.SyncGitRepo != "" {
		gitDest := plansync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
		dests = append(dests, gitDest)
		logger.Info("sync destination enabled", "destination", gitDest.Name())
	}
	if len(dests) == 0 {
		return nil
	}
	return plansync.NewScheduler(store, dests, cfg.SyncInterval, logger)
}
