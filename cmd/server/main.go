package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/editorial-cms/internal/api"
	"github.com/editorial-cms/internal/app"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/seed"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/watcher"
	"github.com/editorial-cms/pkg/logger"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format, cfg.Env)
	log.Info().Str("store", cfg.Store.Driver).Msg("Starting editorial CMS server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize persistence
	backend, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open post store")
	}
	defer backend.Close()

	uploader, err := app.OpenUploader(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure snapshots")
	}

	// Initialize services
	services := service.NewServices(backend, uploader, cfg, log)
	if err := services.Posts.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load posts")
	}

	if cfg.Seed.File != "" {
		if _, err := seed.IfEmpty(ctx, cfg.Seed.File, services.Posts, services.Import, log); err != nil {
			log.Error().Err(err).Str("file", cfg.Seed.File).Msg("Seeding failed")
		}
	}

	// Start the drop-folder watcher
	if cfg.Import.WatchDir != "" {
		w, err := watcher.New(cfg.Import.WatchDir, cfg.Import.SettleDelay, services.Import, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create import watcher")
		}
		if err := w.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start import watcher")
		}
		defer w.Stop()
	}

	// Schedule snapshots
	if cfg.Export.Schedule != "" && uploader != nil {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Export.Schedule, func() {
			log.Info().Msg("Running scheduled snapshot...")
			result, err := services.Export.Snapshot(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Scheduled snapshot failed")
				return
			}
			log.Info().Str("key", result.Key).Int("posts", result.Posts).Msg("Scheduled snapshot completed")
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Export.Schedule).Msg("Invalid snapshot schedule")
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}

	log.Info().Msg("Server exited gracefully")
}
