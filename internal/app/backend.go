// Package app assembles the persistence stack shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/editorial-cms/internal/cache"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/storage"
	"github.com/rs/zerolog"
)

// Backend is the opened post store together with the resources behind it
type Backend struct {
	repository.PostBackend
	closers []func() error
}

// Close releases the store and any cache connection
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackend opens the configured store, runs migrations for postgres when enabled and
// wraps the result in the redis cache when one is configured.
func OpenBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	var (
		store repository.PostBackend
		err   error
	)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := OpenDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
				db.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresRepo(db)
	default:
		store, err = repository.OpenBolt(repository.BoltOptions{Path: cfg.Bolt.File, Timeout: cfg.Bolt.Timeout})
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.Bolt.File).Msg("Bolt store opened")
	}

	b := &Backend{PostBackend: store, closers: []func() error{store.Close}}
	if !cfg.Redis.Enabled() {
		return b, nil
	}

	rc, err := cache.New(ctx, cfg.Redis, log)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	b.PostBackend = repository.NewCachedRepo(store, rc, cfg.Redis.TTL)
	b.closers = append(b.closers, rc.Close)
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Post cache enabled")

	return b, nil
}

// Verify interface compliance
var _ repository.PostBackend = (*Backend)(nil)

// OpenDatabase connects to postgres without touching the schema
func OpenDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// OpenUploader returns the snapshot uploader, or nil when snapshots are not configured
func OpenUploader(ctx context.Context, cfg *config.Config) (storage.Uploader, error) {
	if !cfg.Export.SnapshotsEnabled() {
		return nil, nil
	}
	uploader, err := storage.NewS3Uploader(ctx, cfg.Export)
	if err != nil {
		return nil, fmt.Errorf("create s3 uploader: %w", err)
	}
	return uploader, nil
}
