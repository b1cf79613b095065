// Command cmsctl runs imports, exports and migrations against the configured post store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/editorial-cms/internal/app"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cmsctl",
	Short:         "Manage the editorial CMS post store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format, cfg.Env)
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(importCmd, exportCmd, seedCmd, snapshotCmd, migrateCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withServices opens the store, loads the collection and runs fn
func withServices(ctx context.Context, fn func(*service.Services) error) error {
	backend, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	uploader, err := app.OpenUploader(ctx, cfg)
	if err != nil {
		return err
	}

	services := service.NewServices(backend, uploader, cfg, log)
	if err := services.Posts.Load(ctx); err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	return fn(services)
}
