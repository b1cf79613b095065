package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/editorial-cms/internal/app"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			return db.RunMigrations(cfg.Database.MigrationsPath)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			return db.MigrateDown(cfg.Database.MigrationsPath)
		})
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:   "goto VERSION",
	Short: "Migrate up or down to VERSION",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withDatabase(func(db *database.DB) error {
			return db.MigrateToVersion(cfg.Database.MigrationsPath, uint(version))
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateGotoCmd)
}

func withDatabase(fn func(*database.DB) error) error {
	if cfg.Store.Driver != config.DriverPostgres {
		return errors.New("migrations apply to the postgres store only, set STORE_DRIVER=postgres")
	}
	db, err := app.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
