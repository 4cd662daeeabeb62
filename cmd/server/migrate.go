package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users and sessions tables if they do not exist",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	switch cfg.Database.Driver {
	case "postgres":
		pool, err := db.OpenPostgres(cmd.Context(), cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		pool.Close()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		sqlDB, err := db.OpenSQLite(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		sqlDB.Close()
	}

	log.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
	return nil
}
