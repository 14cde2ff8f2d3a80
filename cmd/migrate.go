package cmd

import (
	"context"
	"fmt"
	"time"

	"storefront-svc/config"
	"storefront-svc/database"
	"storefront-svc/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.InitDB(cfg.DB, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	log.Info("Schema migrated", zap.String("db", cfg.DB.Name))
	return nil
}
