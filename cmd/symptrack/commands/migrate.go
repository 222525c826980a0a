package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/symptrack/internal/storage"
	"github.com/wonny/symptrack/pkg/config"
	"github.com/wonny/symptrack/pkg/database"
	"github.com/wonny/symptrack/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "PostgreSQL 스키마 생성",
	Long: `tracking 스키마(windows, entries 테이블)를 생성합니다.
이미 존재하면 아무것도 바꾸지 않습니다.

Example:
  STORAGE_BACKEND=postgres go run ./cmd/symptrack migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := storage.Migrate(ctx, db.Pool); err != nil {
		return err
	}

	log.Info("Schema migrated")
	PrintSuccess("tracking schema is up to date")
	return nil
}
