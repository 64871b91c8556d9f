package db

import (
	"fmt"

	_ "video-hosting/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrations are compiled in; goose only needs a directory that exists
// wherever the binary runs.
const migrationsDir = "."

// Migrate applies the registered goose migrations.
func Migrate(database *gorm.DB, log *zap.Logger) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("sql.DB: %w", err)
	}

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return err
	}
	log.Info("Database migrated", zap.Int64("version", version))
	return nil
}
