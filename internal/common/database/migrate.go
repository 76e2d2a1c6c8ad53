// internal/common/database/migrate.go
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"renovation-estimator/internal/common/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, log logger.Logger) error {
	const operation = "database.Migrate"

	log.Info("Running database migrations", nil)
	if err := prepareGoose(); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}
	log.Info("Database migrations completed", nil)
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, log logger.Logger) error {
	const operation = "database.Rollback"

	log.Info("Rolling back last migration", nil)
	if err := prepareGoose(); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to rollback migration: %w", operation, err)
	}
	return nil
}

func prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}
