// internal/common/database/postgres.go
package database

import (
	"context"
	"fmt"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sqlx.DB
}

// NewPostgres opens a pool without dialing; use ConnectPostgres to wait for the server.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	configurePool(db, cfg)
	return &PostgresClient{DB: db}, nil
}

// ConnectPostgres opens the pool and pings until the server answers or maxElapsed passes.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig, maxElapsed time.Duration, log logger.Logger) (*PostgresClient, error) {
	const operation = "database.ConnectPostgres"

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed
	policy.MaxInterval = 15 * time.Second

	var db *sqlx.DB
	err := backoff.RetryNotify(
		func() error {
			var err error
			db, err = sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, d time.Duration) {
			log.Warn("PostgreSQL connection failed, retrying", map[string]interface{}{
				"error":         err.Error(),
				"nextAttemptIn": d.String(),
			})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	configurePool(db, cfg)
	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return &PostgresClient{DB: db}, nil
}

func configurePool(db *sqlx.DB, cfg config.PostgresConfig) {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
