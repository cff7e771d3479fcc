package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMissingDSN = errors.New("DATABASE_URL not set")

// ConnectPostgres opens a pool, verifies it and makes sure the schema exists.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	config, err := poolConfig(dsn)
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	slog.Info("postgres_connected",
		slog.String("host", config.ConnConfig.Host),
		slog.String("database", config.ConnConfig.Database),
	)
	return db, nil
}

func poolConfig(dsn string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	return config, nil
}

// initSchema creates the tables when missing. Statements are idempotent.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	// -------------------------------
	// STAFF ACCOUNTS
	// -------------------------------
	staffSQL := `
		CREATE TABLE IF NOT EXISTS staff_users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'STAFF',
			school_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(ctx, staffSQL); err != nil {
		return err
	}

	// -------------------------------
	// SCAN LEDGER
	// -------------------------------
	scansSQL := `
		CREATE TABLE IF NOT EXISTS scans (
			id BIGINT PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			school_id VARCHAR(100) NOT NULL,
			dish VARCHAR(100) NOT NULL,
			waste_fraction DOUBLE PRECISION NOT NULL,
			waste_level VARCHAR(50) NOT NULL,
			points INTEGER NOT NULL,
			weight_lbs DOUBLE PRECISION NOT NULL,
			cost_usd DOUBLE PRECISION NOT NULL,
			co2_kg DOUBLE PRECISION NOT NULL,
			meals_equivalent DOUBLE PRECISION NOT NULL,
			before_image_ref TEXT NOT NULL DEFAULT '',
			after_image_ref TEXT NOT NULL DEFAULT '',
			estimate_degraded BOOLEAN NOT NULL DEFAULT FALSE,
			dish_fallback BOOLEAN NOT NULL DEFAULT FALSE,
			CHECK (waste_fraction >= 0 AND waste_fraction <= 1)
		)
	`
	if _, err := db.Exec(ctx, scansSQL); err != nil {
		return err
	}

	indexSQL := `
		CREATE INDEX IF NOT EXISTS idx_scans_school_recorded
		ON scans (school_id, recorded_at)
	`
	if _, err := db.Exec(ctx, indexSQL); err != nil {
		return err
	}

	return nil
}
