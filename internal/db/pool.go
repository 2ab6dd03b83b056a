package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerly/bill-extraction-service/internal/logger"
)

// ErrNoDatabase is returned by store operations when the service runs
// without a configured database (extraction-only mode).
var ErrNoDatabase = errors.New("database not configured")

// Pool is the global database connection pool. Nil in extraction-only mode.
var Pool *pgxpool.Pool

// Init initializes the database connection pool from DATABASE_URL or the
// individual DB_* environment variables.
func Init() error {
	log := logger.GetLogger()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := os.Getenv("DB_HOST")
		port := os.Getenv("DB_PORT")
		user := os.Getenv("DB_USER")
		password := os.Getenv("DB_PASSWORD")
		dbname := os.Getenv("DB_NAME")

		if host != "" && user != "" && dbname != "" {
			if port == "" {
				port = "5432"
			}
			databaseURL = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
				user, password, host, port, dbname)
		} else {
			log.Info("no database configuration found, running in extraction-only mode")
			return ErrNoDatabase
		}
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	Pool = pool
	log.Info("database connection pool initialized")
	return nil
}

// Close closes the database connection pool.
func Close() {
	if Pool != nil {
		Pool.Close()
		logger.GetLogger().Info("database connection pool closed")
	}
}

// InitSchema creates the users, entries, bills and business_profiles
// tables if missing.
func InitSchema(ctx context.Context) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	schema := `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entries (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id),
	entry_type     TEXT NOT NULL CHECK (entry_type IN ('income', 'expense')),
	amount         DOUBLE PRECISION NOT NULL,
	note           TEXT,
	source         TEXT NOT NULL DEFAULT 'manual',
	vendor_name    TEXT,
	vendor_gstin   TEXT,
	bill_number    TEXT,
	bill_date      TEXT,
	taxable_amount DOUBLE PRECISION,
	cgst_amount    DOUBLE PRECISION,
	sgst_amount    DOUBLE PRECISION,
	igst_amount    DOUBLE PRECISION,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bills (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL REFERENCES users(id),
	filename        TEXT NOT NULL,
	storage_key     TEXT,
	storage_url     TEXT,
	ocr_text        TEXT,
	detected_amount DOUBLE PRECISION,
	vendor_name     TEXT,
	bill_date       TEXT,
	total_amount    DOUBLE PRECISION,
	gst_amount      DOUBLE PRECISION,
	items_json      TEXT,
	status          TEXT NOT NULL DEFAULT 'processing',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS business_profiles (
	id                          BIGSERIAL PRIMARY KEY,
	user_id                     BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	business_name               TEXT,
	gstin                       TEXT,
	business_type               TEXT CHECK (business_type IN ('retail', 'wholesale', 'services', 'other')),
	address                     TEXT,
	phone                       TEXT,
	bank_name                   TEXT,
	bank_account_number         TEXT,
	bank_ifsc                   TEXT,
	profile_completion_pct      INTEGER NOT NULL DEFAULT 0,
	catalog_completion_pct      INTEGER NOT NULL DEFAULT 0,
	inventory_completion_pct    INTEGER NOT NULL DEFAULT 0,
	integrations_completion_pct INTEGER NOT NULL DEFAULT 0,
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entries_user ON entries(user_id);
CREATE INDEX IF NOT EXISTS idx_bills_user ON bills(user_id);
`

	if _, err := Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
