package kamba

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/shaharia-lab/kamba/observability"
)

var postgresDialect = sqlDialect{
	name: "postgres",
	createTable: `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
	get: `SELECT value FROM kv_store WHERE key = $1`,
	upsert: `
	INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	remove: `DELETE FROM kv_store WHERE key = $1`,
}

// PostgresKeyValueStore is a KeyValueStore backed by a Postgres table.
type PostgresKeyValueStore struct {
	*sqlKeyValueStore
}

// OpenPostgresKeyValueStore connects to dsn with the lib/pq driver.
func OpenPostgresKeyValueStore(ctx context.Context, dsn string, logger observability.Logger) (*PostgresKeyValueStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	store, err := NewPostgresKeyValueStore(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresKeyValueStore wraps an existing connection pool and ensures the table exists.
func NewPostgresKeyValueStore(ctx context.Context, db *sql.DB, logger observability.Logger) (*PostgresKeyValueStore, error) {
	store := &PostgresKeyValueStore{
		sqlKeyValueStore: &sqlKeyValueStore{
			db:      db,
			dialect: postgresDialect,
			logger:  logger,
		},
	}

	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return store, nil
}
