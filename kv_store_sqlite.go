package kamba

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shaharia-lab/kamba/observability"
)

var sqliteDialect = sqlDialect{
	name: "sqlite",
	createTable: `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	get: `SELECT value FROM kv_store WHERE key = ?`,
	upsert: `
	INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	remove: `DELETE FROM kv_store WHERE key = ?`,
}

// SQLiteKeyValueStore is a KeyValueStore backed by a local SQLite database file.
type SQLiteKeyValueStore struct {
	*sqlKeyValueStore
}

// NewSQLiteKeyValueStore opens (or creates) the database at databasePath.
func NewSQLiteKeyValueStore(databasePath string, logger observability.Logger) (*SQLiteKeyValueStore, error) {
	db, err := sql.Open("sqlite3", databasePath+"?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &SQLiteKeyValueStore{
		sqlKeyValueStore: &sqlKeyValueStore{
			db:      db,
			dialect: sqliteDialect,
			logger:  logger,
		},
	}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return store, nil
}
