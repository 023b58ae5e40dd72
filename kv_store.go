package kamba

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaharia-lab/kamba/observability"
)

const (
	// ChatHistoryKey holds the JSON-encoded chat list.
	ChatHistoryKey = "chatHistory"
	// ActiveChatIDKey holds the JSON-encoded active chat identifier.
	ActiveChatIDKey = "activeChatId"
)

// KeyValueStore is the persistent string store chat history is written to.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// sqlDialect carries the statements that differ between SQL backends.
type sqlDialect struct {
	name        string
	createTable string
	get         string
	upsert      string
	remove      string
}

// sqlKeyValueStore is the database/sql implementation shared by the SQLite and Postgres stores.
type sqlKeyValueStore struct {
	db      *sql.DB
	dialect sqlDialect
	logger  observability.Logger
}

func (s *sqlKeyValueStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		return fmt.Errorf("failed to create %s kv_store table: %w", s.dialect.name, err)
	}
	return nil
}

// Get returns the value stored under key and whether it was present.
func (s *sqlKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *sqlKeyValueStore) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *sqlKeyValueStore) Remove(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.remove, key)
	if err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.WithErr(err).Warn("failed to get rows affected for remove")
		return nil
	}
	if rowsAffected == 0 {
		s.logger.WithFields(map[string]interface{}{"key": key}).Debug("remove on absent key")
	}
	return nil
}

// Close releases the database connection.
func (s *sqlKeyValueStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
