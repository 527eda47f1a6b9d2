// Package store provides the durable backends behind the hunt engine: a
// key/value table for backpacks in SQLite or Redis, and the registration log.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/playperu/geohunt/internal/hunt"
)

// SQLiteKV implements hunt.Storage on the kv table.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hunt.ErrNoValue
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, value,
	)
	return err
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Check pings the database for health reporting.
func (s *SQLiteKV) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
