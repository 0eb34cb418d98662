package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"
)

// SQLiteKV stores slots in a single kv table.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(dataSourceName string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	store := &SQLiteKV{db: db}
	if err = store.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return store, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to query slot %s", key)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	stmt, err := s.db.PrepareContext(ctx, `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
    `)
	if err != nil {
		return errors.Wrap(err, "failed to prepare slot upsert")
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, key, value); err != nil {
		return errors.Wrapf(err, "failed to write slot %s", key)
	}
	return nil
}
