// Package database handles the PostgreSQL connection and the settings table.
//
// Go Pattern: We use the `sqlx` package which extends Go's standard `database/sql`
// with struct scanning. Queries are plain SQL.
//
// Go's database/sql has built-in connection pooling: one *sqlx.DB is created
// at startup and shared by every goroutine.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver, registered by its init()
)

// ErrSettingNotFound is returned by GetSetting for a key that was never written.
var ErrSettingNotFound = errors.New("setting not found")

// DB wraps the sqlx connection with application-specific queries.
// Go Pattern: embedding *sqlx.DB promotes all of its methods onto DB.
type DB struct {
	*sqlx.DB
}

// Setting is one row of the settings table.
type Setting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	// sqlx.Connect both opens the connection and pings the database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The settings table sees a handful of queries per process lifetime.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(2 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// GetSetting reads one setting by key.
func (db *DB) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := db.GetContext(ctx, &s, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return &s, nil
}

// PutSetting inserts or replaces one setting.
func (db *DB) PutSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}
