// Package db provides database connection helpers, schema migration, and the player store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection for the given DSN. The DSN comes from
// config.Load, which owns the DB_DSN env read and its default.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	return sql.Open("pgx", dsn)
}

// Migrate applies idempotent schema changes for all required tables and indices.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			coins BIGINT NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_username ON players(username)`,
		`CREATE INDEX IF NOT EXISTS idx_players_is_admin ON players(is_admin)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// CreatePlayer inserts a player row for a first-seen chat participant.
// Usernames are stored lowercase; re-inserting an existing username is a no-op.
func CreatePlayer(ctx context.Context, dbx *sql.DB, username string) error {
	_, err := dbx.ExecContext(ctx,
		`INSERT INTO players(username) VALUES($1) ON CONFLICT(username) DO NOTHING`,
		strings.ToLower(username))
	if err != nil {
		return fmt.Errorf("create player %s: %w", username, err)
	}
	return nil
}

// AllUsernames returns every known player username, used to warm the participant registry at startup.
func AllUsernames(ctx context.Context, dbx *sql.DB) ([]string, error) {
	rows, err := dbx.QueryContext(ctx, `SELECT username FROM players`)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// IsAdmin reports whether the named player carries the administrator flag.
// Unknown players are not administrators.
func IsAdmin(ctx context.Context, dbx *sql.DB, username string) (bool, error) {
	var isAdmin bool
	err := dbx.QueryRowContext(ctx,
		`SELECT is_admin FROM players WHERE username=$1`,
		strings.ToLower(username)).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("admin lookup %s: %w", username, err)
	}
	return isAdmin, nil
}

// GetKV returns the value stored under key, or empty string when absent.
func GetKV(ctx context.Context, dbx *sql.DB, key string) (string, error) {
	var value sql.NullString
	err := dbx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=$1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetKV stores value under key, replacing any previous value.
func SetKV(ctx context.Context, dbx *sql.DB, key, value string) error {
	_, err := dbx.ExecContext(ctx,
		`INSERT INTO kv(key, value, updated_at) VALUES($1,$2,NOW())
		 ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`,
		key, value)
	return err
}
