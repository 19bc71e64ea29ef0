package repository

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS discord_users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		global_name   TEXT NOT NULL DEFAULT '',
		avatar        TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discord_users_last_login ON discord_users (last_login_at DESC)`,
}

// dropSchema undoes schema.
var dropSchema = []string{
	`DROP TABLE IF EXISTS discord_users`,
}

// InitSchema creates the tables the repositories need.
func InitSchema(ctx context.Context, db DBTX) error {
	return execAll(ctx, db, schema)
}

// DropSchema removes every table created by InitSchema.
func DropSchema(ctx context.Context, db DBTX) error {
	return execAll(ctx, db, dropSchema)
}

func execAll(ctx context.Context, db DBTX, statements []string) error {
	for i, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// UsersTableStatus reports whether discord_users exists and how many rows it
// holds.
func UsersTableStatus(ctx context.Context, db DBTX) (bool, int64, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = 'discord_users'
	)`).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check table: %w", err)
	}
	if !exists {
		return false, 0, nil
	}

	var count int64
	if err := db.QueryRow(ctx, `SELECT count(*) FROM discord_users`).Scan(&count); err != nil {
		return true, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return true, count, nil
}
