package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchema creates the posts and social_accounts tables in PostgreSQL if
// they are missing. Safe to call at every startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			media JSONB NOT NULL DEFAULT '[]',
			platforms JSONB NOT NULL,
			scheduled_at TIMESTAMPTZ NULL,
			title TEXT NULL,
			tags JSONB NOT NULL DEFAULT '[]',
			visibility TEXT NULL,
			category_id TEXT NULL,
			status TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NULL,
			publish_result JSONB NOT NULL DEFAULT '{}',
			published_at TIMESTAMPTZ NULL,
			queued_at TIMESTAMPTZ NULL,
			cancelled_at TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_posts_status_scheduled ON posts (status, scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS ix_posts_user_created ON posts (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS social_accounts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			external_account_id TEXT NOT NULL DEFAULT '',
			handle TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			profile_meta JSONB NOT NULL DEFAULT '{}',
			access_token TEXT NOT NULL,
			refresh_token TEXT NULL,
			token_expires_at TIMESTAMPTZ NULL,
			scopes TEXT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
			revoked_at TIMESTAMPTZ NULL,
			sync_status TEXT NOT NULL DEFAULT 'idle',
			sync_error TEXT NULL,
			last_sync_at TIMESTAMPTZ NULL,
			last_expiry_notified_at TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_social_accounts_user_platform ON social_accounts (user_id, platform)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
