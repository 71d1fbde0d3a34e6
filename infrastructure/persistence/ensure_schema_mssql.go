package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchemaMSSQL creates the posts and social_accounts tables for SQL Server if they do not exist.
func EnsureSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	posts := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.posts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[posts] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        content NVARCHAR(MAX) NOT NULL,
        media NVARCHAR(MAX) NOT NULL,
        platforms NVARCHAR(MAX) NOT NULL,
        scheduled_at DATETIME2 NULL,
        title NVARCHAR(255) NULL,
        tags NVARCHAR(MAX) NOT NULL,
        visibility NVARCHAR(16) NULL,
        category_id NVARCHAR(64) NULL,
        status NVARCHAR(16) NOT NULL,
        attempts INT NOT NULL DEFAULT 0,
        last_error NVARCHAR(MAX) NULL,
        publish_result NVARCHAR(MAX) NOT NULL,
        published_at DATETIME2 NULL,
        queued_at DATETIME2 NULL,
        cancelled_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_posts_status_scheduled ON dbo.[posts](status, scheduled_at);
    CREATE INDEX IX_posts_user_created ON dbo.[posts](user_id, created_at DESC);
END`
	accounts := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_accounts] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        external_account_id NVARCHAR(255) NOT NULL DEFAULT '',
        handle NVARCHAR(255) NOT NULL DEFAULT '',
        display_name NVARCHAR(255) NOT NULL DEFAULT '',
        profile_meta NVARCHAR(MAX) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        token_expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NULL,
        is_active BIT NOT NULL DEFAULT 1,
        is_revoked BIT NOT NULL DEFAULT 0,
        revoked_at DATETIME2 NULL,
        sync_status NVARCHAR(16) NOT NULL DEFAULT 'idle',
        sync_error NVARCHAR(MAX) NULL,
        last_sync_at DATETIME2 NULL,
        last_expiry_notified_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_user_platform ON dbo.[social_accounts](user_id, platform);
END`
	for _, ddl := range []string{posts, accounts} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema (mssql): %w", err)
		}
	}
	return nil
}
