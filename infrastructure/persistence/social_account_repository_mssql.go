package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"github.com/google/uuid"
)

type SocialAccountRepositoryMSSQL struct{ db *sql.DB }

func NewSocialAccountRepositoryMSSQL(db *sql.DB) *SocialAccountRepositoryMSSQL {
	return &SocialAccountRepositoryMSSQL{db: db}
}

var _ repository.ISocialAccount = (*SocialAccountRepositoryMSSQL)(nil)

func (r *SocialAccountRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE id=@p1`, id)
	return accountOrNotFound(scanAccount(row))
}

func (r *SocialAccountRepositoryMSSQL) FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 AND platform=@p2`, userID, string(platform))
	return accountOrNotFound(scanAccount(row))
}

func (r *SocialAccountRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 ORDER BY platform`, userID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepositoryMSSQL) ListActive(ctx context.Context) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts] WHERE is_active=1 AND is_revoked=0`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepositoryMSSQL) FindExpiring(ctx context.Context, cutoff time.Time) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM dbo.[social_accounts]
WHERE is_active=1 AND is_revoked=0 AND token_expires_at IS NOT NULL AND token_expires_at <= @p1
ORDER BY token_expires_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	meta, err := encodeMeta(a.ProfileMeta)
	if err != nil {
		return fmt.Errorf("encode profile_meta: %w", err)
	}
	// MERGE upsert by (user_id, platform); OUTPUT returns the surviving row id
	q := `MERGE dbo.[social_accounts] AS target
USING (VALUES (@p2, @p3)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    external_account_id=@p4,
    handle=@p5,
    display_name=@p6,
    profile_meta=@p7,
    access_token=@p8,
    refresh_token=@p9,
    token_expires_at=@p10,
    scopes=@p11,
    is_active=@p12,
    is_revoked=@p13,
    revoked_at=@p14,
    sync_status=@p15,
    sync_error=@p16,
    last_sync_at=@p17,
    last_expiry_notified_at=@p18,
    updated_at=@p20
WHEN NOT MATCHED THEN
    INSERT (` + accountColumns + `)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,@p13,@p14,@p15,@p16,@p17,@p18,@p19,@p20)
OUTPUT inserted.id, inserted.created_at;`
	row := r.db.QueryRowContext(ctx, q, accountArgs(a, meta)...)
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *SocialAccountRepositoryMSSQL) Save(ctx context.Context, a *model.SocialAccount) error {
	a.UpdatedAt = time.Now().UTC()
	meta, err := encodeMeta(a.ProfileMeta)
	if err != nil {
		return fmt.Errorf("encode profile_meta: %w", err)
	}
	q := `UPDATE dbo.[social_accounts] SET external_account_id=@p2, handle=@p3, display_name=@p4, profile_meta=@p5, access_token=@p6, refresh_token=@p7,
    token_expires_at=@p8, scopes=@p9, is_active=@p10, is_revoked=@p11, revoked_at=@p12, sync_status=@p13, sync_error=@p14, last_sync_at=@p15,
    last_expiry_notified_at=@p16, updated_at=@p17
WHERE id=@p1`
	res, err := r.db.ExecContext(ctx, q, saveArgs(a, meta)...)
	if err != nil {
		return err
	}
	return notFoundIfNoRows(res, a.ID)
}
