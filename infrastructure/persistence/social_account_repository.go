package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"github.com/google/uuid"
)

// SocialAccountRepository is the PostgreSQL token store
type SocialAccountRepository struct{ db *sql.DB }

func NewSocialAccountRepository(db *sql.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

var _ repository.ISocialAccount = (*SocialAccountRepository)(nil)

func (r *SocialAccountRepository) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE id=$1`, id)
	return accountOrNotFound(scanAccount(row))
}

func (r *SocialAccountRepository) FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, string(platform))
	return accountOrNotFound(scanAccount(row))
}

func (r *SocialAccountRepository) ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE user_id=$1 ORDER BY platform`, userID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepository) ListActive(ctx context.Context) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE is_active=TRUE AND is_revoked=FALSE`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepository) FindExpiring(ctx context.Context, cutoff time.Time) ([]model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM social_accounts
		WHERE is_active=TRUE AND is_revoked=FALSE AND token_expires_at IS NOT NULL AND token_expires_at <= $1
		ORDER BY token_expires_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *SocialAccountRepository) Upsert(ctx context.Context, a *model.SocialAccount) error {
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
	q := `INSERT INTO social_accounts (` + accountColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			external_account_id=EXCLUDED.external_account_id,
			handle=EXCLUDED.handle,
			display_name=EXCLUDED.display_name,
			profile_meta=EXCLUDED.profile_meta,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_expires_at=EXCLUDED.token_expires_at,
			scopes=EXCLUDED.scopes,
			is_active=EXCLUDED.is_active,
			is_revoked=EXCLUDED.is_revoked,
			revoked_at=EXCLUDED.revoked_at,
			sync_status=EXCLUDED.sync_status,
			sync_error=EXCLUDED.sync_error,
			last_sync_at=EXCLUDED.last_sync_at,
			last_expiry_notified_at=EXCLUDED.last_expiry_notified_at,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at`
	row := r.db.QueryRowContext(ctx, q, accountArgs(a, meta)...)
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *SocialAccountRepository) Save(ctx context.Context, a *model.SocialAccount) error {
	a.UpdatedAt = time.Now().UTC()
	meta, err := encodeMeta(a.ProfileMeta)
	if err != nil {
		return fmt.Errorf("encode profile_meta: %w", err)
	}
	q := `UPDATE social_accounts SET external_account_id=$2, handle=$3, display_name=$4, profile_meta=$5, access_token=$6, refresh_token=$7,
		  token_expires_at=$8, scopes=$9, is_active=$10, is_revoked=$11, revoked_at=$12, sync_status=$13, sync_error=$14, last_sync_at=$15,
		  last_expiry_notified_at=$16, updated_at=$17
		  WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, saveArgs(a, meta)...)
	if err != nil {
		return err
	}
	return notFoundIfNoRows(res, a.ID)
}

// accountArgs follows the order of accountColumns
func accountArgs(a *model.SocialAccount, meta string) []any {
	return []any{
		a.ID, a.UserID, string(a.Platform), a.ExternalAccountID, a.Handle, a.DisplayName, meta, a.AccessToken, a.RefreshToken,
		nullTime(a.TokenExpiresAt), a.Scopes, a.IsActive, a.IsRevoked, nullTime(a.RevokedAt), string(a.SyncStatus), nullString(a.SyncError),
		nullTime(a.LastSyncAt), nullTime(a.LastExpiryNotifiedAt), a.CreatedAt, a.UpdatedAt,
	}
}

// saveArgs is id followed by the mutable columns
func saveArgs(a *model.SocialAccount, meta string) []any {
	return []any{
		a.ID, a.ExternalAccountID, a.Handle, a.DisplayName, meta, a.AccessToken, a.RefreshToken,
		nullTime(a.TokenExpiresAt), a.Scopes, a.IsActive, a.IsRevoked, nullTime(a.RevokedAt), string(a.SyncStatus), nullString(a.SyncError),
		nullTime(a.LastSyncAt), nullTime(a.LastExpiryNotifiedAt), a.UpdatedAt,
	}
}

func accountOrNotFound(a *model.SocialAccount, err error) (*model.SocialAccount, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	return a, err
}

func collectAccounts(rows *sql.Rows) ([]model.SocialAccount, error) {
	defer rows.Close()
	var list []model.SocialAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func notFoundIfNoRows(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
	}
	return nil
}
