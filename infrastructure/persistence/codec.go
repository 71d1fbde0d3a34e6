package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"linkhub/domain/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// postColumns is the select list shared by every post query
const postColumns = `id, user_id, content, media, platforms, scheduled_at, title, tags, visibility, category_id, status, attempts, last_error, publish_result, published_at, queued_at, cancelled_at, created_at, updated_at`

type postJSON struct {
	media, platforms, tags, result string
}

func encodePost(p *model.Post) (postJSON, error) {
	var out postJSON
	enc := func(v any) (string, error) {
		raw, err := json.Marshal(v)
		return string(raw), err
	}
	var err error
	media := p.Media
	if media == nil {
		media = []model.Media{}
	}
	if out.media, err = enc(media); err != nil {
		return out, fmt.Errorf("encode media: %w", err)
	}
	if out.platforms, err = enc(p.Platforms); err != nil {
		return out, fmt.Errorf("encode platforms: %w", err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	if out.tags, err = enc(tags); err != nil {
		return out, fmt.Errorf("encode tags: %w", err)
	}
	result := p.PublishResult
	if result == nil {
		result = model.PublishResult{}
	}
	if out.result, err = enc(result); err != nil {
		return out, fmt.Errorf("encode publish result: %w", err)
	}
	return out, nil
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	var media, platforms, tags, result []byte
	var scheduledAt, publishedAt, queuedAt, cancelledAt sql.NullTime
	var title, visibility, categoryID, lastError sql.NullString
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.Content, &media, &platforms, &scheduledAt, &title, &tags, &visibility, &categoryID,
		&status, &p.Attempts, &lastError, &result, &publishedAt, &queuedAt, &cancelledAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = model.PostStatus(status)
	p.Title = title.String
	p.Visibility = visibility.String
	p.CategoryID = categoryID.String
	p.LastError = stringPtr(lastError)
	p.ScheduledAt = timePtr(scheduledAt)
	p.PublishedAt = timePtr(publishedAt)
	p.QueuedAt = timePtr(queuedAt)
	p.CancelledAt = timePtr(cancelledAt)
	dec := func(raw []byte, v any, field string) error {
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode %s of post %s: %w", field, p.ID, err)
		}
		return nil
	}
	if err := dec(media, &p.Media, "media"); err != nil {
		return nil, err
	}
	if err := dec(platforms, &p.Platforms, "platforms"); err != nil {
		return nil, err
	}
	if err := dec(tags, &p.Tags, "tags"); err != nil {
		return nil, err
	}
	if err := dec(result, &p.PublishResult, "publish_result"); err != nil {
		return nil, err
	}
	if len(p.PublishResult) == 0 {
		p.PublishResult = nil
	}
	return p, nil
}

// accountColumns is the select list shared by every social account query
const accountColumns = `id, user_id, platform, external_account_id, handle, display_name, profile_meta, access_token, refresh_token, token_expires_at, scopes, is_active, is_revoked, revoked_at, sync_status, sync_error, last_sync_at, last_expiry_notified_at, created_at, updated_at`

func encodeMeta(meta map[string]string) (string, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	return string(raw), err
}

func scanAccount(row rowScanner) (*model.SocialAccount, error) {
	a := &model.SocialAccount{}
	var platform, syncStatus string
	var meta []byte
	var refresh, scopes, syncError sql.NullString
	var expires, revokedAt, lastSync, lastNotified sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &platform, &a.ExternalAccountID, &a.Handle, &a.DisplayName, &meta, &a.AccessToken, &refresh,
		&expires, &scopes, &a.IsActive, &a.IsRevoked, &revokedAt, &syncStatus, &syncError, &lastSync, &lastNotified, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Platform = model.Platform(platform)
	a.SyncStatus = model.SyncStatus(syncStatus)
	a.RefreshToken = refresh.String
	a.Scopes = scopes.String
	a.SyncError = stringPtr(syncError)
	a.TokenExpiresAt = timePtr(expires)
	a.RevokedAt = timePtr(revokedAt)
	a.LastSyncAt = timePtr(lastSync)
	a.LastExpiryNotifiedAt = timePtr(lastNotified)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.ProfileMeta); err != nil {
			return nil, fmt.Errorf("decode profile_meta of account %s: %w", a.ID, err)
		}
	}
	return a, nil
}
