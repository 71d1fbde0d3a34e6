package model

import "time"

// RevokedToken overwrites credentials of a disconnected account
const RevokedToken = "revoked"

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusFailed  SyncStatus = "failed"
)

// SocialAccount stores platform OAuth credentials per (user, platform)
type SocialAccount struct {
	ID                   string            `json:"id"`
	UserID               string            `json:"user_id"`
	Platform             Platform          `json:"platform"`
	ExternalAccountID    string            `json:"external_account_id"`
	Handle               string            `json:"handle"`
	DisplayName          string            `json:"display_name"`
	ProfileMeta          map[string]string `json:"profile_meta,omitempty"`
	AccessToken          string            `json:"-"`
	RefreshToken         string            `json:"-"`
	TokenExpiresAt       *time.Time        `json:"token_expires_at,omitempty"`
	Scopes               string            `json:"scopes"`
	IsActive             bool              `json:"is_active"`
	IsRevoked            bool              `json:"is_revoked"`
	RevokedAt            *time.Time        `json:"revoked_at,omitempty"`
	SyncStatus           SyncStatus        `json:"sync_status"`
	SyncError            *string           `json:"sync_error,omitempty"`
	LastSyncAt           *time.Time        `json:"last_sync_at,omitempty"`
	LastExpiryNotifiedAt *time.Time        `json:"-"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// IsTokenExpired treats a missing expiry as a long-lived token
func (a *SocialAccount) IsTokenExpired(now time.Time) bool {
	if a.TokenExpiresAt == nil {
		return false
	}
	return !now.Before(*a.TokenExpiresAt)
}

// IsValid reports whether the account can be used for publishing
func (a *SocialAccount) IsValid(now time.Time) bool {
	return a.IsActive && !a.IsRevoked && !a.IsTokenExpired(now)
}

// Revoke deactivates the account and scrubs its credentials
func (a *SocialAccount) Revoke(now time.Time) {
	a.IsActive = false
	a.IsRevoked = true
	a.RevokedAt = &now
	a.AccessToken = RevokedToken
	a.RefreshToken = RevokedToken
	a.UpdatedAt = now
}
