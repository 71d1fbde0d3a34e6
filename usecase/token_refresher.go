package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"
)

const (
	DefaultRefreshWindow = 24 * time.Hour
	DefaultAlertWindow   = 72 * time.Hour
	// expiryAlertCooldown keeps a user from hearing about the same account more than daily
	expiryAlertCooldown = 24 * time.Hour
	reconnectURL        = "/settings/social"
)

type ITokenRefresher interface {
	// Run performs the refresh pass followed by the expiry alert pass
	Run(ctx context.Context) error
	RefreshAccountForUserProvider(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error)
}

type TokenRefresher struct {
	accounts      repository.ISocialAccount
	adapters      repository.IPlatformRegistry
	notifier      INotifier
	now           utils.Clock
	refreshWindow time.Duration
	alertWindow   time.Duration
}

var _ ITokenRefresher = (*TokenRefresher)(nil)

func NewTokenRefresher(accounts repository.ISocialAccount, adapters repository.IPlatformRegistry, notifier INotifier, now utils.Clock) *TokenRefresher {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &TokenRefresher{
		accounts:      accounts,
		adapters:      adapters,
		notifier:      notifier,
		now:           now,
		refreshWindow: DefaultRefreshWindow,
		alertWindow:   DefaultAlertWindow,
	}
}

// WithWindows overrides the refresh and alert look-ahead windows
func (r *TokenRefresher) WithWindows(refresh, alert time.Duration) *TokenRefresher {
	if refresh > 0 {
		r.refreshWindow = refresh
	}
	if alert > 0 {
		r.alertWindow = alert
	}
	return r
}

func (r *TokenRefresher) Run(ctx context.Context) error {
	refreshErr := r.RefreshPass(ctx)
	alertErr := r.AlertPass(ctx)
	return errors.Join(refreshErr, alertErr)
}

// RefreshPass refreshes every account whose token expires inside the refresh
// window. A failing account is left for the next pass.
func (r *TokenRefresher) RefreshPass(ctx context.Context) error {
	now := r.now()
	due, err := r.accounts.FindExpiring(ctx, now.Add(r.refreshWindow))
	if err != nil {
		return fmt.Errorf("find expiring accounts: %w", err)
	}
	for i := range due {
		account := due[i]
		if err := r.refresh(ctx, &account, true); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":      err,
				"account_id": account.ID,
				"platform":   account.Platform,
			}).Warn("Token refresh failed")
		}
	}
	return nil
}

// AlertPass warns owners of accounts expiring inside the alert window, at most
// once per account per day
func (r *TokenRefresher) AlertPass(ctx context.Context) error {
	now := r.now()
	expiring, err := r.accounts.FindExpiring(ctx, now.Add(r.alertWindow))
	if err != nil {
		return fmt.Errorf("find accounts to alert: %w", err)
	}
	for i := range expiring {
		account := expiring[i]
		if err := r.alert(ctx, &account, now); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":      err,
				"account_id": account.ID,
			}).Warn("Token expiry alert failed")
		}
	}
	return nil
}

func (r *TokenRefresher) RefreshAccountForUserProvider(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	account, err := r.accounts.FindByUserAndPlatform(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if err := r.refresh(ctx, account, false); err != nil {
		return account, err
	}
	return account, nil
}

// refresh runs one account through the adapter and persists the outcome.
// notify controls whether a missing refresh path raises an expiry alert.
func (r *TokenRefresher) refresh(ctx context.Context, account *model.SocialAccount, notify bool) error {
	now := r.now()
	adapter, ok := r.adapters.Get(account.Platform)
	var reason string
	switch {
	case !ok:
		reason = fmt.Sprintf("no adapter configured for %s", account.Platform)
	case account.IsRevoked || account.RefreshToken == "" || account.RefreshToken == model.RevokedToken:
		reason = "no refresh token available; reconnect the account"
	}
	if reason != "" {
		r.markFailed(account, reason, now)
		if err := r.accounts.Save(ctx, account); err != nil {
			return err
		}
		if notify {
			if err := r.alert(ctx, account, now); err != nil {
				return err
			}
		}
		return fmt.Errorf("%w: %s", model.ErrRefreshFailed, reason)
	}

	wasFailing := account.SyncStatus == model.SyncStatusFailed
	account.SyncStatus = model.SyncStatusSyncing
	account.UpdatedAt = now
	if err := r.accounts.Save(ctx, account); err != nil {
		return err
	}

	grant, err := adapter.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		r.markFailed(account, err.Error(), r.now())
		if saveErr := r.accounts.Save(ctx, account); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		if !wasFailing && r.notifier != nil {
			if nErr := r.notifier.Notify(ctx, account.UserID, model.NotificationTokenRefreshFailed,
				fmt.Sprintf("Could not refresh your %s connection", account.Platform),
				"We could not renew access to your account. Reconnect it to keep publishing.",
				model.NotifyOptions{Reference: account.ID, Priority: model.PriorityHigh, ActionURL: reconnectURL}); nErr != nil {
				logger.GetLogger().WithField("account_id", account.ID).WithField("error", nErr).Warn("Failed to send token refresh notification")
			}
		}
		if !errors.Is(err, model.ErrRefreshFailed) {
			err = fmt.Errorf("%w: %w", model.ErrRefreshFailed, err)
		}
		return err
	}

	now = r.now()
	account.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		account.RefreshToken = grant.RefreshToken
	}
	account.TokenExpiresAt = expiryFrom(grant, now)
	account.SyncStatus = model.SyncStatusIdle
	account.SyncError = nil
	account.LastSyncAt = &now
	account.UpdatedAt = now
	return r.accounts.Save(ctx, account)
}

func (r *TokenRefresher) markFailed(account *model.SocialAccount, reason string, now time.Time) {
	account.SyncStatus = model.SyncStatusFailed
	account.SyncError = &reason
	account.UpdatedAt = now
}

// alert emits a token_expiring notification unless one went out recently
func (r *TokenRefresher) alert(ctx context.Context, account *model.SocialAccount, now time.Time) error {
	if account.LastExpiryNotifiedAt != nil && now.Sub(*account.LastExpiryNotifiedAt) < expiryAlertCooldown {
		return nil
	}
	priority := model.PriorityNormal
	message := fmt.Sprintf("Your %s connection expires soon. Reconnect it to keep publishing.", account.Platform)
	if account.IsTokenExpired(now) {
		priority = model.PriorityHigh
		message = fmt.Sprintf("Your %s connection has expired. Reconnect it to keep publishing.", account.Platform)
	} else if account.TokenExpiresAt != nil {
		message = fmt.Sprintf("Your %s connection expires on %s. Reconnect it to keep publishing.",
			account.Platform, account.TokenExpiresAt.UTC().Format("Jan 2, 15:04 MST"))
	}
	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, account.UserID, model.NotificationTokenExpiring,
			fmt.Sprintf("%s access expiring", account.Platform), message,
			model.NotifyOptions{Reference: account.ID, Priority: priority, ActionURL: reconnectURL}); err != nil {
			return err
		}
	}
	account.LastExpiryNotifiedAt = &now
	return r.accounts.Save(ctx, account)
}
