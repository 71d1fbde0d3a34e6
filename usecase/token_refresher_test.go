package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func refresherFor(accounts *memAccounts, notifier *MockNotifier, c *clock, adapters ...*fakeAdapter) *usecase.TokenRefresher {
	registry := platform.NewRegistry(time.Second)
	for _, a := range adapters {
		registry.Register(a, 0)
	}
	return usecase.NewTokenRefresher(accounts, registry, notifier, c.Now)
}

func expiringAccount(id string, platform model.Platform, in time.Duration) model.SocialAccount {
	a := validAccount(id, "u1", platform)
	a.TokenExpiresAt = timePtr(t0.Add(in))
	return a
}

func TestTokenRefresher_RefreshesExpiringTokens(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTwitter, time.Hour))
	notifier := newNotifier()
	r := refresherFor(accounts, notifier, newClock(t0), &fakeAdapter{platform: model.PlatformTwitter})

	require.NoError(t, r.RefreshPass(context.Background()))

	got := accounts.get("a1")
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken, "refresh token kept when the grant omits one")
	require.NotNil(t, got.TokenExpiresAt)
	assert.True(t, got.TokenExpiresAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, model.SyncStatusIdle, got.SyncStatus)
	assert.Nil(t, got.SyncError)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, got.LastSyncAt.Equal(t0))
	assert.Empty(t, notifier.kinds())
}

func TestTokenRefresher_RotatedRefreshTokenIsStored(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformLinkedIn, time.Hour))
	adapter := &fakeAdapter{platform: model.PlatformLinkedIn, refresh: func(rt string) (repository.TokenGrant, error) {
		assert.Equal(t, "refresh", rt)
		return repository.TokenGrant{AccessToken: "a2", RefreshToken: "r2", ExpiresInSeconds: 86400 * 60}, nil
	}}
	r := refresherFor(accounts, newNotifier(), newClock(t0), adapter)

	require.NoError(t, r.RefreshPass(context.Background()))
	got := accounts.get("a1")
	assert.Equal(t, "r2", got.RefreshToken)
	assert.True(t, got.TokenExpiresAt.Equal(t0.Add(60*24*time.Hour)))
}

func TestTokenRefresher_GrantWithoutExpiryIsLongLived(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformFacebook, time.Hour))
	adapter := &fakeAdapter{platform: model.PlatformFacebook, refresh: func(string) (repository.TokenGrant, error) {
		return repository.TokenGrant{AccessToken: "fresh-long-lived"}, nil
	}}
	r := refresherFor(accounts, newNotifier(), newClock(t0), adapter)

	require.NoError(t, r.RefreshPass(context.Background()))

	got := accounts.get("a1")
	assert.Equal(t, "fresh-long-lived", got.AccessToken)
	assert.Nil(t, got.TokenExpiresAt)
	assert.True(t, got.IsValid(t0.Add(2*time.Hour)), "old expiry must not outlive the refresh")
}

func TestTokenRefresher_FailedNotificationDoesNotAbortPass(t *testing.T) {
	adapter := &fakeAdapter{platform: model.PlatformTwitter, refresh: func(string) (repository.TokenGrant, error) {
		return repository.TokenGrant{}, errors.New("invalid_grant")
	}}
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTwitter, time.Hour))
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mongo down"))
	r := refresherFor(accounts, notifier, newClock(t0), adapter)

	require.NoError(t, r.RefreshPass(context.Background()))
	assert.Equal(t, model.SyncStatusFailed, accounts.get("a1").SyncStatus)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestTokenRefresher_SkipsTokensOutsideWindow(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTwitter, 25*time.Hour))
	adapter := &fakeAdapter{platform: model.PlatformTwitter, refresh: func(string) (repository.TokenGrant, error) {
		t.Fatal("refresh should not be called")
		return repository.TokenGrant{}, nil
	}}
	r := refresherFor(accounts, newNotifier(), newClock(t0), adapter)

	require.NoError(t, r.RefreshPass(context.Background()))
	assert.Equal(t, "access", accounts.get("a1").AccessToken)
}

func TestTokenRefresher_MissingRefreshTokenWarnsOncePerDay(t *testing.T) {
	acct := expiringAccount("a1", model.PlatformFacebook, time.Hour)
	acct.RefreshToken = ""
	accounts := newMemAccounts(acct)
	notifier := newNotifier()
	c := newClock(t0)
	r := refresherFor(accounts, notifier, c, &fakeAdapter{platform: model.PlatformFacebook})

	require.NoError(t, r.Run(context.Background()))
	got := accounts.get("a1")
	assert.Equal(t, model.SyncStatusFailed, got.SyncStatus)
	require.NotNil(t, got.SyncError)
	assert.Contains(t, *got.SyncError, "no refresh token")
	assert.Equal(t, []model.NotificationType{model.NotificationTokenExpiring}, notifier.kinds())
	notifier.AssertCalled(t, "Notify", mock.Anything, "u1", model.NotificationTokenExpiring, mock.Anything, mock.Anything,
		model.NotifyOptions{Reference: "a1", Priority: model.PriorityNormal, ActionURL: "/settings/social"})

	c.Advance(time.Hour)
	require.NoError(t, r.Run(context.Background()))
	assert.Len(t, notifier.kinds(), 1)

	c.Advance(24 * time.Hour)
	require.NoError(t, r.Run(context.Background()))
	assert.Len(t, notifier.kinds(), 2)
}

func TestTokenRefresher_NoAdapterMarksFailed(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTikTok, time.Hour))
	notifier := newNotifier()
	r := refresherFor(accounts, notifier, newClock(t0))

	require.NoError(t, r.RefreshPass(context.Background()))
	got := accounts.get("a1")
	assert.Equal(t, model.SyncStatusFailed, got.SyncStatus)
	assert.Contains(t, *got.SyncError, "no adapter")
	assert.Equal(t, []model.NotificationType{model.NotificationTokenExpiring}, notifier.kinds())
}

func TestTokenRefresher_AdapterErrorIsRecordedWithoutRetry(t *testing.T) {
	calls := 0
	adapter := &fakeAdapter{platform: model.PlatformYouTube, refresh: func(string) (repository.TokenGrant, error) {
		calls++
		return repository.TokenGrant{}, errors.New("invalid_grant")
	}}
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformYouTube, time.Hour))
	notifier := newNotifier()
	c := newClock(t0)
	r := refresherFor(accounts, notifier, c, adapter)

	require.NoError(t, r.RefreshPass(context.Background()))
	assert.Equal(t, 1, calls)
	got := accounts.get("a1")
	assert.Equal(t, model.SyncStatusFailed, got.SyncStatus)
	assert.Contains(t, *got.SyncError, "invalid_grant")
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, []model.NotificationType{model.NotificationTokenRefreshFailed}, notifier.kinds())

	// still failing on the next pass: retried, but not announced again
	c.Advance(time.Hour)
	require.NoError(t, r.RefreshPass(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Len(t, notifier.kinds(), 1)
}

func TestTokenRefresher_AlertPass(t *testing.T) {
	soon := expiringAccount("soon", model.PlatformInstagram, 48*time.Hour)
	expired := expiringAccount("expired", model.PlatformInstagram, -time.Hour)
	expired.UserID = "u2"
	recent := expiringAccount("recent", model.PlatformFacebook, 48*time.Hour)
	recent.UserID = "u3"
	recent.LastExpiryNotifiedAt = timePtr(t0.Add(-time.Hour))
	far := expiringAccount("far", model.PlatformTwitter, 96*time.Hour)
	accounts := newMemAccounts(soon, expired, recent, far)
	notifier := newNotifier()
	r := refresherFor(accounts, notifier, newClock(t0))

	require.NoError(t, r.AlertPass(context.Background()))

	notifier.AssertNumberOfCalls(t, "Notify", 2)
	notifier.AssertCalled(t, "Notify", mock.Anything, "u1", model.NotificationTokenExpiring, mock.Anything, mock.Anything,
		model.NotifyOptions{Reference: "soon", Priority: model.PriorityNormal, ActionURL: "/settings/social"})
	notifier.AssertCalled(t, "Notify", mock.Anything, "u2", model.NotificationTokenExpiring, mock.Anything, mock.Anything,
		model.NotifyOptions{Reference: "expired", Priority: model.PriorityHigh, ActionURL: "/settings/social"})
	require.NotNil(t, accounts.get("soon").LastExpiryNotifiedAt)
	assert.True(t, accounts.get("soon").LastExpiryNotifiedAt.Equal(t0))
}

func TestTokenRefresher_RefreshAccountForUserProvider(t *testing.T) {
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTwitter, 30*24*time.Hour))
	r := refresherFor(accounts, newNotifier(), newClock(t0), &fakeAdapter{platform: model.PlatformTwitter})

	got, err := r.RefreshAccountForUserProvider(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, "new-access", accounts.get("a1").AccessToken)

	_, err = r.RefreshAccountForUserProvider(context.Background(), "u1", model.PlatformLinkedIn)
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestTokenRefresher_OnDemandFailureIsReturned(t *testing.T) {
	adapter := &fakeAdapter{platform: model.PlatformTwitter, refresh: func(string) (repository.TokenGrant, error) {
		return repository.TokenGrant{}, errors.New("revoked by user")
	}}
	accounts := newMemAccounts(expiringAccount("a1", model.PlatformTwitter, time.Hour))
	r := refresherFor(accounts, newNotifier(), newClock(t0), adapter)

	_, err := r.RefreshAccountForUserProvider(context.Background(), "u1", model.PlatformTwitter)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRefreshFailed)
	assert.Equal(t, model.SyncStatusFailed, accounts.get("a1").SyncStatus)
}
