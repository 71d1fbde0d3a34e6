package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"github.com/stretchr/testify/mock"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// clock is a settable time source shared by a test and the code under test
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(at time.Time) *clock { return &clock{now: at} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memPosts struct {
	mu    sync.Mutex
	posts map[string]model.Post
	// beforeUpdate lets a test change a row between read and write
	beforeUpdate func(id string)
}

var _ repository.IPost = (*memPosts)(nil)

func newMemPosts(posts ...model.Post) *memPosts {
	m := &memPosts{posts: map[string]model.Post{}}
	for _, p := range posts {
		m.posts[p.ID] = p.Clone()
	}
	return m
}

func (m *memPosts) Create(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (m *memPosts) ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Post
	for _, p := range m.posts {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) Update(ctx context.Context, post *model.Post, expected model.PostStatus) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(post.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[post.ID]
	if !ok || cur.Status != expected {
		return model.ErrStaleStatus
	}
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *memPosts) FindDue(ctx context.Context, now time.Time) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Post
	for _, p := range m.posts {
		if p.Status == model.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (m *memPosts) FindQueued(ctx context.Context, limit int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Post
	for _, p := range m.posts {
		if p.Status == model.PostStatusQueued {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) get(id string) model.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id].Clone()
}

func (m *memPosts) set(p model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p.Clone()
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]model.SocialAccount
	seq      int
}

var _ repository.ISocialAccount = (*memAccounts)(nil)

func newMemAccounts(accounts ...model.SocialAccount) *memAccounts {
	m := &memAccounts{accounts: map[string]model.SocialAccount{}}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*model.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memAccounts) FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.Platform == platform {
			return &a, nil
		}
	}
	return nil, model.ErrAccountNotFound
}

func (m *memAccounts) ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SocialAccount
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (m *memAccounts) ListActive(ctx context.Context) ([]model.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SocialAccount
	for _, a := range m.accounts {
		if a.IsActive && !a.IsRevoked {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAccounts) FindExpiring(ctx context.Context, cutoff time.Time) ([]model.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SocialAccount
	for _, a := range m.accounts {
		if a.IsActive && !a.IsRevoked && a.TokenExpiresAt != nil && !a.TokenExpiresAt.After(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAccounts) Upsert(ctx context.Context, account *model.SocialAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.accounts {
		if a.UserID == account.UserID && a.Platform == account.Platform {
			account.ID = id
		}
	}
	if account.ID == "" {
		m.seq++
		account.ID = fmt.Sprintf("acct-%d", m.seq)
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *memAccounts) Save(ctx context.Context, account *model.SocialAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return model.ErrAccountNotFound
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *memAccounts) get(id string) model.SocialAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

// fakeAdapter answers publish calls from a per-call script
type fakeAdapter struct {
	mu       sync.Mutex
	platform model.Platform
	outcomes []repository.PublishOutcome
	calls    int
	delay    time.Duration
	refresh  func(refreshToken string) (repository.TokenGrant, error)
	profile  repository.Profile
	metrics  []model.AnalyticsMetric
}

var _ repository.IPlatformAdapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Platform() model.Platform        { return f.platform }
func (f *fakeAdapter) AuthCodeURL(state string) string { return "https://" + string(f.platform) + ".example/auth?state=" + state }

func (f *fakeAdapter) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	return repository.TokenGrant{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, ExpiresInSeconds: 3600}, nil
}

func (f *fakeAdapter) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	if f.refresh != nil {
		return f.refresh(refreshToken)
	}
	return repository.TokenGrant{AccessToken: "new-access", ExpiresInSeconds: 3600}, nil
}

func (f *fakeAdapter) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if len(f.outcomes) == 0 {
		return repository.PublishOutcome{Success: true, ExternalID: string(f.platform) + "-id"}
	}
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	return f.outcomes[i]
}

func (f *fakeAdapter) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	return f.profile, nil
}

func (f *fakeAdapter) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	return f.metrics
}

func (f *fakeAdapter) publishCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// MockNotifier records notifications through testify/mock
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, kind model.NotificationType, title, message string, opts model.NotifyOptions) error {
	args := m.Called(ctx, userID, kind, title, message, opts)
	return args.Error(0)
}

func (m *MockNotifier) kinds() []model.NotificationType {
	var out []model.NotificationType
	for _, c := range m.Calls {
		if c.Method == "Notify" {
			out = append(out, c.Arguments.Get(2).(model.NotificationType))
		}
	}
	return out
}

func newNotifier() *MockNotifier {
	n := &MockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return n
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	statuses []model.PostStatus
}

func (b *recordingBroadcaster) BroadcastPostStatus(post model.Post) {
	b.mu.Lock()
	b.statuses = append(b.statuses, post.Status)
	b.mu.Unlock()
}

func timePtr(t time.Time) *time.Time { return &t }

func validAccount(id, userID string, platform model.Platform) model.SocialAccount {
	return model.SocialAccount{
		ID:           id,
		UserID:       userID,
		Platform:     platform,
		AccessToken:  "access",
		RefreshToken: "refresh",
		IsActive:     true,
		SyncStatus:   model.SyncStatusIdle,
	}
}
