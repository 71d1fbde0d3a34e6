package platform

import (
	"sort"
	"sync"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
)

// DefaultTimeout bounds every remote call made through a guarded adapter
const DefaultTimeout = 30 * time.Second

// Registry maps each platform to its guarded adapter. It is filled once at
// startup and read concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Platform]repository.IPlatformAdapter
	timeout  time.Duration
}

var _ repository.IPlatformRegistry = (*Registry)(nil)

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		adapters: make(map[model.Platform]repository.IPlatformAdapter),
		timeout:  timeout,
	}
}

// Register wraps adapter in a guard and replaces any adapter already
// registered for the same platform. ratePerMinute <= 0 disables throttling.
func (r *Registry) Register(adapter repository.IPlatformAdapter, ratePerMinute int) {
	g := Guard(adapter, r.timeout, ratePerMinute)
	r.mu.Lock()
	r.adapters[adapter.Platform()] = g
	r.mu.Unlock()
}

func (r *Registry) Get(p model.Platform) (repository.IPlatformAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	return a, ok
}

func (r *Registry) Platforms() []model.Platform {
	r.mu.RLock()
	out := make([]model.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
