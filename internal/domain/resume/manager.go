package resume

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

type managedStore struct {
	store    *Store
	lastUsed time.Time
}

// Manager hands out one Store per user. The first request for a user
// hydrates the store from the cache; concurrent first requests share that load.
// Later requests refresh the store when another instance saved a newer copy.
type Manager struct {
	reg     *section.Registry
	cache   Cache
	hooks   []func(Change)
	loaders []func(context.Context, *Store) error

	group singleflight.Group
	mu    sync.Mutex
	live  map[string]*managedStore
}

type ManagerOption func(*Manager)

// WithLoader runs fn once per hydration, after the cache load. It is where
// server data gets merged in.
func WithLoader(fn func(ctx context.Context, st *Store) error) ManagerOption {
	return func(m *Manager) { m.loaders = append(m.loaders, fn) }
}

// WithSubscriber attaches fn to every store the manager creates.
func WithSubscriber(fn func(Change)) ManagerOption {
	return func(m *Manager) { m.hooks = append(m.hooks, fn) }
}

func NewManager(reg *section.Registry, cache Cache, opts ...ManagerOption) *Manager {
	m := &Manager{
		reg:   reg,
		cache: cache,
		live:  make(map[string]*managedStore),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) For(ctx context.Context, userID string) (*Store, error) {
	m.mu.Lock()
	if ms, ok := m.live[userID]; ok {
		ms.lastUsed = time.Now()
		m.mu.Unlock()
		if _, err := ms.store.Refresh(ctx); err != nil {
			return nil, err
		}
		return ms.store, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(userID, func() (any, error) {
		st := NewStore(userID, m.reg, m.cache)
		if err := st.Load(ctx); err != nil {
			return nil, err
		}
		for _, load := range m.loaders {
			if err := load(ctx, st); err != nil {
				return nil, err
			}
		}
		for _, h := range m.hooks {
			st.Subscribe(h)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if ms, ok := m.live[userID]; ok {
			return ms.store, nil
		}
		m.live[userID] = &managedStore{store: st, lastUsed: time.Now()}
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Forget drops the in-process store so the next For reloads it from the cache.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	delete(m.live, userID)
	m.mu.Unlock()
}

// Sweep evicts stores idle for longer than maxIdle and returns how many were evicted.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, ms := range m.live {
		if ms.lastUsed.Before(cutoff) {
			delete(m.live, id)
			n++
		}
	}
	return n
}
