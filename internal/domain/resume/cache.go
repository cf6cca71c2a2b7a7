package resume

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrCacheMiss = errors.New("resume cache miss")

// Cache is the key/value backend that holds the serialized store of every
// user. Writes overwrite; the last writer wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
}

func DataKey(userID string) string {
	return fmt.Sprintf("resume:%s:data", userID)
}

func CustomizationKey(userID string) string {
	return fmt.Sprintf("resume:%s:customization", userID)
}

// MemoryCache is a process local Cache used in tests and when Redis is not configured.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]byte)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.items[key] = v
	return nil
}

func (m *MemoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
