// Package storage is the durable key/value store that backs per-visitor state:
// carts, the cookie consent flag and revoked session ids. Values are opaque
// strings scoped by an owner (a user, an anonymous cart id, or a system
// namespace such as "session").
package storage

import (
	"context"
	"sync"
	"time"
)

// KV is implemented by every storage backend.
type KV interface {
	// Get returns the stored value and whether the key exists. Expired
	// values are reported as missing.
	Get(ctx context.Context, owner, key string) (string, bool, error)
	Set(ctx context.Context, owner, key, value string) error
	// SetTTL stores a value that expires after ttl. A ttl <= 0 behaves like Set.
	SetTTL(ctx context.Context, owner, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, owner, key string) error
}

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory keeps values in process. Used in tests and when no backend is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]entry
	now  func() time.Time
}

var _ KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, owner, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[owner][key]
	if !ok || e.expired(m.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, owner, key, value string) error {
	return m.SetTTL(ctx, owner, key, value, 0)
}

func (m *Memory) SetTTL(_ context.Context, owner, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if m.data[owner] == nil {
		m.data[owner] = make(map[string]entry)
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
		// sweep expired keys of this owner
		for k, old := range m.data[owner] {
			if old.expired(now) {
				delete(m.data[owner], k)
			}
		}
	}
	m.data[owner][key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[owner], key)
	if len(m.data[owner]) == 0 {
		delete(m.data, owner)
	}
	return nil
}

// Len returns the number of keys held for owner, expired ones included.
func (m *Memory) Len(owner string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[owner])
}
