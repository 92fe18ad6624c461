package cache

import (
	"context"
	"sync"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

type memEntry struct {
	profile domain.Profile
	expires time.Time
}

// Memory is an in-process ProfileCache with a fixed TTL.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
	now     func() time.Time
}

var _ ProfileCache = (*Memory)(nil)

// NewMemory returns an in-process cache. A non-positive ttl keeps entries
// until invalidated.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) GetProfiles(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok {
			continue
		}
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.entries, id)
			continue
		}
		out[id] = e.profile
	}
	return out, nil
}

func (m *Memory) PutProfiles(_ context.Context, profiles []domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	for _, p := range profiles {
		m.entries[p.ID] = memEntry{profile: p, expires: expires}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
