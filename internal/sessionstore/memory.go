package sessionstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory keeps session values in process. Values expire after ttl when ttl > 0.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, dependencyErr(err, "get", key)
	}
	m.mu.RLock()
	entry, ok := m.entries[sessionID][key]
	m.mu.RUnlock()
	if !ok || m.expired(entry) {
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

func (m *Memory) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return dependencyErr(err, "set", key)
	}
	entry := memoryEntry{value: slices.Clone(value)}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.entries[sessionID]
	if !ok {
		values = make(map[string]memoryEntry)
		m.entries[sessionID] = values
	}
	values[key] = entry
	return nil
}

func (m *Memory) Delete(ctx context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.entries[sessionID]
	if !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(m.entries, sessionID)
	}
	return nil
}

// PurgeExpired drops expired values and reports how many were removed.
func (m *Memory) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for sid, values := range m.entries {
		for key, entry := range values {
			if m.expired(entry) {
				delete(values, key)
				removed++
			}
		}
		if len(values) == 0 {
			delete(m.entries, sid)
		}
	}
	return removed, nil
}

func (m *Memory) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}
