package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/sessionstore"
)

// Registry hands out one Store per session id so concurrent requests for the
// same session share a lock. Stores not used for a while are dropped by
// EvictIdle; their data stays in session storage.
type Registry struct {
	mu      sync.Mutex
	backend sessionstore.Backend
	opts    Options
	stores  map[string]*registryEntry
	now     func() time.Time
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

func NewRegistry(backend sessionstore.Backend, opts Options) *Registry {
	return &Registry{
		backend: backend,
		opts:    opts,
		stores:  make(map[string]*registryEntry),
		now:     time.Now,
	}
}

// ForSession returns the store for sessionID. A cached store is reloaded from
// storage so writes made by other processes are picked up.
func (r *Registry) ForSession(ctx context.Context, sessionID string) (*Store, error) {
	if store, ok := r.cached(sessionID); ok {
		store.Reload(ctx)
		return store, nil
	}

	session, err := sessionstore.NewSession(r.backend, sessionID)
	if err != nil {
		return nil, err
	}
	opened, err := Open(ctx, session, r.opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[sessionID]; ok {
		existing.lastUsed = r.now()
		return existing.store, nil
	}
	r.stores[sessionID] = &registryEntry{store: opened, lastUsed: r.now()}
	return opened, nil
}

func (r *Registry) cached(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.store, true
}

// Forget drops the cached store for sessionID. Stored data is untouched.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}

// EvictIdle drops stores not handed out for at least idle and returns how
// many were removed.
func (r *Registry) EvictIdle(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	evicted := 0
	for id, entry := range r.stores {
		if !entry.lastUsed.After(cutoff) {
			delete(r.stores, id)
			evicted++
		}
	}
	return evicted
}

// Len is the number of cached stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Handle follows the registry's store for one session across requests.
// Reload resolves the store again, so a handle held by a long-lived checkout
// never keeps using a store the registry has evicted.
type Handle struct {
	registry  *Registry
	sessionID string

	mu    sync.Mutex
	store *Store
}

func (r *Registry) Handle(ctx context.Context, sessionID string) (*Handle, error) {
	store, err := r.ForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Handle{registry: r, sessionID: sessionID, store: store}, nil
}

// Reload re-resolves the store through the registry, which also refreshes it
// from storage. On failure the current store is reloaded in place.
func (h *Handle) Reload(ctx context.Context) {
	store, err := h.registry.ForSession(ctx, h.sessionID)
	if err != nil {
		h.current().Reload(ctx)
		return
	}
	h.mu.Lock()
	h.store = store
	h.mu.Unlock()
}

func (h *Handle) IsEmpty() bool             { return h.current().IsEmpty() }
func (h *Handle) Totals() Totals            { return h.current().Totals() }
func (h *Handle) Clear(ctx context.Context) { h.current().Clear(ctx) }

func (h *Handle) current() *Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store
}
