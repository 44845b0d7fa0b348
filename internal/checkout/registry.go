package checkout

import (
	"context"
	"sync"
	"time"
)

// Factory builds the flow for a session on first use.
type Factory func(ctx context.Context, sessionID string) (*Flow, error)

// Registry holds one flow per browser session.
type Registry struct {
	mu      sync.Mutex
	flows   map[string]*registryEntry
	factory Factory
	now     func() time.Time
}

type registryEntry struct {
	flow     *Flow
	lastUsed time.Time
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{flows: map[string]*registryEntry{}, factory: factory, now: time.Now}
}

func (r *Registry) GetOrCreate(ctx context.Context, sessionID string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.flows[sessionID]; ok {
		entry.lastUsed = r.now()
		return entry.flow, nil
	}
	flow, err := r.factory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	r.flows[sessionID] = &registryEntry{flow: flow, lastUsed: r.now()}
	return flow, nil
}

func (r *Registry) Get(sessionID string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.flows[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.flow, true
}

// Remove cancels and forgets the flow for sessionID.
func (r *Registry) Remove(ctx context.Context, sessionID string) {
	r.mu.Lock()
	entry, ok := r.flows[sessionID]
	delete(r.flows, sessionID)
	r.mu.Unlock()

	if ok {
		entry.flow.Cancel(ctx)
	}
}

// EvictIdle forgets flows untouched for at least idle. Flows with a payment
// call in flight are kept whatever their age.
func (r *Registry) EvictIdle(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	evicted := 0
	for id, entry := range r.flows {
		if entry.lastUsed.After(cutoff) {
			continue
		}
		switch entry.flow.State() {
		case StatePreparingPayment, StateProcessing:
			continue
		}
		delete(r.flows, id)
		evicted++
	}
	return evicted
}

// Len is the number of live flows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
