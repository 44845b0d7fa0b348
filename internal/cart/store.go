package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/sessionstore"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type mutationRecorder interface {
	IncCartMutation(operation string)
}

// Options configures a Store.
type Options struct {
	Pricing Pricing
	Logger  *logger.Logger
	Metrics mutationRecorder
}

// Store owns the cart of one browsing session. Storage is the source of truth:
// every mutation re-reads it, applies the change and writes it back inside one
// critical section. When storage cannot be read or written the failure is
// logged and the in-memory cart carries on.
type Store struct {
	mu      sync.Mutex
	storage sessionstore.Storage
	lines   []Line
	pricing Pricing
	logg    *logger.Logger
	metrics mutationRecorder
}

// Open builds a store and rehydrates it from storage. Absent or unreadable data
// yields an empty cart.
func Open(ctx context.Context, storage sessionstore.Storage, opts Options) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	pricing := opts.Pricing
	if pricing == (Pricing{}) {
		pricing = DefaultPricing()
	}
	s := &Store{
		storage: storage,
		pricing: pricing,
		logg:    logg,
		metrics: opts.Metrics,
	}
	if lines, ok := s.load(ctx); ok {
		s.lines = lines
	} else {
		s.lines = []Line{}
	}
	return s, nil
}

// AddItem increments the line for product or appends a new one. Quantities
// below one are treated as one.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) Line {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	var line Line
	if i := s.indexOf(product.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		line = s.lines[i]
	} else {
		line = lineFromProduct(product, quantity)
		s.lines = append(s.lines, line)
	}
	s.commit(ctx, "add_item")
	return line
}

// RemoveItem drops the line for productID if present.
func (s *Store) RemoveItem(ctx context.Context, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	s.commit(ctx, "remove_item")
}

// SetQuantity replaces the quantity of an existing line. Zero or negative
// quantities remove the line.
func (s *Store) SetQuantity(ctx context.Context, productID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	i := s.indexOf(productID)
	if i < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
			WithDetails(map[string]any{"productId": productID})
	}
	if quantity <= 0 {
		s.lines = slices.Delete(s.lines, i, i+1)
		s.commit(ctx, "remove_item")
		return nil
	}
	s.lines[i].Quantity = quantity
	s.commit(ctx, "set_quantity")
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []Line{}
	s.commit(ctx, "clear")
}

// ItemCount is the sum of all line quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines, s.pricing)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Reload replaces the in-memory cart with what storage currently holds. The
// read happens under the store lock so it cannot overwrite a mutation that
// committed while the read was in flight.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
}

// refreshLocked must be called with mu held.
func (s *Store) refreshLocked(ctx context.Context) {
	if lines, ok := s.load(ctx); ok {
		s.lines = lines
	}
}

func (s *Store) indexOf(productID int) int {
	return slices.IndexFunc(s.lines, func(l Line) bool { return l.ProductID == productID })
}

// load reads the stored cart. Absent or corrupt data is an empty cart. The
// second result is false when storage itself failed and the caller should
// keep what it has.
func (s *Store) load(ctx context.Context) ([]Line, bool) {
	var stored []Line
	found, err := sessionstore.GetJSON(ctx, s.storage, sessionstore.KeyCart, &stored)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		s.logg.Warn(s.logg.WithField(ctx, "key", sessionstore.KeyCart), "discarding unreadable cart: "+err.Error())
		return []Line{}, true
	case err != nil:
		s.logg.Warn(s.logg.WithField(ctx, "key", sessionstore.KeyCart), "cart storage unavailable, keeping cached cart: "+err.Error())
		return nil, false
	case !found:
		return []Line{}, true
	}
	return normalizeLines(stored), true
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.IncCartMutation(operation)
	}
	if err := sessionstore.SetJSON(ctx, s.storage, sessionstore.KeyCart, s.lines); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"key": sessionstore.KeyCart, "operation": operation})
		s.logg.Error(ctx, "failed to persist cart", err)
	}
}
