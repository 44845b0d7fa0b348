package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/payment"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	DefaultPrepareTimeout   = 10 * time.Second
	DefaultAuthorizeTimeout = 30 * time.Second
)

// Cart is the part of the cart store checkout depends on. Reload is called
// before every step that reads the cart so checkout prices what storage holds.
type Cart interface {
	Reload(ctx context.Context)
	IsEmpty() bool
	Totals() cart.Totals
	Clear(ctx context.Context)
}

type transitionRecorder interface {
	IncTransition(from, to string)
	ObservePayment(operation string, success bool, d time.Duration)
}

// Params wires a Flow.
type Params struct {
	Cart             Cart
	Provider         payment.Provider
	Currency         string
	PrepareTimeout   time.Duration
	AuthorizeTimeout time.Duration
	Logger           *logger.Logger
	Metrics          transitionRecorder
}

// Receipt describes a successful checkout.
type Receipt struct {
	Reference   string         `json:"reference"`
	Amount      payment.Amount `json:"amount"`
	Customer    CustomerInfo   `json:"customer"`
	CompletedAt time.Time      `json:"completedAt"`
}

// Flow is the checkout state machine for one session.
//
// Payment calls run without holding the lock. Each call captures the
// generation it started under; Cancel and Open bump the generation so a
// result arriving afterwards is dropped.
type Flow struct {
	mu sync.Mutex

	cart     Cart
	provider payment.Provider
	currency string

	prepareTimeout   time.Duration
	authorizeTimeout time.Duration

	state    State
	session  *payment.Session
	lastErr  *pkgerrors.Error
	missing  []string
	receipt  *Receipt
	gen      uint64
	inflight context.CancelFunc

	logg    *logger.Logger
	metrics transitionRecorder
	now     func() time.Time
}

func NewFlow(params Params) (*Flow, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("checkout cart required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	prepare := params.PrepareTimeout
	if prepare <= 0 {
		prepare = DefaultPrepareTimeout
	}
	authorize := params.AuthorizeTimeout
	if authorize <= 0 {
		authorize = DefaultAuthorizeTimeout
	}
	return &Flow{
		cart:             params.Cart,
		provider:         params.Provider,
		currency:         params.Currency,
		prepareTimeout:   prepare,
		authorizeTimeout: authorize,
		state:            StateIdle,
		logg:             logg,
		metrics:          params.Metrics,
		now:              time.Now,
	}, nil
}

// Open starts (or restarts) checkout. An empty cart redirects to the cart
// view. A payment already in flight is left alone.
func (f *Flow) Open(ctx context.Context) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateProcessing {
		return f.snapshotLocked()
	}
	f.abandonLocked()
	f.cart.Reload(ctx)
	if f.cart.IsEmpty() {
		f.transitionLocked(ctx, StateRedirectToCart)
	} else {
		f.transitionLocked(ctx, StateIdle)
	}
	return f.snapshotLocked()
}

// PreparePayment creates a payment session for the current cart total.
func (f *Flow) PreparePayment(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	switch f.state {
	case StateIdle, StateFailed:
	case StatePreparingPayment, StateAwaitingSubmission:
		defer f.mu.Unlock()
		return f.snapshotLocked(), nil
	default:
		defer f.mu.Unlock()
		return f.snapshotLocked(), f.conflict("prepare payment")
	}
	return f.prepareLocked(ctx)
}

// prepareLocked is entered with mu held and releases it.
func (f *Flow) prepareLocked(ctx context.Context) (Snapshot, error) {
	f.cart.Reload(ctx)
	if f.cart.IsEmpty() {
		defer f.mu.Unlock()
		f.abandonLocked()
		f.transitionLocked(ctx, StateRedirectToCart)
		return f.snapshotLocked(), nil
	}

	amount := payment.Amount{Value: f.cart.Totals().Total, Currency: f.currency}
	f.session = nil
	f.lastErr = nil
	f.missing = nil
	f.transitionLocked(ctx, StatePreparingPayment)
	gen, callCtx, cancel := f.beginCallLocked(ctx, f.prepareTimeout, true)
	f.mu.Unlock()

	start := time.Now()
	session, err := f.provider.CreatePaymentSession(callCtx, amount)
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()
	f.observe("create_payment_session", err == nil, time.Since(start))

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		f.logg.Info(ctx, "discarding stale payment session result")
		return f.snapshotLocked(), nil
	}
	f.inflight = nil

	if err != nil {
		f.lastErr = paymentError(err, pkgerrors.CodePaymentSession, "could not prepare payment", timedOut)
		f.transitionLocked(ctx, StateFailed)
		f.logg.Error(ctx, "payment session failed", err)
		return f.snapshotLocked(), f.lastErr
	}

	f.session = &session
	f.transitionLocked(ctx, StateAwaitingSubmission)
	return f.snapshotLocked(), nil
}

// Submit validates the customer and authorizes the payment. A Submit that
// arrives while a payment is processing or after it succeeded changes nothing
// and reports the current state.
func (f *Flow) Submit(ctx context.Context, info CustomerInfo, details payment.Details) (Snapshot, error) {
	f.mu.Lock()
	switch f.state {
	case StateProcessing, StateSucceeded:
		defer f.mu.Unlock()
		return f.snapshotLocked(), nil
	case StateAwaitingSubmission:
	default:
		defer f.mu.Unlock()
		return f.snapshotLocked(), f.conflict("submit payment")
	}

	info = info.normalized()
	if fields, err := info.Validate(); err != nil {
		defer f.mu.Unlock()
		f.missing = fields
		f.lastErr = pkgerrors.As(err)
		return f.snapshotLocked(), err
	}
	f.missing = nil

	f.cart.Reload(ctx)
	if f.cart.IsEmpty() {
		defer f.mu.Unlock()
		f.abandonLocked()
		f.transitionLocked(ctx, StateRedirectToCart)
		return f.snapshotLocked(), nil
	}

	session := *f.session
	if !session.Valid(f.now()) {
		defer f.mu.Unlock()
		f.session = nil
		f.lastErr = pkgerrors.New(pkgerrors.CodePaymentSession, "payment session expired")
		f.transitionLocked(ctx, StateFailed)
		return f.snapshotLocked(), f.lastErr
	}
	total := f.cart.Totals().Total
	if !session.Amount.Value.Equal(total) {
		defer f.mu.Unlock()
		f.session = nil
		f.lastErr = pkgerrors.New(pkgerrors.CodePaymentSession, "order total changed").
			WithDetails(map[string]any{"prepared": session.Amount.Value.String(), "current": total.String()})
		f.transitionLocked(ctx, StateFailed)
		return f.snapshotLocked(), f.lastErr
	}

	if details.Email == "" {
		details.Email = info.Email
	}
	if details.Reference == "" {
		details.Reference = uuid.NewString()
	}

	f.lastErr = nil
	f.transitionLocked(ctx, StateProcessing)
	gen, callCtx, cancel := f.beginCallLocked(ctx, f.authorizeTimeout, false)
	f.mu.Unlock()

	start := time.Now()
	err := f.provider.Authorize(callCtx, session, details)
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()
	f.observe("authorize", err == nil, time.Since(start))

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		if err == nil {
			ctx = f.logg.WithFields(ctx, map[string]any{"reference": details.Reference, "provider": session.Provider})
			f.logg.Warn(ctx, "payment authorized after checkout was abandoned; cart left untouched")
		} else {
			f.logg.Info(ctx, "discarding stale authorization result")
		}
		return f.snapshotLocked(), nil
	}
	f.inflight = nil

	if err != nil {
		f.lastErr = paymentError(err, pkgerrors.CodePaymentAuthorization, "payment failed", timedOut)
		if f.lastErr.Code() == pkgerrors.CodePaymentSession {
			f.session = nil
		}
		f.transitionLocked(ctx, StateFailed)
		f.logg.Error(ctx, "payment authorization failed", err)
		return f.snapshotLocked(), f.lastErr
	}

	f.cart.Clear(ctx)
	f.receipt = &Receipt{
		Reference:   details.Reference,
		Amount:      session.Amount,
		Customer:    info,
		CompletedAt: f.now().UTC(),
	}
	f.session = nil
	f.transitionLocked(ctx, StateSucceeded)
	return f.snapshotLocked(), nil
}

// Retry resumes a failed checkout. A still-valid payment session is reused,
// otherwise a new one is prepared.
func (f *Flow) Retry(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	if f.state != StateFailed {
		defer f.mu.Unlock()
		if f.state == StateProcessing {
			return f.snapshotLocked(), nil
		}
		return f.snapshotLocked(), f.conflict("retry")
	}

	if f.session != nil && f.session.Valid(f.now()) {
		defer f.mu.Unlock()
		f.lastErr = nil
		f.transitionLocked(ctx, StateAwaitingSubmission)
		return f.snapshotLocked(), nil
	}
	return f.prepareLocked(ctx)
}

// Cancel abandons the current attempt. Results of calls still in flight are
// discarded when they arrive; an authorization already sent is not aborted.
func (f *Flow) Cancel(ctx context.Context) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSucceeded {
		return f.snapshotLocked()
	}
	f.abandonLocked()
	f.transitionLocked(ctx, StateIdle)
	return f.snapshotLocked()
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// beginCallLocked starts a payment call detached from the caller's
// cancellation, bounded only by timeout. Session creation may be cut short
// by abandonLocked since nothing is charged yet; an authorization is never
// cancelled locally because the provider may complete it regardless, so it
// runs to its own result and the generation check discards it.
func (f *Flow) beginCallLocked(ctx context.Context, timeout time.Duration, abortable bool) (uint64, context.Context, context.CancelFunc) {
	f.gen++
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	f.inflight = nil
	if abortable {
		f.inflight = cancel
	}
	return f.gen, callCtx, cancel
}

func (f *Flow) abandonLocked() {
	f.gen++
	if f.inflight != nil {
		f.inflight()
		f.inflight = nil
	}
	f.session = nil
	f.lastErr = nil
	f.missing = nil
	f.receipt = nil
}

func (f *Flow) transitionLocked(ctx context.Context, to State) {
	from := f.state
	f.state = to
	if f.metrics != nil {
		f.metrics.IncTransition(from.String(), to.String())
	}
	if from != to {
		ctx = f.logg.WithFields(ctx, map[string]any{"from": from.String(), "to": to.String()})
		f.logg.Debug(ctx, "checkout transition")
	}
}

func (f *Flow) observe(op string, ok bool, d time.Duration) {
	if f.metrics != nil {
		f.metrics.ObservePayment(op, ok, d)
	}
}

func (f *Flow) conflict(action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot "+action+" while checkout is "+f.state.String()).
		WithDetails(map[string]any{"state": f.state.String()})
}

// paymentError keeps typed payment errors from the provider and wraps
// anything else under fallback.
func paymentError(err error, fallback pkgerrors.Code, msg string, timedOut bool) *pkgerrors.Error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodePaymentSession, pkgerrors.CodePaymentAuthorization:
			return typed
		}
	}
	wrapped := pkgerrors.Wrap(fallback, err, msg)
	if timedOut {
		wrapped = wrapped.WithDetails(map[string]any{"timeout": true})
	}
	return wrapped
}
