package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	ProviderSimulated = "simulated"

	// DeclineToken is always declined by the simulated provider.
	DeclineToken = "tok_chargeDeclined"
	// DefaultToken is accepted by the simulated provider.
	DefaultToken = "tok_visa"
)

// Simulated is a test-mode provider that waits Delay before answering.
type Simulated struct {
	Delay time.Duration
	TTL   time.Duration
	now   func() time.Time
}

func NewSimulated(delay, ttl time.Duration) *Simulated {
	return &Simulated{Delay: delay, TTL: ttl, now: time.Now}
}

func (s *Simulated) CreatePaymentSession(ctx context.Context, amount Amount) (Session, error) {
	if amount.Value.IsNegative() {
		return Session{}, pkgerrors.New(pkgerrors.CodePaymentSession, "amount must not be negative")
	}
	if err := s.wait(ctx); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodePaymentSession, err, "payment session not created")
	}

	token := "pi_sim_" + uuid.NewString()
	session := Session{
		Provider:     ProviderSimulated,
		Token:        token,
		ClientSecret: token + "_secret",
		Amount:       amount,
	}
	if s.TTL > 0 {
		session.ExpiresAt = s.clock().Add(s.TTL)
	}
	return session, nil
}

func (s *Simulated) Authorize(ctx context.Context, session Session, details Details) error {
	if !session.Valid(s.clock()) {
		return pkgerrors.New(pkgerrors.CodePaymentSession, "payment session expired")
	}
	if err := s.wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePaymentAuthorization, err, "payment not authorized")
	}
	if details.MethodToken == DeclineToken {
		return pkgerrors.New(pkgerrors.CodePaymentAuthorization, "card declined").
			WithDetails(map[string]any{"decline_code": "generic_decline"})
	}
	return nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulated) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
