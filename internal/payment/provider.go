package payment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider is the payment collaborator driven by checkout.
type Provider interface {
	// CreatePaymentSession opens a payment attempt for amount.
	CreatePaymentSession(ctx context.Context, amount Amount) (Session, error)
	// Authorize charges the session using the customer's payment method.
	Authorize(ctx context.Context, session Session, details Details) error
}

// Amount is a decimal value in a currency.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// MinorUnits converts the amount to cents, rounding half away from zero.
func (a Amount) MinorUnits() int64 {
	return a.Value.Shift(2).Round(0).IntPart()
}

func (a Amount) CurrencyCode() string {
	c := strings.ToLower(strings.TrimSpace(a.Currency))
	if c == "" {
		return "usd"
	}
	return c
}

// Session is an opaque handle for one payment attempt.
type Session struct {
	Provider     string    `json:"provider"`
	Token        string    `json:"token"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	Amount       Amount    `json:"amount"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Valid reports whether the session has a token that has not expired at now.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Details carries the customer's payment method reference (a Stripe payment
// method id, a Square source id, or a simulated test token).
type Details struct {
	MethodToken string `json:"methodToken"`
	Email       string `json:"email,omitempty"`
	Reference   string `json:"reference,omitempty"`
}
