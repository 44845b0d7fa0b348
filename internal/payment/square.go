package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/square"
)

const ProviderSquare = "square"

type squarePayments interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	NewIdempotencyKey(prefix string) string
}

// Square has no server-side session object; the session token is a local key.
// Each authorization attempt derives its own idempotency key from the token
// and the attempt reference, so a retry after a decline is a new payment
// while a replay of the same attempt stays idempotent.
type Square struct {
	client squarePayments
	ttl    time.Duration
	now    func() time.Time
}

func NewSquare(client squarePayments, ttl time.Duration) (*Square, error) {
	if client == nil {
		return nil, errors.New("square client required")
	}
	return &Square{client: client, ttl: ttl, now: time.Now}, nil
}

func (s *Square) CreatePaymentSession(ctx context.Context, amount Amount) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodePaymentSession, err, "payment session not created")
	}
	if amount.MinorUnits() <= 0 {
		return Session{}, pkgerrors.New(pkgerrors.CodePaymentSession, "amount must be positive")
	}
	session := Session{
		Provider: ProviderSquare,
		Token:    s.client.NewIdempotencyKey("checkout"),
		Amount:   amount,
	}
	if s.ttl > 0 {
		session.ExpiresAt = s.now().Add(s.ttl)
	}
	return session, nil
}

func (s *Square) Authorize(ctx context.Context, session Session, details Details) error {
	if !session.Valid(s.now()) {
		return pkgerrors.New(pkgerrors.CodePaymentSession, "payment session expired")
	}
	payment, err := s.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    session.Amount.MinorUnits(),
		Currency:       session.Amount.CurrencyCode(),
		SourceID:       details.MethodToken,
		BuyerEmail:     details.Email,
		ReferenceID:    details.Reference,
		IdempotencyKey: attemptKey(session.Token, details.Reference),
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodePaymentAuthorization) || pkgerrors.IsCode(err, pkgerrors.CodePaymentSession) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodePaymentAuthorization, err, "payment not authorized")
	}

	status := ""
	if payment != nil && payment.Status != nil {
		status = *payment.Status
	}
	switch status {
	case "COMPLETED", "APPROVED", "PENDING":
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodePaymentAuthorization, "payment not authorized").
			WithDetails(map[string]any{"status": status})
	}
}

// attemptKey fits Square's 45 character idempotency key limit.
func attemptKey(token, reference string) string {
	if reference == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(token+"|"+reference)).String()
}
