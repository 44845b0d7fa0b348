package payment

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	pkgstripe "github.com/angelmondragon/storefront/pkg/stripe"
)

const ProviderStripe = "stripe"

// Stripe drives a PaymentIntent: the session is the intent, authorization
// confirms it with the customer's payment method.
type Stripe struct {
	api pkgstripe.PaymentIntentAPI
	ttl time.Duration
	now func() time.Time
}

func NewStripe(api pkgstripe.PaymentIntentAPI, ttl time.Duration) (*Stripe, error) {
	if api == nil {
		return nil, errors.New("stripe payment intent api required")
	}
	return &Stripe{api: api, ttl: ttl, now: time.Now}, nil
}

func (s *Stripe) CreatePaymentSession(ctx context.Context, amount Amount) (Session, error) {
	cents := amount.MinorUnits()
	if cents <= 0 {
		return Session{}, pkgerrors.New(pkgerrors.CodePaymentSession, "amount must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(cents),
		Currency:           stripe.String(amount.CurrencyCode()),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	intent, err := s.api.Create(ctx, params)
	if err != nil {
		return Session{}, mapStripeError(err, pkgerrors.CodePaymentSession, "payment session not created")
	}

	session := Session{
		Provider:     ProviderStripe,
		Token:        intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
	}
	if s.ttl > 0 {
		session.ExpiresAt = s.now().Add(s.ttl)
	}
	return session, nil
}

func (s *Stripe) Authorize(ctx context.Context, session Session, details Details) error {
	if session.Token == "" {
		return pkgerrors.New(pkgerrors.CodePaymentSession, "payment session missing")
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(details.MethodToken),
	}
	if details.Email != "" {
		params.ReceiptEmail = stripe.String(details.Email)
	}
	intent, err := s.api.Confirm(ctx, session.Token, params)
	if err != nil {
		return mapStripeError(err, pkgerrors.CodePaymentAuthorization, "payment not authorized")
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture, stripe.PaymentIntentStatusProcessing:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodePaymentAuthorization, "payment not authorized").
			WithDetails(map[string]any{"status": string(intent.Status)})
	}
}

func mapStripeError(err error, fallback pkgerrors.Code, msg string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		details := map[string]any{"type": string(stripeErr.Type)}
		if stripeErr.Code != "" {
			details["code"] = string(stripeErr.Code)
		}
		if stripeErr.Type == stripe.ErrorTypeCard {
			return pkgerrors.Wrap(pkgerrors.CodePaymentAuthorization, err, "card declined").WithDetails(details)
		}
		return pkgerrors.Wrap(fallback, err, msg).WithDetails(details)
	}
	return pkgerrors.Wrap(fallback, err, msg)
}
