package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type fakeIntents struct {
	created    *stripe.PaymentIntentParams
	confirmed  *stripe.PaymentIntentConfirmParams
	status     stripe.PaymentIntentStatus
	createErr  error
	confirmErr error
}

func (f *fakeIntents) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
}

func (f *fakeIntents) Confirm(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	f.confirmed = params
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &stripe.PaymentIntent{ID: id, Status: f.status}, nil
}

func TestStripeCreatesIntentInCents(t *testing.T) {
	api := &fakeIntents{}
	p, err := NewStripe(api, 30*time.Minute)
	require.NoError(t, err)

	session, err := p.CreatePaymentSession(context.Background(), usd("36.99"))
	require.NoError(t, err)
	require.Equal(t, "pi_123", session.Token)
	require.Equal(t, "pi_123_secret_abc", session.ClientSecret)
	require.EqualValues(t, 3699, *api.created.Amount)
	require.Equal(t, "usd", *api.created.Currency)
}

func TestStripeRejectsZeroAmount(t *testing.T) {
	p, _ := NewStripe(&fakeIntents{}, 0)
	_, err := p.CreatePaymentSession(context.Background(), usd("0"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentSession))
}

func TestStripeCreateFailureIsSessionError(t *testing.T) {
	p, _ := NewStripe(&fakeIntents{createErr: &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "boom"}}, 0)
	_, err := p.CreatePaymentSession(context.Background(), usd("10"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentSession), "got %v", err)
}

func TestStripeAuthorize(t *testing.T) {
	ctx := context.Background()
	session := Session{Provider: ProviderStripe, Token: "pi_123"}

	api := &fakeIntents{status: stripe.PaymentIntentStatusSucceeded}
	p, _ := NewStripe(api, 0)
	require.NoError(t, p.Authorize(ctx, session, Details{MethodToken: "pm_card_visa", Email: "a@b.co"}))
	require.Equal(t, "pm_card_visa", *api.confirmed.PaymentMethod)
	require.Equal(t, "a@b.co", *api.confirmed.ReceiptEmail)

	api.status = stripe.PaymentIntentStatusRequiresPaymentMethod
	err := p.Authorize(ctx, session, Details{MethodToken: "pm_card_visa"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAuthorization))

	api.confirmErr = &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined}
	err = p.Authorize(ctx, session, Details{MethodToken: "pm_card_chargeDeclined"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAuthorization))

	err = p.Authorize(ctx, Session{}, Details{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentSession))
}
