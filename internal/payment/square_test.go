package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/square"
)

type fakeSquare struct {
	calls  []square.PaymentCreateParams
	status string
	err    error
}

func (f *fakeSquare) NewIdempotencyKey(prefix string) string { return prefix + "-key" }

func (f *fakeSquare) CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	return &sq.Payment{Status: &status}, nil
}

func TestSquareSessionIsLocalIdempotencyKey(t *testing.T) {
	client := &fakeSquare{status: "COMPLETED"}
	p, err := NewSquare(client, time.Hour)
	require.NoError(t, err)

	session, err := p.CreatePaymentSession(context.Background(), usd("36.99"))
	require.NoError(t, err)
	require.Equal(t, "checkout-key", session.Token)
	require.Empty(t, client.calls, "no remote call until authorization")

	require.NoError(t, p.Authorize(context.Background(), session, Details{MethodToken: "cnon:card-nonce-ok", Reference: "order-1"}))
	require.Len(t, client.calls, 1)
	require.EqualValues(t, 3699, client.calls[0].AmountCents)
	require.Equal(t, attemptKey("checkout-key", "order-1"), client.calls[0].IdempotencyKey)
	require.LessOrEqual(t, len(client.calls[0].IdempotencyKey), 45)
	require.Equal(t, "cnon:card-nonce-ok", client.calls[0].SourceID)
}

func TestSquareAuthorizeFailures(t *testing.T) {
	ctx := context.Background()
	session := Session{Provider: ProviderSquare, Token: "k", Amount: usd("10")}

	p, _ := NewSquare(&fakeSquare{status: "FAILED"}, 0)
	require.True(t, pkgerrors.IsCode(p.Authorize(ctx, session, Details{}), pkgerrors.CodePaymentAuthorization))

	p, _ = NewSquare(&fakeSquare{err: errors.New("network down")}, 0)
	require.True(t, pkgerrors.IsCode(p.Authorize(ctx, session, Details{}), pkgerrors.CodePaymentAuthorization))

	reused := pkgerrors.New(pkgerrors.CodePaymentSession, "payment session already used")
	p, _ = NewSquare(&fakeSquare{err: reused}, 0)
	require.ErrorIs(t, p.Authorize(ctx, session, Details{}), reused)

	p, _ = NewSquare(&fakeSquare{status: "COMPLETED"}, 0)
	require.True(t, pkgerrors.IsCode(p.Authorize(ctx, Session{}, Details{}), pkgerrors.CodePaymentSession))
}

func TestSquareRetryAfterDeclineUsesFreshKey(t *testing.T) {
	ctx := context.Background()
	decline := pkgerrors.New(pkgerrors.CodePaymentAuthorization, "card was declined")
	client := &fakeSquare{status: "COMPLETED", err: decline}
	p, err := NewSquare(client, time.Hour)
	require.NoError(t, err)

	session, err := p.CreatePaymentSession(ctx, usd("10"))
	require.NoError(t, err)

	err = p.Authorize(ctx, session, Details{MethodToken: "cnon:card-nonce-declined", Reference: "attempt-1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAuthorization))

	client.err = nil
	require.NoError(t, p.Authorize(ctx, session, Details{MethodToken: "cnon:card-nonce-ok", Reference: "attempt-2"}))

	require.Len(t, client.calls, 2)
	require.NotEqual(t, client.calls[0].IdempotencyKey, client.calls[1].IdempotencyKey)
	require.Equal(t, attemptKey(session.Token, "attempt-2"), client.calls[1].IdempotencyKey, "same attempt replays the same key")
}
