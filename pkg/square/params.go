package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const defaultNote = "storefront order"

// PaymentCreateParams is one checkout charge.
type PaymentCreateParams struct {
	AmountCents    int64
	Currency       string
	LocationID     string
	SourceID       string
	BuyerEmail     string
	IdempotencyKey string
	ReferenceID    string
}

// Validate rejects charges Square would refuse before any network call.
func (p PaymentCreateParams) Validate() error {
	var missing []string
	if p.AmountCents <= 0 {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(p.SourceID) == "" {
		missing = append(missing, "source_id")
	}
	if strings.TrimSpace(p.LocationID) == "" {
		missing = append(missing, "location_id")
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodePaymentAuthorization, "payment details incomplete").
		WithDetails(map[string]any{"missing": missing})
}

func (p PaymentCreateParams) toSquareRequest() *sq.CreatePaymentRequest {
	currency := sq.Currency(strings.ToUpper(strings.TrimSpace(p.Currency)))
	if currency == "" {
		currency = sq.Currency("USD")
	}
	amount := p.AmountCents
	req := &sq.CreatePaymentRequest{
		IdempotencyKey:    p.IdempotencyKey,
		SourceID:          strings.TrimSpace(p.SourceID),
		LocationID:        optional(p.LocationID),
		AmountMoney:       &sq.Money{Amount: &amount, Currency: &currency},
		Note:              optional(defaultNote),
		BuyerEmailAddress: optional(p.BuyerEmail),
		ReferenceID:       optional(p.ReferenceID),
		Autocomplete:      boolPtr(true),
	}
	return req
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func boolPtr(v bool) *bool {
	return &v
}
