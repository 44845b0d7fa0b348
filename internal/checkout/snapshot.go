package checkout

import (
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Snapshot is a read-only view of a flow.
type Snapshot struct {
	State         State        `json:"state"`
	Totals        cart.Totals  `json:"totals"`
	Payment       *PaymentView `json:"payment,omitempty"`
	Error         *ErrorView   `json:"error,omitempty"`
	MissingFields []string     `json:"missingFields,omitempty"`
	Receipt       *Receipt     `json:"receipt,omitempty"`
}

// PaymentView is what a browser needs to mount the payment form.
type PaymentView struct {
	Provider     string    `json:"provider"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

type ErrorView struct {
	Code      pkgerrors.Code `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         f.state,
		Totals:        f.cart.Totals(),
		MissingFields: append([]string(nil), f.missing...),
	}
	if f.session != nil {
		snap.Payment = &PaymentView{
			Provider:     f.session.Provider,
			ClientSecret: f.session.ClientSecret,
			ExpiresAt:    f.session.ExpiresAt,
		}
	}
	if f.lastErr != nil {
		snap.Error = &ErrorView{
			Code:      f.lastErr.Code(),
			Message:   f.lastErr.Message(),
			Retryable: f.lastErr.Retryable(),
		}
	}
	if f.receipt != nil {
		r := *f.receipt
		snap.Receipt = &r
	}
	return snap
}
