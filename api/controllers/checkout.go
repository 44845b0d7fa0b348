package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/payment"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CheckoutFlows holds the checkout state machine of each browsing session.
type CheckoutFlows interface {
	GetOrCreate(ctx context.Context, sessionID string) (*checkout.Flow, error)
	Get(sessionID string) (*checkout.Flow, bool)
}

// submitRequest carries the checkout form. Required fields are checked by the
// flow so the response can list every missing field.
type submitRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	PaymentMethod string `json:"paymentMethod"`
}

func (r submitRequest) customer() checkout.CustomerInfo {
	return checkout.CustomerInfo{
		Email:      validators.SanitizeString(r.Email, 254),
		Name:       validators.SanitizeText(r.Name, 120),
		Address:    validators.SanitizeText(r.Address, 200),
		City:       validators.SanitizeText(r.City, 120),
		PostalCode: validators.SanitizeString(r.PostalCode, 20),
		Country:    validators.SanitizeText(r.Country, 80),
	}
}

func sessionFlow(r *http.Request, flows CheckoutFlows) (*checkout.Flow, error) {
	if flows == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable")
	}
	sid := middleware.SessionIDFromContext(r.Context())
	if sid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id missing")
	}
	return flows.GetOrCreate(r.Context(), sid)
}

// writeFlowResult answers with the snapshot, or with the error envelope whose
// details carry the snapshot so the client can render the current state.
func writeFlowResult(w http.ResponseWriter, r *http.Request, logg *logger.Logger, snap checkout.Snapshot, err error) {
	if err == nil {
		responses.WriteSuccess(w, snap)
		return
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	details := map[string]any{"checkout": snap}
	if prior, ok := typed.Details().(map[string]any); ok {
		for k, v := range prior {
			details[k] = v
		}
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(typed.Code(), err, typed.Message()).WithDetails(details))
}

func CheckoutFetch(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := sessionFlow(r, flows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow.Snapshot())
	}
}

// CheckoutOpen enters checkout. An empty cart answers with the redirect_to_cart state.
func CheckoutOpen(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := sessionFlow(r, flows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow.Open(r.Context()))
	}
}

func CheckoutPreparePayment(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := sessionFlow(r, flows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := flow.PreparePayment(r.Context())
		writeFlowResult(w, r, logg, snap, err)
	}
}

func CheckoutSubmit(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := sessionFlow(r, flows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := flow.Submit(r.Context(), payload.customer(), payment.Details{
			MethodToken: validators.SanitizeString(payload.PaymentMethod, 255),
		})
		writeFlowResult(w, r, logg, snap, err)
	}
}

func CheckoutRetry(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := sessionFlow(r, flows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := flow.Retry(r.Context())
		writeFlowResult(w, r, logg, snap, err)
	}
}

// CheckoutCancel abandons the session's checkout attempt, if any.
func CheckoutCancel(flows CheckoutFlows, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flows == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		flow, ok := flows.Get(middleware.SessionIDFromContext(r.Context()))
		if !ok {
			responses.WriteSuccess(w, map[string]string{"state": checkout.StateIdle.String()})
			return
		}
		responses.WriteSuccess(w, flow.Cancel(r.Context()))
	}
}
