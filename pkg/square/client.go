package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	sandboxEnv     = "sandbox"
	sandboxBaseURL = "https://connect.squareupsandbox.com"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLocationRequired    = errors.New("square location id is required")
	errSandboxOnly         = errors.New("square is only supported in sandbox mode (STOREFRONT_SQUARE_ENV=sandbox)")
	errLoggerRequired      = errors.New("square logger is required")
)

// Client takes sandbox card payments for checkout sessions.
type Client struct {
	sdk        *sqclient.Client
	locationID string
	logger     *logger.Logger
}

// NewClient validates the sandbox credentials and builds the SDK client.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if cfg.Environment() != sandboxEnv {
		return nil, errSandboxOnly
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	locationID := strings.TrimSpace(cfg.LocationID)
	if locationID == "" {
		return nil, errLocationRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(sandboxBaseURL),
		sqoption.WithToken(accessToken),
	)

	logg.Info(logg.WithComponent(ctx, "square"), "square sandbox client initialized")
	return &Client{
		sdk:        sdk,
		locationID: locationID,
		logger:     logg,
	}, nil
}

// Environment reports the Square environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return sandboxEnv
}

// LocationID is the location payments are taken for.
func (c *Client) LocationID() string {
	if c == nil {
		return ""
	}
	return c.locationID
}

// NewIdempotencyKey returns a unique key; checkout reuses it across retries of
// the same payment session.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "sf"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreatePayment charges the card nonce for the session amount.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	if params.LocationID == "" {
		params.LocationID = c.locationID
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = c.NewIdempotencyKey("payment")
	}

	ctx = c.logger.WithFields(ctx, map[string]any{
		"operation":    "create_payment",
		"location_id":  params.LocationID,
		"reference_id": params.ReferenceID,
		"amount":       params.AmountCents,
		"source_id":    redact(params.SourceID),
	})
	c.logger.Debug(ctx, "square request")

	resp, err := c.sdk.Payments.Create(ctx, params.toSquareRequest())
	if err != nil {
		mapped := mapSquareError(err)
		c.logger.Error(ctx, "square create payment failed", mapped)
		return nil, mapped
	}

	payment := resp.GetPayment()
	c.logger.Info(c.logger.WithFields(ctx, map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	}), "square payment created")
	return payment, nil
}

func redact(value string) string {
	if len(value) <= 4 {
		return "[REDACTED]"
	}
	return "[REDACTED]" + value[len(value)-4:]
}

// mapSquareError converts SDK failures into checkout error codes: card
// problems are authorization failures, a reused key means the payment session
// is spent, and everything else is an unavailable dependency.
func mapSquareError(err error) error {
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "square unavailable")
	}

	code := codeForStatus(apiErr.StatusCode)
	var declineCode string
	for _, sqErr := range extractSquareErrors(apiErr) {
		if sqErr == nil {
			continue
		}
		if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
			code = pkgerrors.CodePaymentSession
			break
		}
		if sqErr.Category == sq.ErrorCategoryPaymentMethodError {
			code = pkgerrors.CodePaymentAuthorization
			declineCode = string(sqErr.Code)
			break
		}
		if sqErr.Category == sq.ErrorCategoryAuthenticationError {
			code = pkgerrors.CodeDependency
			break
		}
	}

	wrapped := pkgerrors.Wrap(code, err, messageFor(code))
	details := map[string]any{"status": apiErr.StatusCode}
	if declineCode != "" {
		details["decline_code"] = declineCode
	}
	return wrapped.WithDetails(details)
}

func messageFor(code pkgerrors.Code) string {
	switch code {
	case pkgerrors.CodePaymentAuthorization:
		return "card was declined"
	case pkgerrors.CodePaymentSession:
		return "payment session already used"
	default:
		return "square request failed"
	}
}

func extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusPaymentRequired, http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodePaymentAuthorization
	case http.StatusConflict:
		return pkgerrors.CodePaymentSession
	default:
		return pkgerrors.CodeDependency
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
