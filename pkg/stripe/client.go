package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const testEnv = "test"

var (
	errAPIKeyRequired = errors.New("stripe api key is required")
	errTestModeOnly   = errors.New("stripe is only supported in test mode (STOREFRONT_STRIPE_ENV=test)")
	errLiveKey        = errors.New("stripe key must be a test key (sk_test/rk_test)")
)

// Client holds validated test-mode Stripe credentials. The payment intent
// helpers use the package-level key configured here.
type Client struct {
	environment string
}

// NewClient configures Stripe with a test secret key. Live keys and the live
// environment are rejected.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Environment() != testEnv {
		return nil, errTestModeOnly
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if !isTestKey(apiKey) {
		return nil, errLiveKey
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(logg.WithComponent(ctx, "stripe"), "stripe test mode client initialized")
	}
	return &Client{environment: testEnv}, nil
}

// Environment reports the Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// PaymentIntents returns the payment intent operations bound to this client.
func (c *Client) PaymentIntents() PaymentIntentAPI {
	if c == nil {
		return nil
	}
	return paymentIntents{}
}

// ValidPublishableKey reports whether key may be handed to the browser
// alongside a test secret key. Blank keys are allowed.
func ValidPublishableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || strings.HasPrefix(key, "pk_test")
}

func isTestKey(key string) bool {
	return strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test")
}
