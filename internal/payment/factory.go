package payment

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/square"
	pkgstripe "github.com/angelmondragon/storefront/pkg/stripe"
)

// NewFromConfig builds the provider selected by configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Provider, error) {
	switch cfg.Payment.ProviderKind() {
	case config.PaymentProviderSimulated:
		return NewSimulated(cfg.Payment.SimulatedDelay, cfg.Payment.SessionTTL), nil
	case config.PaymentProviderStripe:
		if !pkgstripe.ValidPublishableKey(cfg.Payment.PublishableKey) {
			return nil, fmt.Errorf("publishable key must be a stripe test key (pk_test)")
		}
		client, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("stripe client: %w", err)
		}
		return NewStripe(client.PaymentIntents(), cfg.Payment.SessionTTL)
	case config.PaymentProviderSquare:
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, fmt.Errorf("square client: %w", err)
		}
		return NewSquare(client, cfg.Payment.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
	}
}
