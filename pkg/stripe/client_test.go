package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
)

func TestNewClientAcceptsOnlyTestMode(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr error
	}{
		{name: "missing key", cfg: config.StripeConfig{Env: "test"}, wantErr: errAPIKeyRequired},
		{name: "live key in test", cfg: config.StripeConfig{Env: "test", APIKey: "sk_live_123"}, wantErr: errLiveKey},
		{name: "live env", cfg: config.StripeConfig{Env: "live", APIKey: "sk_live_123"}, wantErr: errTestModeOnly},
		{name: "unknown env", cfg: config.StripeConfig{Env: "staging", APIKey: "sk_test_123"}, wantErr: errTestModeOnly},
		{name: "test key", cfg: config.StripeConfig{Env: "test", APIKey: "sk_test_123"}},
		{name: "restricted key defaults to test", cfg: config.StripeConfig{APIKey: " rk_test_123 "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr != nil {
				if err != tc.wantErr {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Environment() != "test" {
				t.Fatalf("unexpected environment %q", client.Environment())
			}
			if client.PaymentIntents() == nil {
				t.Fatal("expected payment intent api")
			}
		})
	}
}

func TestValidPublishableKey(t *testing.T) {
	for key, want := range map[string]bool{
		"":            true,
		"pk_test_abc": true,
		"pk_live_abc": false,
		"sk_test_abc": false,
	} {
		if got := ValidPublishableKey(key); got != want {
			t.Fatalf("ValidPublishableKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.Environment() != "" || c.PaymentIntents() != nil {
		t.Fatal("nil client should expose nothing")
	}
}
