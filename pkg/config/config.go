package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	Catalog  CatalogConfig
	Storage  StorageConfig
	Redis    RedisConfig
	DB       DBConfig
	Payment  PaymentConfig
	Stripe   StripeConfig
	Square   SquareConfig
	Checkout CheckoutConfig
	Pricing  PricingConfig
	Admin    AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.SourceKind() {
	case CatalogSourceStatic:
	case CatalogSourceRemote:
		if strings.TrimSpace(c.Catalog.BaseURL) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvCatalogBaseURL, EnvCatalogSource, CatalogSourceRemote)
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}

	switch c.Storage.DriverKind() {
	case StorageDriverMemory:
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis session store", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverSQL:
		if c.DB.DSN == "" && !c.DB.UseSQLite {
			return fmt.Errorf("%s is required for the sql session store", EnvDBDSN)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Payment.ProviderKind() {
	case PaymentProviderSimulated, PaymentProviderStripe, PaymentProviderSquare:
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	if _, err := c.Pricing.Parsed(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CatalogConfig struct {
	Source      string        `envconfig:"STOREFRONT_CATALOG_SOURCE" default:"static"`
	BaseURL     string        `envconfig:"STOREFRONT_CATALOG_BASE_URL"`
	Timeout     time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"5s"`
	MaxAttempts int           `envconfig:"STOREFRONT_CATALOG_MAX_ATTEMPTS" default:"3"`
	// FallbackToStatic substitutes the compiled-in list when the remote source fails.
	FallbackToStatic bool `envconfig:"STOREFRONT_CATALOG_FALLBACK_STATIC" default:"true"`
}

func (c CatalogConfig) SourceKind() string {
	return normalize(c.Source, CatalogSourceStatic)
}

type StorageConfig struct {
	Driver        string        `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"memory"`
	TTL           time.Duration `envconfig:"STOREFRONT_STORAGE_TTL" default:"24h"`
	PurgeInterval time.Duration `envconfig:"STOREFRONT_STORAGE_PURGE_INTERVAL" default:"10m"`
	IdleEvict     time.Duration `envconfig:"STOREFRONT_STORAGE_IDLE_EVICT" default:"30m"`
}

func (s StorageConfig) DriverKind() string {
	return normalize(s.Driver, StorageDriverMemory)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN         string `envconfig:"STOREFRONT_DB_DSN"`
	UseSQLite   bool   `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`
	AutoMigrate bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"200ms"`
}

// Dialect reports the goose dialect matching the configured driver.
func (db DBConfig) Dialect() string {
	if db.UseSQLite {
		return "sqlite3"
	}
	return "postgres"
}

type PaymentConfig struct {
	Provider       string        `envconfig:"STOREFRONT_PAYMENT_PROVIDER" default:"simulated"`
	PublishableKey string        `envconfig:"STOREFRONT_PAYMENT_PUBLISHABLE_KEY"`
	Currency       string        `envconfig:"STOREFRONT_PAYMENT_CURRENCY" default:"usd"`
	SimulatedDelay time.Duration `envconfig:"STOREFRONT_PAYMENT_SIMULATED_DELAY" default:"2s"`
	SessionTTL     time.Duration `envconfig:"STOREFRONT_PAYMENT_SESSION_TTL" default:"30m"`
}

func (p PaymentConfig) ProviderKind() string {
	return normalize(p.Provider, PaymentProviderSimulated)
}

type StripeConfig struct {
	APIKey string `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	Env    string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	return normalize(s.Env, "test")
}

type SquareConfig struct {
	AccessToken string `envconfig:"STOREFRONT_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"STOREFRONT_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"STOREFRONT_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	return normalize(s.Env, "sandbox")
}

type CheckoutConfig struct {
	PrepareTimeout   time.Duration `envconfig:"STOREFRONT_CHECKOUT_PREPARE_TIMEOUT" default:"10s"`
	AuthorizeTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_AUTHORIZE_TIMEOUT" default:"30s"`
}

type PricingConfig struct {
	FreeShippingThreshold string `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"50"`
	ShippingFee           string `envconfig:"STOREFRONT_PRICING_SHIPPING_FEE" default:"9.99"`
	TaxRate               string `envconfig:"STOREFRONT_PRICING_TAX_RATE" default:"0.08"`
}

// ParsedPricing holds the pricing knobs as decimals.
type ParsedPricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

func (p PricingConfig) Parsed() (ParsedPricing, error) {
	threshold, err := decimal.NewFromString(strings.TrimSpace(p.FreeShippingThreshold))
	if err != nil {
		return ParsedPricing{}, fmt.Errorf("parsing %s: %w", EnvPricingThreshold, err)
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(p.ShippingFee))
	if err != nil {
		return ParsedPricing{}, fmt.Errorf("parsing %s: %w", EnvPricingShippingFee, err)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return ParsedPricing{}, fmt.Errorf("parsing %s: %w", EnvPricingTaxRate, err)
	}
	if threshold.IsNegative() || fee.IsNegative() || rate.IsNegative() {
		return ParsedPricing{}, fmt.Errorf("pricing values must be non-negative")
	}
	return ParsedPricing{FreeShippingThreshold: threshold, ShippingFee: fee, TaxRate: rate}, nil
}

type AdminConfig struct {
	APIBaseURL string        `envconfig:"STOREFRONT_ADMIN_API_BASE_URL" default:"http://localhost:5000/api"`
	Timeout    time.Duration `envconfig:"STOREFRONT_ADMIN_API_TIMEOUT" default:"10s"`

	LoginWindow     time.Duration `envconfig:"STOREFRONT_ADMIN_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit    int           `envconfig:"STOREFRONT_ADMIN_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"STOREFRONT_ADMIN_LOGIN_EMAIL_LIMIT" default:"5"`
}

func normalize(raw, fallback string) string {
	v := strings.TrimSpace(strings.ToLower(raw))
	if v == "" {
		return fallback
	}
	return v
}
