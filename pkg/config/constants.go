package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CatalogSourceStatic = "static"
	CatalogSourceRemote = "remote"

	StorageDriverMemory = "memory"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"

	PaymentProviderSimulated = "simulated"
	PaymentProviderStripe    = "stripe"
	PaymentProviderSquare    = "square"
)

const (
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvPort               = "STOREFRONT_APP_PORT"
	EnvCatalogSource      = "STOREFRONT_CATALOG_SOURCE"
	EnvCatalogBaseURL     = "STOREFRONT_CATALOG_BASE_URL"
	EnvStorageDriver      = "STOREFRONT_STORAGE_DRIVER"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvRedisAddr          = "STOREFRONT_REDIS_ADDR"
	EnvDBDSN              = "STOREFRONT_DB_DSN"
	EnvUseSQLite          = "STOREFRONT_USE_SQLITE"
	EnvPaymentProvider    = "STOREFRONT_PAYMENT_PROVIDER"
	EnvPricingThreshold   = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvPricingShippingFee = "STOREFRONT_PRICING_SHIPPING_FEE"
	EnvPricingTaxRate     = "STOREFRONT_PRICING_TAX_RATE"
	EnvCheckoutPrepare    = "STOREFRONT_CHECKOUT_PREPARE_TIMEOUT"
)
