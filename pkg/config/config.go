package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LEDGER_DIRECT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	XRPL         XRPLConfig
	Oracle       OracleConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.XRPL.Network.IsValid() {
		return nil, fmt.Errorf("invalid xrpl network %q", cfg.XRPL.Network)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"LEDGER_DIRECT_APP_ENV" default:"dev"`
	Port         string   `envconfig:"LEDGER_DIRECT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"LEDGER_DIRECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LEDGER_DIRECT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"LEDGER_DIRECT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"LEDGER_DIRECT_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"LEDGER_DIRECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEDGER_DIRECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEDGER_DIRECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDGER_DIRECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEDGER_DIRECT_REDIS_URL"`
	Address      string        `envconfig:"LEDGER_DIRECT_REDIS_ADDR"`
	Password     string        `envconfig:"LEDGER_DIRECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEDGER_DIRECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEDGER_DIRECT_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"LEDGER_DIRECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDGER_DIRECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEDGER_DIRECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// XRPLConfig enumerates the recognized gateway settings per network.
type XRPLConfig struct {
	Network enums.Network `envconfig:"LEDGER_DIRECT_XRPL_NETWORK" default:"testnet"`

	MainnetAccount string `envconfig:"LEDGER_DIRECT_XRPL_MAINNET_DESTINATION_ACCOUNT"`
	TestnetAccount string `envconfig:"LEDGER_DIRECT_XRPL_TESTNET_DESTINATION_ACCOUNT"`

	QuoteExpiryMinutes int     `envconfig:"LEDGER_DIRECT_XRPL_QUOTE_EXPIRY_MINUTES" default:"15"`
	PaymentPageTitle   string  `envconfig:"LEDGER_DIRECT_XRPL_PAYMENT_PAGE_TITLE" default:"Pay with XRP"`
	SlippageTolerance  float64 `envconfig:"LEDGER_DIRECT_XRPL_SLIPPAGE_TOLERANCE" default:"0.0015"`

	RLUSDEnabled       bool   `envconfig:"LEDGER_DIRECT_XRPL_RLUSD_ENABLED" default:"false"`
	RLUSDMainnetIssuer string `envconfig:"LEDGER_DIRECT_XRPL_RLUSD_MAINNET_ISSUER" default:"rMxCKbEDwqr76QuheSUMdEGf4B9xJ8m5De"`
	RLUSDTestnetIssuer string `envconfig:"LEDGER_DIRECT_XRPL_RLUSD_TESTNET_ISSUER" default:"rQhWct2fv4Vc4KRjRgMrxa8xTN5sUXZnRT"`

	USDCEnabled       bool   `envconfig:"LEDGER_DIRECT_XRPL_USDC_ENABLED" default:"false"`
	USDCMainnetIssuer string `envconfig:"LEDGER_DIRECT_XRPL_USDC_MAINNET_ISSUER"`
	USDCTestnetIssuer string `envconfig:"LEDGER_DIRECT_XRPL_USDC_TESTNET_ISSUER"`

	TokenEnabled  bool   `envconfig:"LEDGER_DIRECT_XRPL_TOKEN_ENABLED" default:"false"`
	TokenCurrency string `envconfig:"LEDGER_DIRECT_XRPL_TOKEN_CURRENCY"`
	TokenIssuer   string `envconfig:"LEDGER_DIRECT_XRPL_TOKEN_ISSUER"`
}

// DestinationAccount returns the merchant account for the configured network.
func (x XRPLConfig) DestinationAccount() string {
	if x.Network == enums.NetworkMainnet {
		return x.MainnetAccount
	}
	return x.TestnetAccount
}

// QuoteExpiry returns the quote validity window.
func (x XRPLConfig) QuoteExpiry() time.Duration {
	if x.QuoteExpiryMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(x.QuoteExpiryMinutes) * time.Minute
}

// AssetEnabled reports whether quotes may be created for the payment type.
func (x XRPLConfig) AssetEnabled(paymentType enums.PaymentType) bool {
	switch paymentType {
	case enums.PaymentTypeXRP:
		return true
	case enums.PaymentTypeRLUSD:
		return x.RLUSDEnabled
	case enums.PaymentTypeUSDC:
		return x.USDCEnabled
	case enums.PaymentTypeToken:
		return x.TokenEnabled && x.TokenCurrency != "" && x.TokenIssuer != ""
	}
	return false
}

// IssuerFor returns the issuer account for an issued asset on the configured
// network. Empty for native XRP.
func (x XRPLConfig) IssuerFor(paymentType enums.PaymentType) string {
	switch paymentType {
	case enums.PaymentTypeRLUSD:
		if x.Network == enums.NetworkMainnet {
			return x.RLUSDMainnetIssuer
		}
		return x.RLUSDTestnetIssuer
	case enums.PaymentTypeUSDC:
		if x.Network == enums.NetworkMainnet {
			return x.USDCMainnetIssuer
		}
		return x.USDCTestnetIssuer
	case enums.PaymentTypeToken:
		return x.TokenIssuer
	}
	return ""
}

type OracleConfig struct {
	KrakenBaseURL    string        `envconfig:"LEDGER_DIRECT_ORACLE_KRAKEN_BASE_URL" default:"https://api.kraken.com"`
	CoingeckoBaseURL string        `envconfig:"LEDGER_DIRECT_ORACLE_COINGECKO_BASE_URL" default:"https://api.coingecko.com"`
	BinanceBaseURL   string        `envconfig:"LEDGER_DIRECT_ORACLE_BINANCE_BASE_URL" default:"https://api.binance.com"`
	Timeout          time.Duration `envconfig:"LEDGER_DIRECT_ORACLE_TIMEOUT" default:"10s"`

	AllowedDivergence float64 `envconfig:"LEDGER_DIRECT_ORACLE_ALLOWED_DIVERGENCE" default:"0.05"`
}

type SyncConfig struct {
	Interval      time.Duration `envconfig:"LEDGER_DIRECT_SYNC_INTERVAL" default:"1m"`
	LockTTL       time.Duration `envconfig:"LEDGER_DIRECT_SYNC_LOCK_TTL" default:"5m"`
	LedgerTimeout time.Duration `envconfig:"LEDGER_DIRECT_SYNC_LEDGER_TIMEOUT" default:"10s"`
	JSONRPCURL    string        `envconfig:"LEDGER_DIRECT_SYNC_JSONRPC_URL"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEDGER_DIRECT_AUTO_MIGRATE" default:"false"`
}
