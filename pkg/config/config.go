package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Guest        GuestConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHOCO_APP_ENV" required:"true"`
	Port         string `envconfig:"CHOCO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHOCO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHOCO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHOCO_DB_DSN"`
	Driver string `envconfig:"CHOCO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHOCO_DB_HOST"`
	LegacyPort     int    `envconfig:"CHOCO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHOCO_DB_USER"`
	LegacyPassword string `envconfig:"CHOCO_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHOCO_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHOCO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHOCO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHOCO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHOCO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHOCO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHOCO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHOCO_REDIS_ADDR"`
	Password     string        `envconfig:"CHOCO_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHOCO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHOCO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHOCO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHOCO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHOCO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHOCO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the external identity service.
// The storefront never issues tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"CHOCO_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CHOCO_JWT_ISSUER" required:"true"`
}

type GuestConfig struct {
	CookieName string        `envconfig:"CHOCO_GUEST_COOKIE_NAME" default:"choco_guest_id"`
	CookieTTL  time.Duration `envconfig:"CHOCO_GUEST_COOKIE_TTL" default:"720h"`
}

// PricingConfig carries the storefront-wide pricing knobs consumed by the
// pricing engine. Amounts are dollars with two decimal places.
type PricingConfig struct {
	TaxRatePercent        string `envconfig:"CHOCO_PRICING_TAX_RATE_PERCENT" default:"8.25"`
	ShippingCost          string `envconfig:"CHOCO_PRICING_SHIPPING_COST" default:"5.99"`
	FreeShippingThreshold string `envconfig:"CHOCO_PRICING_FREE_SHIPPING_THRESHOLD" default:"50.00"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CHOCO_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHOCO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHOCO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
