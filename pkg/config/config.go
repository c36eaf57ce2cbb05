package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Checkout CheckoutConfig
	Esewa    EsewaConfig
	Features FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"OMEGASTORE_APP_ENV" required:"true"`
	Port           string   `envconfig:"OMEGASTORE_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"OMEGASTORE_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"OMEGASTORE_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"OMEGASTORE_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OMEGASTORE_DB_DSN"`
	Driver string `envconfig:"OMEGASTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OMEGASTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"OMEGASTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OMEGASTORE_DB_USER"`
	LegacyPassword string `envconfig:"OMEGASTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"OMEGASTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"OMEGASTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OMEGASTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OMEGASTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OMEGASTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OMEGASTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OMEGASTORE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"OMEGASTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"OMEGASTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OMEGASTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OMEGASTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OMEGASTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OMEGASTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OMEGASTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"OMEGASTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"OMEGASTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"OMEGASTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"OMEGASTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OMEGASTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OMEGASTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OMEGASTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OMEGASTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OMEGASTORE_ARGON_KEY_LEN" default:"32"`
}

// CheckoutConfig carries order-level pricing knobs.
type CheckoutConfig struct {
	DeliveryCharge string `envconfig:"OMEGASTORE_DELIVERY_CHARGE" default:"150"`
	Currency       string `envconfig:"OMEGASTORE_CURRENCY" default:"NPR"`
}

// DeliveryChargeAmount parses the configured flat delivery charge.
func (c CheckoutConfig) DeliveryChargeAmount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(c.DeliveryCharge)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid delivery charge %q: %w", c.DeliveryCharge, err)
	}
	return amount, nil
}

func (c CheckoutConfig) validate() error {
	amount, err := decimal.NewFromString(c.DeliveryCharge)
	if err != nil {
		return fmt.Errorf("invalid delivery charge %q: %w", c.DeliveryCharge, err)
	}
	if amount.IsNegative() {
		return fmt.Errorf("delivery charge must be non-negative")
	}
	return nil
}

// EsewaConfig holds the shared-secret signing material and redirect targets
// for the eSewa ePay integration. Injected into the gateway adapter at
// startup so business logic never reads the environment directly.
type EsewaConfig struct {
	SecretKey   string `envconfig:"OMEGASTORE_ESEWA_SECRET_KEY" required:"true"`
	ProductCode string `envconfig:"OMEGASTORE_ESEWA_PRODUCT_CODE" default:"EPAYTEST"`
	PaymentURL  string `envconfig:"OMEGASTORE_ESEWA_PAYMENT_URL" default:"https://rc-epay.esewa.com.np/api/epay/main/v2/form"`
	SuccessURL  string `envconfig:"OMEGASTORE_ESEWA_SUCCESS_URL" required:"true"`
	FailureURL  string `envconfig:"OMEGASTORE_ESEWA_FAILURE_URL" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OMEGASTORE_AUTO_MIGRATE" default:"false"`
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
