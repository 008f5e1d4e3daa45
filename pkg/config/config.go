package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Payment       PaymentConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUQ_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOUQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUQ_LOG_WARN_STACK" default:"false"`
	BackendURL   string `envconfig:"SOUQ_BACKEND_URL" required:"true"`
	FrontendURL  string `envconfig:"SOUQ_FRONTEND_URL" required:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOUQ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"SOUQ_DB_DSN"`

	Host     string `envconfig:"SOUQ_DB_HOST"`
	Port     int    `envconfig:"SOUQ_DB_PORT" default:"5432"`
	User     string `envconfig:"SOUQ_DB_USER"`
	Password string `envconfig:"SOUQ_DB_PASSWORD"`
	Name     string `envconfig:"SOUQ_DB_NAME"`
	SSLMode  string `envconfig:"SOUQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"SOUQ_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUQ_REDIS_URL"`
	Address      string        `envconfig:"SOUQ_REDIS_ADDR"`
	Password     string        `envconfig:"SOUQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOUQ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOUQ_JWT_ISSUER" default:"souq"`
	ExpirationMinutes int    `envconfig:"SOUQ_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOUQ_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOUQ_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOUQ_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOUQ_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOUQ_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow          time.Duration `envconfig:"SOUQ_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentifierLimit int           `envconfig:"SOUQ_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"5"`
	LoginIPLimit         int           `envconfig:"SOUQ_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOUQ_AUTO_MIGRATE" default:"false"`
}

// PaymentConfig configures the hosted invoicing gateway.
type PaymentConfig struct {
	BaseURL           string        `envconfig:"SOUQ_PAYMENT_BASE_URL" default:"https://apitest.myfatoorah.com"`
	APIToken          string        `envconfig:"SOUQ_PAYMENT_API_TOKEN"`
	Timeout           time.Duration `envconfig:"SOUQ_PAYMENT_TIMEOUT" default:"20s"`
	Currency          string        `envconfig:"SOUQ_PAYMENT_CURRENCY" default:"KWD"`
	MobileCountryCode string        `envconfig:"SOUQ_PAYMENT_MOBILE_COUNTRY_CODE" default:"+965"`
	Language          string        `envconfig:"SOUQ_PAYMENT_LANGUAGE" default:"en"`
	SuccessRedirect   string        `envconfig:"SOUQ_PAYMENT_SUCCESS_REDIRECT_URL"`
	ErrorRedirect     string        `envconfig:"SOUQ_PAYMENT_ERROR_REDIRECT_URL"`
	CallbackTTL       time.Duration `envconfig:"SOUQ_PAYMENT_CALLBACK_DEDUPE_TTL" default:"10m"`
}

func (p PaymentConfig) validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentTimeout)
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		return fmt.Errorf("%s is required", EnvPaymentBaseURL)
	}
	return nil
}

// CheckoutConfig tunes the pending-order saga.
type CheckoutConfig struct {
	StalePendingTTL time.Duration `envconfig:"SOUQ_CHECKOUT_STALE_PENDING_TTL" default:"30m"`
	SweepBatchSize  int           `envconfig:"SOUQ_CHECKOUT_SWEEP_BATCH_SIZE" default:"100"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SOUQ_CRON_INTERVAL" default:"5m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SOUQ_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"SOUQ_PUBSUB_ORDERS_TOPIC" default:"souq-order-events"`
	OrdersSubscription string `envconfig:"SOUQ_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SOUQ_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOUQ_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOUQ_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"SOUQ_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// PaymentLandingURLs returns where customers land after a payment attempt.
// Unset redirects fall back to <frontend>/order-success and <frontend>/payment-error.
func (c Config) PaymentLandingURLs() (success, failure string) {
	base := strings.TrimRight(c.App.FrontendURL, "/")
	success = strings.TrimSpace(c.Payment.SuccessRedirect)
	if success == "" {
		success = base + "/order-success"
	}
	failure = strings.TrimSpace(c.Payment.ErrorRedirect)
	if failure == "" {
		failure = base + "/payment-error"
	}
	return success, failure
}

// PaymentCallbackURLs returns the backend endpoints the gateway redirects to.
func (c Config) PaymentCallbackURLs() (success, failure string) {
	base := strings.TrimRight(c.App.BackendURL, "/")
	return base + "/payment-success", base + "/payment-error"
}
