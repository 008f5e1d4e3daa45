package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "SOUQ_APP_ENV"
	EnvPort        = "SOUQ_APP_PORT"
	EnvBackendURL  = "SOUQ_BACKEND_URL"
	EnvFrontendURL = "SOUQ_FRONTEND_URL"

	EnvDBDSN  = "SOUQ_DB_DSN"
	EnvDBHost = "SOUQ_DB_HOST"
	EnvDBUser = "SOUQ_DB_USER"
	EnvDBName = "SOUQ_DB_NAME"

	EnvRedisURL = "SOUQ_REDIS_URL"

	EnvJWTSecret  = "SOUQ_JWT_SECRET"
	EnvJWTIssuer  = "SOUQ_JWT_ISSUER"
	EnvJWTExpMins = "SOUQ_JWT_EXPIRATION_MINUTES"

	EnvPaymentBaseURL  = "SOUQ_PAYMENT_BASE_URL"
	EnvPaymentAPIToken = "SOUQ_PAYMENT_API_TOKEN"
	EnvPaymentTimeout  = "SOUQ_PAYMENT_TIMEOUT"

	EnvStalePendingTTL = "SOUQ_CHECKOUT_STALE_PENDING_TTL"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
