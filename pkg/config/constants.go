package config

// EnvPrefix is passed to envconfig; variable names carry the full GROUPBUY_
// prefix on their tags, so the process prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "GROUPBUY_APP_ENV"
	EnvPort   = "GROUPBUY_APP_PORT"
	EnvDBDSN  = "GROUPBUY_DB_DSN"
	EnvDBHost = "GROUPBUY_DB_HOST"
	EnvDBUser = "GROUPBUY_DB_USER"
	EnvDBName = "GROUPBUY_DB_NAME"

	EnvRedisURL  = "GROUPBUY_REDIS_URL"
	EnvJWTSecret = "GROUPBUY_JWT_SECRET"
	EnvJWTIssuer = "GROUPBUY_JWT_ISSUER"
	EnvJWTExpMin = "GROUPBUY_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID     = "GROUPBUY_GCP_PROJECT_ID"
	EnvPubSubDomainTop  = "GROUPBUY_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub  = "GROUPBUY_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvSweepInterval    = "GROUPBUY_SWEEP_INTERVAL"
	EnvMutationLockTTL  = "GROUPBUY_MUTATION_LOCK_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
