package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	GroupBuy GroupBuyConfig
	Sweeper  SweeperConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Flags    FeatureFlagsConfig
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
	Env          string `envconfig:"GROUPBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"GROUPBUY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GROUPBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROUPBUY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GROUPBUY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GROUPBUY_DB_DSN"`
	Driver string `envconfig:"GROUPBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GROUPBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"GROUPBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROUPBUY_DB_USER"`
	LegacyPassword string `envconfig:"GROUPBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROUPBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROUPBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROUPBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROUPBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROUPBUY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROUPBUY_REDIS_ADDR"`
	Password     string        `envconfig:"GROUPBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROUPBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROUPBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROUPBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROUPBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GROUPBUY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GROUPBUY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GROUPBUY_JWT_EXPIRATION_MINUTES" required:"true"`
}

// GroupBuyConfig tunes the aggregation engine itself.
type GroupBuyConfig struct {
	MutationLockTTL time.Duration `envconfig:"GROUPBUY_MUTATION_LOCK_TTL" default:"10s"`
	MinDeadlineLead time.Duration `envconfig:"GROUPBUY_MIN_DEADLINE_LEAD" default:"5m"`
	MaxTierCount    int           `envconfig:"GROUPBUY_MAX_TIER_COUNT" default:"10"`
}

type SweeperConfig struct {
	Interval time.Duration `envconfig:"GROUPBUY_SWEEP_INTERVAL" default:"30s"`
	LockTTL  time.Duration `envconfig:"GROUPBUY_SWEEP_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROUPBUY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GROUPBUY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GROUPBUY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GROUPBUY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"GROUPBUY_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"GROUPBUY_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GROUPBUY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GROUPBUY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GROUPBUY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
