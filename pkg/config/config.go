package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "REVENUE_APP_ENV"
	EnvPort     = "REVENUE_APP_PORT"
	EnvDBDSN    = "REVENUE_DB_DSN"
	EnvRedisURL = "REVENUE_REDIS_URL"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Payouts      PayoutsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("%s is required", EnvDBDSN)
	}
	if err := cfg.Payouts.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REVENUE_APP_ENV" required:"true"`
	Port         string `envconfig:"REVENUE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REVENUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REVENUE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REVENUE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"REVENUE_DB_DSN"`

	MaxOpenConns    int           `envconfig:"REVENUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REVENUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REVENUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REVENUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REVENUE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REVENUE_REDIS_ADDR"`
	Password     string        `envconfig:"REVENUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"REVENUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REVENUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REVENUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REVENUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REVENUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REVENUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REVENUE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REVENUE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REVENUE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REVENUE_AUTO_MIGRATE" default:"false"`
}

// PayoutsConfig drives the scheduled sweep worker.
type PayoutsConfig struct {
	Destination    string        `envconfig:"REVENUE_PAYOUT_DESTINATION" default:"primary"`
	Currencies     []string      `envconfig:"REVENUE_PAYOUT_CURRENCIES" default:"USD"`
	SweepInterval  time.Duration `envconfig:"REVENUE_PAYOUT_SWEEP_INTERVAL" default:"1h"`
	LockKey        string        `envconfig:"REVENUE_PAYOUT_LOCK_KEY" default:"payout-worker"`
	LockTTL        time.Duration `envconfig:"REVENUE_PAYOUT_LOCK_TTL" default:"55m"`
	ReconcileLimit int           `envconfig:"REVENUE_PAYOUT_RECONCILE_LIMIT" default:"500"`
}

func (p PayoutsConfig) validate() error {
	if len(p.Currencies) == 0 {
		return fmt.Errorf("at least one payout currency is required")
	}
	for _, raw := range p.Currencies {
		if _, err := enums.ParseCurrency(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("payout currencies: %w", err)
		}
	}
	return nil
}

// SweepCurrencies returns the configured currencies as typed values.
func (p PayoutsConfig) SweepCurrencies() []enums.Currency {
	out := make([]enums.Currency, 0, len(p.Currencies))
	for _, raw := range p.Currencies {
		if currency, err := enums.ParseCurrency(strings.TrimSpace(raw)); err == nil {
			out = append(out, currency)
		}
	}
	return out
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REVENUE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"REVENUE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REVENUE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LedgerTopic  string `envconfig:"REVENUE_PUBSUB_LEDGER_TOPIC" default:"revenue-ledger-events"`
	PayoutsTopic string `envconfig:"REVENUE_PUBSUB_PAYOUTS_TOPIC" default:"revenue-payout-events"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"REVENUE_BIGQUERY_DATASET" default:"revenue"`
	SnapshotsTable string `envconfig:"REVENUE_BIGQUERY_SNAPSHOTS_TABLE" default:"revenue_snapshots"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REVENUE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REVENUE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REVENUE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
