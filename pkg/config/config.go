package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment variable names, spelled out so tests and deploy tooling can
// reference them without duplicating strings.
const (
	EnvPrefix = "crmstore"

	EnvAppEnv   = "CRMSTORE_APP_ENV"
	EnvPort     = "CRMSTORE_APP_PORT"
	EnvDBDSN    = "CRMSTORE_DB_DSN"
	EnvDBHost   = "CRMSTORE_DB_HOST"
	EnvDBUser   = "CRMSTORE_DB_USER"
	EnvDBName   = "CRMSTORE_DB_NAME"
	EnvRedisURL = "CRMSTORE_REDIS_URL"

	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"CRMSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"CRMSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRMSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRMSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRMSTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CRMSTORE_DB_DSN"`
	Driver string `envconfig:"CRMSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRMSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CRMSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRMSTORE_DB_USER"`
	LegacyPassword string `envconfig:"CRMSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRMSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRMSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRMSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRMSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRMSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRMSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRMSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRMSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"CRMSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRMSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRMSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRMSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRMSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRMSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRMSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRMSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRMSTORE_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"CRMSTORE_IDEMPOTENCY_TTL" default:"24h"`
}

type RateLimitConfig struct {
	WriteWindow  time.Duration `envconfig:"CRMSTORE_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit int           `envconfig:"CRMSTORE_RATE_LIMIT_WRITE_IP_LIMIT" default:"120"`
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
