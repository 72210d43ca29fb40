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
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Sequence     SequenceConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sequence.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"TABLEPOS_APP_ENV" required:"true"`
	Port         string   `envconfig:"TABLEPOS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"TABLEPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"TABLEPOS_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"TABLEPOS_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"TABLEPOS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TABLEPOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TABLEPOS_DB_DSN"`
	Driver string `envconfig:"TABLEPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLEPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLEPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLEPOS_DB_USER"`
	LegacyPassword string `envconfig:"TABLEPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLEPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLEPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLEPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLEPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLEPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLEPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLEPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TABLEPOS_REDIS_ADDR"`
	Password     string        `envconfig:"TABLEPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLEPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLEPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLEPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLEPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLEPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLEPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig holds the fallback rates used when neither the request nor
// the tenant provides one. Rates are fractions, e.g. "0.10" for 10%.
type PricingConfig struct {
	DefaultTaxRate     string `envconfig:"TABLEPOS_PRICING_DEFAULT_TAX_RATE" default:"0"`
	DefaultServiceRate string `envconfig:"TABLEPOS_PRICING_DEFAULT_SERVICE_RATE" default:"0"`
}

// TaxRate parses DefaultTaxRate. Load already validated it.
func (p PricingConfig) TaxRate() decimal.Decimal {
	return parseRate(p.DefaultTaxRate)
}

// ServiceChargeRate parses DefaultServiceRate. Load already validated it.
func (p PricingConfig) ServiceChargeRate() decimal.Decimal {
	return parseRate(p.DefaultServiceRate)
}

func (p PricingConfig) validate() error {
	for env, raw := range map[string]string{
		EnvPricingTaxRate:     p.DefaultTaxRate,
		EnvPricingServiceRate: p.DefaultServiceRate,
	} {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1, got %s", env, raw)
		}
	}
	return nil
}

func parseRate(raw string) decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type SequenceConfig struct {
	Backend string `envconfig:"TABLEPOS_SEQUENCE_BACKEND" default:"redis"`
}

func (s SequenceConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case SequenceBackendRedis, SequenceBackendDB:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvSequenceBackend, SequenceBackendRedis, SequenceBackendDB)
	}
}

// UsesDB reports whether order and ticket numbers come from the database.
func (s SequenceConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), SequenceBackendDB)
}

type IdempotencyConfig struct {
	TTL         time.Duration `envconfig:"TABLEPOS_IDEMPOTENCY_TTL" default:"24h"`
	PaymentsTTL time.Duration `envconfig:"TABLEPOS_IDEMPOTENCY_PAYMENTS_TTL" default:"168h"`
}

// RateLimitConfig bounds request volume per tenant and per client IP inside
// a fixed window. A zero limit disables that scope.
type RateLimitConfig struct {
	Window      time.Duration `envconfig:"TABLEPOS_RATE_LIMIT_WINDOW" default:"1m"`
	TenantLimit int           `envconfig:"TABLEPOS_RATE_LIMIT_TENANT" default:"600"`
	IPLimit     int           `envconfig:"TABLEPOS_RATE_LIMIT_IP" default:"300"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TABLEPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TABLEPOS_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"TABLEPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"TABLEPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"TABLEPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	ChannelPrefix  string `envconfig:"TABLEPOS_OUTBOX_CHANNEL_PREFIX" default:"tp.events"`
	// RelayGuardTTL is how long the relay remembers a sent event id.
	RelayGuardTTL time.Duration `envconfig:"TABLEPOS_OUTBOX_RELAY_GUARD_TTL" default:"24h"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"TABLEPOS_CRON_INTERVAL" default:"5m"`
	DraftTTL        time.Duration `envconfig:"TABLEPOS_CRON_DRAFT_TTL" default:"12h"`
	DraftBatchSize  int           `envconfig:"TABLEPOS_CRON_DRAFT_BATCH_SIZE" default:"100"`
	OutboxRetention time.Duration `envconfig:"TABLEPOS_CRON_OUTBOX_RETENTION" default:"720h"`
	OutboxPurgeSize int           `envconfig:"TABLEPOS_CRON_OUTBOX_PURGE_SIZE" default:"500"`
	LockTTL         time.Duration `envconfig:"TABLEPOS_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite && db.DSN == "" {
		db.Driver = DBDriverSQLite
		db.DSN = DefaultSQLiteDSN
		return nil
	}
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
