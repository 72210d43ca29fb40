package config

const EnvPrefix = "TABLEPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:tablepos.db?cache=shared&_fk=1"

	SequenceBackendRedis = "redis"
	SequenceBackendDB    = "db"
)

const (
	EnvAppEnv   = "TABLEPOS_APP_ENV"
	EnvPort     = "TABLEPOS_APP_PORT"
	EnvLogLevel = "TABLEPOS_LOG_LEVEL"

	EnvDBDSN      = "TABLEPOS_DB_DSN"
	EnvDBDriver   = "TABLEPOS_DB_DRIVER"
	EnvDBHost     = "TABLEPOS_DB_HOST"
	EnvDBUser     = "TABLEPOS_DB_USER"
	EnvDBName     = "TABLEPOS_DB_NAME"
	EnvDBPassword = "TABLEPOS_DB_PASSWORD"

	EnvRedisURL = "TABLEPOS_REDIS_URL"

	EnvPricingTaxRate     = "TABLEPOS_PRICING_DEFAULT_TAX_RATE"
	EnvPricingServiceRate = "TABLEPOS_PRICING_DEFAULT_SERVICE_RATE"
	EnvSequenceBackend    = "TABLEPOS_SEQUENCE_BACKEND"
	EnvUseSQLite          = "TABLEPOS_USE_SQLITE"
	EnvCronDraftTTL       = "TABLEPOS_CRON_DRAFT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
