package config

const (
	EnvPrefix = "PUNCHOUT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "PUNCHOUT_APP_ENV"
	EnvPort   = "PUNCHOUT_APP_PORT"

	EnvDBDSN  = "PUNCHOUT_DB_DSN"
	EnvDBHost = "PUNCHOUT_DB_HOST"
	EnvDBUser = "PUNCHOUT_DB_USER"
	EnvDBName = "PUNCHOUT_DB_NAME"

	EnvRedisURL = "PUNCHOUT_REDIS_URL"

	EnvJWTSecret = "PUNCHOUT_JWT_SECRET"

	EnvTokenKey = "PUNCHOUT_TOKEN_KEY"

	EnvPartnersBaseURL   = "PUNCHOUT_PARTNERS_BASE_URL"
	EnvDealersBaseURL    = "PUNCHOUT_DEALERS_BASE_URL"
	EnvInventoryBaseURL  = "PUNCHOUT_INVENTORY_BASE_URL"
	EnvStorefrontBaseURL = "PUNCHOUT_STOREFRONT_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
