package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Token        TokenConfig
	Partners     PartnersConfig
	Dealers      DealersConfig
	Inventory    InventoryConfig
	Storefront   StorefrontConfig
	Supplier     SupplierConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string   `envconfig:"PUNCHOUT_APP_ENV" required:"true"`
	Port         string   `envconfig:"PUNCHOUT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"PUNCHOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"PUNCHOUT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PUNCHOUT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PUNCHOUT_DB_DSN"`
	Driver string `envconfig:"PUNCHOUT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PUNCHOUT_DB_HOST"`
	LegacyPort     int    `envconfig:"PUNCHOUT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PUNCHOUT_DB_USER"`
	LegacyPassword string `envconfig:"PUNCHOUT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PUNCHOUT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PUNCHOUT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PUNCHOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PUNCHOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PUNCHOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PUNCHOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PUNCHOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PUNCHOUT_REDIS_ADDR"`
	Password     string        `envconfig:"PUNCHOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PUNCHOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PUNCHOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PUNCHOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PUNCHOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PUNCHOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PUNCHOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PUNCHOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PUNCHOUT_JWT_ISSUER" default:"tirehub-punchout"`
	ExpirationMinutes int    `envconfig:"PUNCHOUT_JWT_EXPIRATION_MINUTES" default:"120"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// TokenConfig controls the short-lived handoff tokens embedded in
// StartPage and portal redirect URLs.
type TokenConfig struct {
	Key         string        `envconfig:"PUNCHOUT_TOKEN_KEY" required:"true"`
	TTL         time.Duration `envconfig:"PUNCHOUT_TOKEN_TTL" default:"1800s"`
	AllowLegacy bool          `envconfig:"PUNCHOUT_TOKEN_ALLOW_LEGACY" default:"true"`
}

type PartnersConfig struct {
	BaseURL  string        `envconfig:"PUNCHOUT_PARTNERS_BASE_URL" required:"true"`
	APIKey   string        `envconfig:"PUNCHOUT_PARTNERS_API_KEY"`
	CacheTTL time.Duration `envconfig:"PUNCHOUT_PARTNERS_CACHE_TTL" default:"5m"`
	Timeout  time.Duration `envconfig:"PUNCHOUT_PARTNERS_TIMEOUT" default:"10s"`
}

type DealersConfig struct {
	BaseURL string        `envconfig:"PUNCHOUT_DEALERS_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"PUNCHOUT_DEALERS_API_KEY"`
	Timeout time.Duration `envconfig:"PUNCHOUT_DEALERS_TIMEOUT" default:"10s"`
}

type InventoryConfig struct {
	BaseURL string        `envconfig:"PUNCHOUT_INVENTORY_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"PUNCHOUT_INVENTORY_API_KEY"`
	Timeout time.Duration `envconfig:"PUNCHOUT_INVENTORY_TIMEOUT" default:"10s"`
}

type StorefrontConfig struct {
	BaseURL       string `envconfig:"PUNCHOUT_STOREFRONT_BASE_URL" required:"true"`
	StartPagePath string `envconfig:"PUNCHOUT_STOREFRONT_START_PATH" default:"/punchout/shopping/start"`
	PortalPath    string `envconfig:"PUNCHOUT_STOREFRONT_PORTAL_PATH" default:"/punchout/portal"`
}

// StartPageURL returns the absolute shopping entry URL with the token
// attached, the address partners land on from their procurement system.
func (s StorefrontConfig) StartPageURL(token string) string {
	return s.BaseURL + s.StartPagePath + "?token=" + url.QueryEscape(token)
}

func (s StorefrontConfig) PortalURL(token string) string {
	return s.BaseURL + s.PortalPath + "?token=" + url.QueryEscape(token)
}

type SupplierConfig struct {
	Domain   string `envconfig:"PUNCHOUT_SUPPLIER_DOMAIN" default:"DUNS"`
	Identity string `envconfig:"PUNCHOUT_SUPPLIER_IDENTITY" default:"08-125-4817"`
}

// RateLimitConfig throttles the unauthenticated cXML intake. A zero
// limit disables throttling.
type RateLimitConfig struct {
	SetupWindow time.Duration `envconfig:"PUNCHOUT_SETUP_RATE_WINDOW" default:"1m"`
	SetupLimit  int           `envconfig:"PUNCHOUT_SETUP_RATE_LIMIT" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate          bool `envconfig:"PUNCHOUT_AUTO_MIGRATE" default:"false"`
	DebugMode            bool `envconfig:"PUNCHOUT_DEBUG_MODE" default:"false"`
	ItemRedirectDisabled bool `envconfig:"PUNCHOUT_ITEM_REDIRECT_DISABLED" default:"false"`
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
