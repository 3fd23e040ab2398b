package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Cache    CacheConfig
	Upstream UpstreamConfig
	Workflow WorkflowConfig
	OrderDB  OrderDBConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string   `envconfig:"APP_NAME" default:"rbxstore-api"`
	Environment string   `envconfig:"APP_ENV" default:"development"`
	Version     string   `envconfig:"APP_VERSION" default:"1.0.0"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	APIKeys     []string `envconfig:"API_KEYS"` // guards claim, orders and admin routes
}

// CacheConfig holds cache settings. The cache backs the pricing rate and the
// checkout handoffs, so multi-replica deployments need redis.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"rbxstore"`
}

// UpstreamConfig points at the storefront's Roblox proxy routes.
type UpstreamConfig struct {
	BaseURL            string        `envconfig:"STOREFRONT_API_URL" default:"http://localhost:3000"`
	Timeout            time.Duration `envconfig:"STOREFRONT_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"STOREFRONT_BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"STOREFRONT_BREAKER_OPEN" default:"30s"`
}

// WorkflowConfig tunes the RBX5 checkout form.
type WorkflowConfig struct {
	LookupDebounce time.Duration `envconfig:"RBX5_LOOKUP_DEBOUNCE" default:"1s"`
	EffectTimeout  time.Duration `envconfig:"RBX5_EFFECT_TIMEOUT" default:"15s"`
	SessionIdleTTL time.Duration `envconfig:"RBX5_SESSION_IDLE_TTL" default:"30m"`
	ReapInterval   time.Duration `envconfig:"RBX5_REAP_INTERVAL" default:"1m"`
	HandoffTTL     time.Duration `envconfig:"RBX5_HANDOFF_TTL" default:"15m"`
	PricingTTL     time.Duration `envconfig:"RBX5_PRICING_TTL" default:"1m"`
	Packages       PackageList   `envconfig:"RBX5_PACKAGES" default:"100,200,300,500,1000,2000,5000,10000"`
	MaxRobux       int64         `envconfig:"RBX5_MAX_ROBUX" default:"699300699"`
}

// OrderDBConfig holds order store settings.
type OrderDBConfig struct {
	Driver string `envconfig:"ORDER_DB_DRIVER" default:"sqlite"` // sqlite, postgres, mysql or mongodb
	// DSN is a file path for sqlite, a URL for postgres and mongodb, and a
	// go-sql-driver DSN for mysql.
	DSN             string        `envconfig:"ORDER_DB_DSN" default:"./data/orders.db"`
	MongoDatabase   string        `envconfig:"MONGODB_DATABASE" default:"rbxstore"`
	MongoCollection string        `envconfig:"MONGODB_COLLECTION" default:"rbx5_orders"`
	PendingExpiry   time.Duration `envconfig:"ORDER_PENDING_EXPIRY" default:"24h"`
}

// PackageList decodes "100,200,Big=5000" into preset packages. Entries
// without a name are named after their quantity.
type PackageList []model.Package

// Decode implements envconfig.Decoder.
func (p *PackageList) Decode(value string) error {
	var out PackageList
	for _, raw := range strings.Split(value, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, amount, named := strings.Cut(raw, "=")
		if !named {
			amount = name
			name = ""
		}
		robux, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
		if err != nil || robux <= 0 {
			return fmt.Errorf("invalid package %q", raw)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("%d Robux", robux)
		}
		out = append(out, model.Package{Name: name, Robux: robux})
	}
	*p = out
	return nil
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_TYPE must be memory or redis, got %q", c.Cache.Type)
	}
	switch c.OrderDB.Driver {
	case "sqlite", "postgres", "mysql", "mongodb", "mongo":
	default:
		return fmt.Errorf("unsupported ORDER_DB_DRIVER %q", c.OrderDB.Driver)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL is required")
	}
	if c.Workflow.MaxRobux <= 0 || c.Workflow.MaxRobux > pricing.MaxRobux {
		return fmt.Errorf("RBX5_MAX_ROBUX must be between 1 and %d", pricing.MaxRobux)
	}
	for _, p := range c.Workflow.Packages {
		if p.Robux > c.Workflow.MaxRobux {
			return fmt.Errorf("package %q exceeds RBX5_MAX_ROBUX", p.Name)
		}
	}
	if c.App.IsProduction() && len(c.App.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is required in production")
	}
	return nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
