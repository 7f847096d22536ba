package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const (
	defaultAddr     = "0.0.0.0:8080"
	defaultMongoURI = "mongodb://localhost:27017"
)

// Config holds the complete application configuration, loadable from
// environment variables (HERBAL_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
	Timeouts  TimeoutsConfig
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Driver        string `default:"mongo" usage:"Document store driver: memory, mongo or postgres"`
	MongoURI      string `default:"mongodb://localhost:27017" usage:"MongoDB connection URI (or MONGO_URL)" flag:"mongo-uri"`
	MongoDatabase string `default:"herbal_chicken" usage:"MongoDB database name" flag:"mongo-database"`
	PostgresURL   string `usage:"PostgreSQL connection URL (or DATABASE_URL)" flag:"postgres-url"`
}

// RedisConfig controls the cart read cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `usage:"Redis address for the cart cache"`
	Password string        `usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database number"`
	TTL      time.Duration `default:"15m" usage:"Base TTL of cached carts"`
}

// KafkaConfig controls event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses"`
	Topic   string   `default:"orders.placed" usage:"Topic for order placed events"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables the limiter"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// TimeoutsConfig bounds the HTTP server.
type TimeoutsConfig struct {
	Read    time.Duration `default:"5s"   usage:"Server read timeout"`
	Write   time.Duration `default:"10s"  usage:"Server write timeout"`
	Idle    time.Duration `default:"120s" usage:"Server idle timeout"`
	Handler time.Duration `default:"8s"   usage:"Per-request handler deadline"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(false)
}

func loadConfig(skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: skipFlags,
		EnvPrefix: "HERBAL",
		Files:     []string{"config.yaml", "/etc/herbal/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected driver has what it needs.
func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("mongo URI is required: set HERBAL_STORE_MONGO_URI or MONGO_URL")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("postgres URL is required: set HERBAL_STORE_POSTGRES_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Driver)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's HERBAL_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("MONGO_URL"); v != "" && c.Store.MongoURI == defaultMongoURI {
		c.Store.MongoURI = v
	}
	if c.Store.PostgresURL == "" {
		c.Store.PostgresURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
