// Package config loads the process configuration from the environment once
// at startup. The resulting value is passed by pointer and never mutated.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/collabhub/timesheet-api/internal/core/service"
	mongodb "github.com/collabhub/timesheet-api/internal/infrastructure/db/mongo"
	"github.com/collabhub/timesheet-api/internal/infrastructure/db/postgres"
	redisdb "github.com/collabhub/timesheet-api/internal/infrastructure/db/redis"
)

const minSecretLen = 32

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	HTTP      HTTPConfig
	JWT       JWTConfig
	Identity  IdentityConfig
	Google    GoogleConfig
	GitHub    GitHubConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,     default=15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,    default=15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT, default=10s"`
	AllowedOrigins  []string      `env:"LIVE_ALLOWED_ORIGINS"`
	TrustedProxies  []string      `env:"HTTP_TRUSTED_PROXIES"`
}

type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER"`
	Audience string        `env:"JWT_AUDIENCE"`
	Validity time.Duration `env:"JWT_VALIDITY, required"`
}

// IdentityConfig controls federated verification. TrustedInput accepts the
// profile fields of federated requests without contacting the provider and is
// meant for local development only.
type IdentityConfig struct {
	TrustedInput bool          `env:"IDENTITY_TRUSTED_INPUT, default=false"`
	HTTPTimeout  time.Duration `env:"IDENTITY_HTTP_TIMEOUT,  default=10s"`
}

type GoogleConfig struct {
	ClientID string `env:"GOOGLE_CLIENT_ID"`
}

type GitHubConfig struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=timesheet"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN,            default=postgres://localhost:5432/timesheet?sslmode=disable"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=20"`
	MaxIdleConns int    `env:"POSTGRES_MAX_IDLE_CONNS, default=5"`
	AutoMigrate  bool   `env:"POSTGRES_AUTO_MIGRATE,   default=true"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type RateLimitConfig struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED,  default=true"`
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=1m"`
}

type EventsConfig struct {
	PublishTimeout time.Duration `env:"EVENTS_PUBLISH_TIMEOUT, default=2s"`
	StreamMaxLen   int64         `env:"EVENTS_STREAM_MAXLEN,   default=10000"`
	Workers        int           `env:"DISPATCH_WORKERS,       default=8"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.JWT.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}
	if strings.TrimSpace(c.JWT.Audience) == "" {
		errs = append(errs, errors.New("JWT_AUDIENCE is required"))
	}
	if c.JWT.Validity <= 0 {
		errs = append(errs, errors.New("JWT_VALIDITY must be positive"))
	}
	for _, cidr := range c.HTTP.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("HTTP_TRUSTED_PROXIES: %w", err))
		}
	}
	if c.Identity.TrustedInput && c.IsProduction() {
		errs = append(errs, errors.New("IDENTITY_TRUSTED_INPUT cannot be enabled in production"))
	}
	if (c.GitHub.ClientID == "") != (c.GitHub.ClientSecret == "") {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// TrustedProxyNets returns the parsed HTTP_TRUSTED_PROXIES ranges. Entries
// were checked by validate.
func (h HTTPConfig) TrustedProxyNets() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range h.TrustedProxies {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) TokenConfig() service.TokenConfig {
	return service.TokenConfig{
		Secret:   c.JWT.Secret,
		Issuer:   c.JWT.Issuer,
		Audience: c.JWT.Audience,
		Validity: c.JWT.Validity,
	}
}

func (c *Config) MongoConnection() mongodb.Config {
	return mongodb.Config{
		URI:         c.Mongo.URI,
		Database:    c.Mongo.Database,
		Timeout:     c.Mongo.Timeout,
		MaxPoolSize: c.Mongo.MaxPoolSize,
	}
}

func (c *Config) PostgresConnection() postgres.Config {
	return postgres.Config{
		DSN:          c.Postgres.DSN,
		MaxOpenConns: c.Postgres.MaxOpenConns,
		MaxIdleConns: c.Postgres.MaxIdleConns,
	}
}

func (c *Config) RedisConnection() redisdb.Config {
	return redisdb.Config{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB}
}
