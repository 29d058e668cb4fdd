package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Session  SessionConfig
	Redis    RedisConfig
	Download DownloadConfig
	Sandbox  SandboxConfig
	JWT      JWTConfig
	Password PasswordConfig

	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("%s is required", EnvAPIBaseURL)
	}
	switch c.Session.Store {
	case SessionStoreFile, SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvSessionStore, c.Session.Store)
	}
	if c.Session.Store == SessionStoreRedis && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("%s or %s is required for the redis session store", EnvRedisURL, EnvRedisAddr)
	}
	if c.Sandbox.RateLimitRedis && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("%s or %s is required for redis rate limiting", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUNDMARKET_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"SOUNDMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUNDMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the console at the marketplace REST API.
type APIConfig struct {
	BaseURL   string        `envconfig:"SOUNDMARKET_API_BASE_URL" default:"http://localhost:8000"`
	Timeout   time.Duration `envconfig:"SOUNDMARKET_API_TIMEOUT" default:"0s"`
	UserAgent string        `envconfig:"SOUNDMARKET_API_USER_AGENT" default:"soundmarket-console"`
}

// SessionConfig selects where the bearer credential is persisted between runs.
type SessionConfig struct {
	Store    string `envconfig:"SOUNDMARKET_SESSION_STORE" default:"file"`
	FilePath string `envconfig:"SOUNDMARKET_SESSION_FILE"`
	Profile  string `envconfig:"SOUNDMARKET_SESSION_PROFILE" default:"default"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUNDMARKET_REDIS_URL"`
	Address      string        `envconfig:"SOUNDMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SOUNDMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUNDMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUNDMARKET_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"SOUNDMARKET_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"SOUNDMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUNDMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUNDMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DownloadConfig struct {
	Dir string `envconfig:"SOUNDMARKET_DOWNLOAD_DIR" default:"downloads"`
}

// SandboxConfig drives the local stand-in API server.
type SandboxConfig struct {
	Addr      string `envconfig:"SOUNDMARKET_SANDBOX_ADDR" default:":8000"`
	DSN       string `envconfig:"SOUNDMARKET_SANDBOX_DSN" default:"file:soundmarket_sandbox?mode=memory&cache=shared"`
	Seed      bool   `envconfig:"SOUNDMARKET_SANDBOX_SEED" default:"true"`
	MaxUpload int64  `envconfig:"SOUNDMARKET_SANDBOX_MAX_UPLOAD_MB" default:"50"`
	MediaDir  string `envconfig:"SOUNDMARKET_SANDBOX_MEDIA_DIR" default:"media"`
	Migrate   bool   `envconfig:"SOUNDMARKET_SANDBOX_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"SOUNDMARKET_SANDBOX_MAX_OPEN_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"SOUNDMARKET_SANDBOX_CONN_MAX_LIFETIME" default:"0s"`
	SlowQuery       time.Duration `envconfig:"SOUNDMARKET_SANDBOX_SLOW_QUERY" default:"200ms"`

	CORSOrigins []string `envconfig:"SOUNDMARKET_SANDBOX_CORS_ORIGINS"`
	// RateLimitRedis backs the auth rate limits with the configured redis.
	RateLimitRedis bool `envconfig:"SOUNDMARKET_SANDBOX_RATE_LIMIT_REDIS" default:"false"`
}

// AuthRateLimitConfig throttles the sandbox login and register endpoints.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SOUNDMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// MaxUploadBytes converts the configured upload cap into bytes.
func (s SandboxConfig) MaxUploadBytes() int64 {
	if s.MaxUpload <= 0 {
		return 50 << 20
	}
	return s.MaxUpload << 20
}

type JWTConfig struct {
	Secret            string `envconfig:"SOUNDMARKET_JWT_SECRET" default:"sandbox-secret"`
	Issuer            string `envconfig:"SOUNDMARKET_JWT_ISSUER" default:"soundmarket-sandbox"`
	ExpirationMinutes int    `envconfig:"SOUNDMARKET_JWT_EXPIRATION_MINUTES" default:"30"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOUNDMARKET_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"SOUNDMARKET_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"SOUNDMARKET_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"SOUNDMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOUNDMARKET_ARGON_KEY_LEN" default:"32"`
}
