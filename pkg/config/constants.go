package config

const (
	EnvPrefix = "SOUNDMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	EnvAppEnv       = "SOUNDMARKET_APP_ENV"
	EnvLogLevel     = "SOUNDMARKET_LOG_LEVEL"
	EnvAPIBaseURL   = "SOUNDMARKET_API_BASE_URL"
	EnvAPITimeout   = "SOUNDMARKET_API_TIMEOUT"
	EnvSessionStore = "SOUNDMARKET_SESSION_STORE"
	EnvSessionFile  = "SOUNDMARKET_SESSION_FILE"
	EnvRedisURL     = "SOUNDMARKET_REDIS_URL"
	EnvRedisAddr    = "SOUNDMARKET_REDIS_ADDR"
	EnvDownloadDir  = "SOUNDMARKET_DOWNLOAD_DIR"
	EnvSandboxAddr  = "SOUNDMARKET_SANDBOX_ADDR"
	EnvSandboxDSN   = "SOUNDMARKET_SANDBOX_DSN"
	EnvSandboxMedia = "SOUNDMARKET_SANDBOX_MEDIA_DIR"
	EnvJWTSecret    = "SOUNDMARKET_JWT_SECRET"
)
