package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Fatalf("expected no request timeout by default, got %v", cfg.API.Timeout)
	}
	if cfg.Session.Store != SessionStoreFile {
		t.Fatalf("expected file session store, got %q", cfg.Session.Store)
	}
	if got := cfg.JWT.Expiration(); got != 30*time.Minute {
		t.Fatalf("expected 30m token lifetime, got %v", got)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, " http://api.test:9000/ ")
	t.Setenv(EnvAPITimeout, "15s")
	t.Setenv(EnvDownloadDir, "/tmp/music")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://api.test:9000" {
		t.Fatalf("expected trimmed base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Download.Dir != "/tmp/music" {
		t.Fatalf("unexpected download dir %q", cfg.Download.Dir)
	}
}

func TestLoad_RedisStoreRequiresAddress(t *testing.T) {
	t.Setenv(EnvSessionStore, SessionStoreRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis session store without address to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("expected redis url to satisfy validation, got %v", err)
	}
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv(EnvSessionStore, "cookie")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown session store to fail")
	}
}

func TestSandboxMaxUploadBytes(t *testing.T) {
	if got := (SandboxConfig{MaxUpload: 2}).MaxUploadBytes(); got != 2<<20 {
		t.Fatalf("unexpected bytes %d", got)
	}
	if got := (SandboxConfig{}).MaxUploadBytes(); got != 50<<20 {
		t.Fatalf("unexpected default bytes %d", got)
	}
}

func TestLoad_SandboxDefaults(t *testing.T) {
	t.Setenv(EnvSandboxMedia, "/srv/media")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Sandbox.Addr != ":8000" {
		t.Fatalf("unexpected sandbox addr %q", cfg.Sandbox.Addr)
	}
	if cfg.Sandbox.MediaDir != "/srv/media" {
		t.Fatalf("unexpected media dir %q", cfg.Sandbox.MediaDir)
	}
	if got := cfg.Sandbox.MaxUploadBytes(); got != 50<<20 {
		t.Fatalf("expected 50MB upload cap, got %d", got)
	}
	if !cfg.Sandbox.Migrate || !cfg.Sandbox.Seed {
		t.Fatalf("expected migrations and seeding on by default")
	}
}

func TestLoad_SandboxSettings(t *testing.T) {
	t.Setenv("SOUNDMARKET_SANDBOX_CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("SOUNDMARKET_SANDBOX_MAX_UPLOAD_MB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.Sandbox.CORSOrigins) != 2 || cfg.Sandbox.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.Sandbox.CORSOrigins)
	}
	if cfg.Sandbox.MaxUploadBytes() != 2<<20 {
		t.Fatalf("unexpected upload cap %d", cfg.Sandbox.MaxUploadBytes())
	}
	if cfg.AuthRateLimit.LoginWindow != time.Minute || cfg.AuthRateLimit.LoginEmailLimit != 5 {
		t.Fatalf("unexpected login rate limit %+v", cfg.AuthRateLimit)
	}

	t.Setenv("SOUNDMARKET_SANDBOX_RATE_LIMIT_REDIS", "true")
	if _, err := Load(); err == nil {
		t.Fatal("expected redis rate limiting without address to fail")
	}
}
