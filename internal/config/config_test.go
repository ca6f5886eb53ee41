package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NOTIFY_ENABLED", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("env: got %q want dev", cfg.Env)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port: got %d want 8080", cfg.Port)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("session ttl: got %s", cfg.SessionTTL())
	}
	if cfg.RememberTTL() != 30*24*time.Hour {
		t.Fatalf("remember ttl: got %s", cfg.RememberTTL())
	}
	if !cfg.NotifyEnabled {
		t.Fatalf("notifications should default on")
	}
	if cfg.TrustedProxies != nil {
		t.Fatalf("no proxy should be trusted by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("DATABASE_URL", "postgres://x:y@db:5432/z")
	t.Setenv("NOTIFY_ENABLED", "false")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg := Load()

	if cfg.NotifyEnabled {
		t.Fatalf("NOTIFY_ENABLED=false should disable notifications")
	}
	if cfg.Port != 8080 {
		t.Fatalf("bad PORT should fall back, got %d", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("trusted proxies: got %v", cfg.TrustedProxies)
	}
	if cfg.DBURL != "postgres://x:y@db:5432/z" {
		t.Fatalf("db url: got %q", cfg.DBURL)
	}
}
