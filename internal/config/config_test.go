package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
log:
  level: debug
  pretty: true
redis:
  addr: localhost:6379
catalog:
  ttl: 5m
remote:
  timeout: 2s
cache:
  backend: redis
auth:
  secret: s3cret
  token_ttl: 12h
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.UseRedisCache() {
		t.Fatalf("expected redis cache backend")
	}
	if got := TTLDuration(cfg.Remote.Timeout, time.Second); got != 2*time.Second {
		t.Fatalf("expected 2s remote timeout, got %s", got)
	}
	if got := TTLDuration(cfg.Auth.TokenTTL, time.Hour); got != 12*time.Hour {
		t.Fatalf("expected 12h token ttl, got %s", got)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
