package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
riddle:
  ttl: 30m
  window_start: "18:00"
  window_end: "23:30"
auth:
  jwt_secret: sekrit
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Auth.JWTSecret != "sekrit" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	window, err := cfg.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if window.Start != 18*time.Hour || window.End != 23*time.Hour+30*time.Minute {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func TestWindowUnboundedWhenUnset(t *testing.T) {
	var cfg Config
	window, err := cfg.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if !window.Unbounded() {
		t.Fatalf("expected unbounded window, got %+v", window)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty should fall back, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("unparsable should fall back, got %v", got)
	}
	if got := TTLDuration("2h", time.Minute); got != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", got)
	}
}
