package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 10000 {
		t.Errorf("expected default port 10000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Enabled {
		t.Error("database must default to disabled")
	}
	if cfg.Scheduler.ScrapeCron != "*/30 * * * *" {
		t.Errorf("unexpected scrape cron %q", cfg.Scheduler.ScrapeCron)
	}
	if cfg.Scheduler.CleanupCron != "0 2 * * *" {
		t.Errorf("unexpected cleanup cron %q", cfg.Scheduler.CleanupCron)
	}
	if cfg.Cleanup.RetentionDays != 30 {
		t.Errorf("expected 30 day retention, got %d", cfg.Cleanup.RetentionDays)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		t.Error("expected default CORS origins")
	}
}

func TestDurationFallbacks(t *testing.T) {
	s := ScraperConfig{Timeout: "45s"}
	if s.TimeoutDuration() != 45*time.Second {
		t.Errorf("expected 45s, got %s", s.TimeoutDuration())
	}

	s = ScraperConfig{Timeout: "not a duration"}
	if s.TimeoutDuration() != 20*time.Second {
		t.Errorf("expected 20s fallback, got %s", s.TimeoutDuration())
	}

	c := CacheConfig{TTL: "90m"}
	if c.TTLDuration() != 90*time.Minute {
		t.Errorf("expected 90m, got %s", c.TTLDuration())
	}

	c = CacheConfig{TTL: "-1h"}
	if c.TTLDuration() != 6*time.Hour {
		t.Errorf("expected 6h fallback for negative TTL, got %s", c.TTLDuration())
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 10000
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}

	cfg.Server.Port = 8080
	cfg.Database.Enabled = true
	cfg.Database.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled database without DSN")
	}
}
