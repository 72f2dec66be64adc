package config

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"10":    10 * time.Second,
		"5m":    5 * time.Minute,
		`"15s"`: 15 * time.Second,
		"0":     0,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := parseDuration("soon"); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestRedisURLKeepsTLSAndCredentials(t *testing.T) {
	t.Setenv("REDIS_URL", "rediss://worker:pw@cache.example:6380/2")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "cache.example:6380" || cfg.Redis.URL == "" {
		t.Fatalf("unexpected redis config %#v", cfg.Redis)
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.TLSConfig == nil {
		t.Fatalf("expected TLS for rediss://")
	}
	if opts.Username != "worker" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options user=%q pw=%q db=%d", opts.Username, opts.Password, opts.DB)
	}
}

func TestRedisPlainURLAndAddr(t *testing.T) {
	opts, err := RedisConfig{URL: "redis://cache:6379/1"}.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.TLSConfig != nil || opts.Addr != "cache:6379" || opts.DB != 1 {
		t.Fatalf("unexpected options %#v", opts)
	}

	opts, err = RedisConfig{Addr: "localhost:6379", Password: "x", DB: 3}.Options()
	if err != nil || opts.Addr != "localhost:6379" || opts.Password != "x" || opts.DB != 3 {
		t.Fatalf("unexpected addr options %#v err=%v", opts, err)
	}
}

func TestRedisURLRejectsOtherSchemes(t *testing.T) {
	t.Setenv("REDIS_URL", "http://cache")
	if _, err := LoadServer(); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("CHORES_URL", "http://example.test:8080")
	t.Setenv("CHORES_TIMEOUT", "3")
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.URL != "http://example.test:8080" || cfg.Locale != "en-US" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.Timeout.Duration() != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.Timeout.Duration())
	}
}

func TestLoadServerRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "neo4j")
	if _, err := LoadServer(); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
