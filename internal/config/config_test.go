package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "8080" || cfg.TxMaxAttempts != 5 || cfg.AccessTTLMin != 60 {
		t.Fatalf("defaults = port %q attempts %d ttl %d", cfg.Port, cfg.TxMaxAttempts, cfg.AccessTTLMin)
	}
	if cfg.DBPath != "club.db" {
		t.Fatalf("db path = %q, want club.db", cfg.DBPath)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Capacity != 10 || cfg.RateLimit.RefillInterval != time.Second {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if !cfg.Cache.MethodSet()["GET"] || cfg.Cache.TTL != 30*time.Second {
		t.Fatalf("cache = %+v", cfg.Cache)
	}
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestParseRequiresMySQLUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error without DB_USER")
	}
	t.Setenv("DB_USER", "club")
	if _, err := Parse(); err != nil {
		t.Fatalf("parse with DB_USER: %v", err)
	}
}

func TestBrokerURLPrefersRabbitMQURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AMQP_URL", "amqp://fallback/")
	t.Setenv("RABBITMQ_URL", "")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.BrokerURL(); got != "amqp://fallback/" {
		t.Fatalf("broker = %q, want fallback", got)
	}
	cfg.AMQPURL = "amqp://primary/"
	if got := cfg.BrokerURL(); got != "amqp://primary/" {
		t.Fatalf("broker = %q, want primary", got)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	t.Parallel()

	c := RateLimitConfig{RefillInterval: 2 * time.Second, TTL: time.Second}
	c.normalize()
	if c.Capacity != 1 || c.RefillTokens != 1 {
		t.Fatalf("capacity/refill = %d/%d, want 1/1", c.Capacity, c.RefillTokens)
	}
	if c.TTL != 10*time.Second {
		t.Fatalf("ttl = %v, want 10s", c.TTL)
	}
}

func TestRedisAddress(t *testing.T) {
	t.Parallel()

	if got := (RedisConfig{Addr: "cache:6379"}).Address(); got != "cache:6379" {
		t.Fatalf("addr = %q", got)
	}
	if got := (RedisConfig{Addr: "cache:6379", Host: "redis", Port: "6380"}).Address(); got != "redis:6380" {
		t.Fatalf("addr = %q", got)
	}
}

func TestLoadTokenIgnoresDatabaseSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")

	cfg, err := LoadToken()
	if err != nil {
		t.Fatalf("load token config: %v", err)
	}
	if cfg.JWTSecret != "s3cret" || cfg.AccessTTLMin != 15 {
		t.Fatalf("token config = %+v", cfg)
	}

	t.Setenv("JWT_SECRET", "")
	if _, err := LoadToken(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}
