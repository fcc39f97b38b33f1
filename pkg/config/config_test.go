package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("EARTHQUERY_CONFIG", path)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	writeConfig(t, `{
	  "query": {"location": "/tmp/earth/query.txt", "write_retries": 3, "retry_delay_ms": 250},
	  "channels": {"redis": {"enabled": true, "addr": "10.0.0.5:6379", "stream": "lg.directives"}},
	  "gateway": {"host": "0.0.0.0", "port": 18890},
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Query.Location != "/tmp/earth/query.txt" {
		t.Fatalf("query.location = %q, want %q", cfg.Query.Location, "/tmp/earth/query.txt")
	}
	if cfg.Query.WriteRetries != 3 || cfg.Query.RetryDelayMS != 250 {
		t.Fatalf("retry policy = %d/%dms, want 3/250ms", cfg.Query.WriteRetries, cfg.Query.RetryDelayMS)
	}
	if cfg.Channels.Redis.Addr != "10.0.0.5:6379" {
		t.Fatalf("redis.addr = %q, want %q", cfg.Channels.Redis.Addr, "10.0.0.5:6379")
	}
	if cfg.Channels.Redis.Stream != "lg.directives" {
		t.Fatalf("redis.stream = %q, want %q", cfg.Channels.Redis.Stream, "lg.directives")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" || !cfg.Logging.AddSource {
		t.Fatalf("logging = %+v, want json/debug/add_source", cfg.Logging)
	}
}

func TestLoadConfigAppliesRedisDefaults(t *testing.T) {
	writeConfig(t, `{
	  "query": {"location": "/tmp/earth/query.txt"},
	  "channels": {"redis": {"enabled": true}}
	}`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Channels.Redis.Addr != defaultRedisAddr {
		t.Fatalf("redis.addr = %q, want default %q", cfg.Channels.Redis.Addr, defaultRedisAddr)
	}
	if cfg.Channels.Redis.Stream != defaultRedisStream {
		t.Fatalf("redis.stream = %q, want default %q", cfg.Channels.Redis.Stream, defaultRedisStream)
	}
	if cfg.Channels.Redis.Group != defaultRedisGroup {
		t.Fatalf("redis.group = %q, want default %q", cfg.Channels.Redis.Group, defaultRedisGroup)
	}
	if cfg.Channels.Redis.Consumer != defaultRedisConsumer {
		t.Fatalf("redis.consumer = %q, want default %q", cfg.Channels.Redis.Consumer, defaultRedisConsumer)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	writeConfig(t, `{
	  "query": {"location": "/tmp/earth/query.txt"},
	  "channels": {"redis": {"enabled": true, "addr": "ignored:6379"}}
	}`)
	t.Setenv("EARTHQUERY_REDIS_ADDR", "override:6379")
	t.Setenv("EARTHQUERY_QUERY_LOCATION", "/srv/lg/query.txt")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Channels.Redis.Addr != "override:6379" {
		t.Fatalf("redis.addr = %q, want %q", cfg.Channels.Redis.Addr, "override:6379")
	}
	if cfg.Query.Location != "/srv/lg/query.txt" {
		t.Fatalf("query.location = %q, want %q", cfg.Query.Location, "/srv/lg/query.txt")
	}
}

func TestLoadConfigRequiresQueryLocation(t *testing.T) {
	writeConfig(t, `{"channels": {"redis": {"enabled": true}}}`)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing query.location")
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("EARTHQUERY_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}
