package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envRedisAddr     = "EARTHQUERY_REDIS_ADDR"
	envQueryLocation = "EARTHQUERY_QUERY_LOCATION"
)

const (
	defaultRedisAddr     = "localhost:6379"
	defaultRedisStream   = "earth.query.directives"
	defaultRedisGroup    = "earthquery"
	defaultRedisConsumer = "gateway-1"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Query    QueryConfig    `json:"query"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// QueryConfig describes the query file target and the publish retry policy.
type QueryConfig struct {
	Location     string `json:"location"`
	WriteRetries int    `json:"write_retries,omitempty"`
	RetryDelayMS int    `json:"retry_delay_ms,omitempty"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Redis RedisConfig `json:"redis"`
}

// RedisConfig configures the Redis Streams directive transport.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Stream   string `json:"stream"`
	Group    string `json:"group"`
	Consumer string `json:"consumer"`
}

// GatewayConfig configures HTTP status endpoint bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides and defaults.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if addr := strings.TrimSpace(os.Getenv(envRedisAddr)); addr != "" {
		cfg.Channels.Redis.Addr = addr
	}

	if location := strings.TrimSpace(os.Getenv(envQueryLocation)); location != "" {
		cfg.Query.Location = location
	}
}

func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	redis := &cfg.Channels.Redis
	if strings.TrimSpace(redis.Addr) == "" {
		redis.Addr = defaultRedisAddr
	}
	if strings.TrimSpace(redis.Stream) == "" {
		redis.Stream = defaultRedisStream
	}
	if strings.TrimSpace(redis.Group) == "" {
		redis.Group = defaultRedisGroup
	}
	if strings.TrimSpace(redis.Consumer) == "" {
		redis.Consumer = defaultRedisConsumer
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Query.Location) == "" {
		return errors.New("query.location is required")
	}

	return nil
}

// findConfigPath resolves the active config file location.
//
// Precedence is EARTHQUERY_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("EARTHQUERY_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("EARTHQUERY_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
