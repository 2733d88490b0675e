// Package config loads the revboard runtime configuration from YAML with
// environment fallbacks for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds how much YAML we are willing to parse.
const maxConfigSize = 1 << 20

// Duration wraps time.Duration so YAML can carry values like "30m".
type Duration time.Duration

// UnmarshalYAML parses either a duration string or a bare number of
// nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration.
type Config struct {
	// Session store
	Store StoreConfig `yaml:"store"`

	// Persona roster overrides
	PersonasDir string `yaml:"personas_dir"`

	// Decision archive
	Redis RedisConfig `yaml:"redis"`

	// Observability
	MetricsPort    int  `yaml:"metrics_port"`
	TracingEnabled bool `yaml:"tracing_enabled"`
	TracingPretty  bool `yaml:"tracing_pretty"`

	// Optional background sweep of expired sessions (cron expression,
	// empty disables it).
	SweepSchedule string `yaml:"sweep_schedule"`

	// Tool server rate limit
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// StoreConfig bounds the in-memory session store.
type StoreConfig struct {
	Capacity    int      `yaml:"capacity"`
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// RedisConfig holds the decision archive connection. An empty Addr keeps
// archival in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig throttles tool calls. Zero RPS disables the limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Capacity:    10,
			IdleTimeout: Duration(30 * time.Minute),
		},
		MetricsPort: 9090,
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills unset fields from the environment.
func (c *Config) applyEnv() {
	if c.Redis.Addr == "" {
		c.Redis.Addr = os.Getenv("REVBOARD_REDIS_ADDR")
	}
	if c.Redis.Password == "" {
		c.Redis.Password = os.Getenv("REVBOARD_REDIS_PASSWORD")
	}
	if c.PersonasDir == "" {
		c.PersonasDir = os.Getenv("REVBOARD_PERSONAS_DIR")
	}
	if v := os.Getenv("REVBOARD_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MetricsPort = port
		}
	}
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be positive")
	}
	if c.Store.IdleTimeout <= 0 {
		return fmt.Errorf("store.idle_timeout must be positive")
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be a valid port")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be positive when rps is set")
	}
	return nil
}
