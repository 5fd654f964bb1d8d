// Package config resolves runtime settings for the CLI: built-in defaults,
// then an optional YAML file, then MM_* environment variables. Command-line
// flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration.
type Config struct {
	APIBase            string        `yaml:"api_base"`
	StoragePath        string        `yaml:"storage"`
	Streaming          bool          `yaml:"streaming"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	Retry              RetryConfig   `yaml:"retry"`
	Health             HealthConfig  `yaml:"health"`
	TokenWarnThreshold int           `yaml:"token_warn_threshold"`
	Language           string        `yaml:"language"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	Budget      time.Duration `yaml:"budget"`
}

type HealthConfig struct {
	Interval time.Duration `yaml:"interval"`
	Attempts int           `yaml:"attempts"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		APIBase:        "http://localhost:8000",
		Streaming:      false,
		RequestTimeout: 5 * time.Minute,
		Retry: RetryConfig{
			MaxAttempts: 10,
			Initial:     time.Second,
			Max:         5 * time.Second,
			Budget:      2 * time.Minute,
		},
		Health: HealthConfig{
			Interval: 2 * time.Second,
			Attempts: 60,
		},
		TokenWarnThreshold: 2000,
		Language:           "vi",
	}
}

// Load applies the YAML file at path (skipped when path is empty) and then
// the environment on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MM_* environment variables.
func (c *Config) ApplyEnv() error {
	c.APIBase = getenvDefault("MM_API_BASE", c.APIBase)
	c.StoragePath = getenvDefault("MM_STORAGE", c.StoragePath)
	c.Streaming = boolFromEnv("MM_STREAMING", c.Streaming)
	c.Language = getenvDefault("MM_LANGUAGE", c.Language)
	c.TokenWarnThreshold = intFromEnv("MM_TOKEN_WARN_THRESHOLD", c.TokenWarnThreshold)
	c.Retry.MaxAttempts = intFromEnv("MM_RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Health.Attempts = intFromEnv("MM_HEALTH_ATTEMPTS", c.Health.Attempts)

	var err error
	if c.RequestTimeout, err = durationFromEnv("MM_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.Health.Interval, err = durationFromEnv("MM_HEALTH_INTERVAL", c.Health.Interval); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return fmt.Errorf("api_base is required")
	}
	if c.Language != "vi" && c.Language != "en" {
		return fmt.Errorf("language must be vi or en, got %q", c.Language)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Health.Attempts < 1 {
		return fmt.Errorf("health.attempts must be at least 1")
	}
	return nil
}

func getenvDefault(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func intFromEnv(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s is invalid: %w", key, err)
	}
	return d, nil
}
