// Package config loads service configuration from defaults, an optional YAML
// file, and environment variables, applied in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr   = ":8001"
	DefaultDBPath = "./influencers.db"

	defaultRateLimitRPS   = 1.0
	defaultRequestTimeout = 2 * time.Minute
)

// SearchConfig configures the Google Custom Search client.
type SearchConfig struct {
	APIKey       string  `yaml:"api_key"`
	EngineID     string  `yaml:"engine_id"`
	BaseURL      string  `yaml:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// LLMConfig configures the generative model client.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// DiscoveryConfig bounds one discovery run.
type DiscoveryConfig struct {
	RequestTimeout time.Duration `yaml:"-"`
}

func (d *DiscoveryConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RequestTimeout string `yaml:"request_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.RequestTimeout != "" {
		t, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout %q: %w", raw.RequestTimeout, err)
		}
		d.RequestTimeout = t
	}
	return nil
}

// Config is the full service configuration.
type Config struct {
	Addr      string          `yaml:"addr"`
	DBPath    string          `yaml:"db_path"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:      DefaultAddr,
		DBPath:    DefaultDBPath,
		Search:    SearchConfig{RateLimitRPS: defaultRateLimitRPS},
		Discovery: DiscoveryConfig{RequestTimeout: defaultRequestTimeout},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// path is non-empty, then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT=%q: %w", v, err)
		}
		c.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv("DB_PATH")); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); v != "" {
		c.Search.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_CSE_ID")); v != "" {
		c.Search.EngineID = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); v != "" {
		c.LLM.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		c.LLM.Model = v
	}

	anthropicKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		// Auto-detect from whichever credential is present; Anthropic
		// wins when both are set.
		switch {
		case anthropicKey != "":
			c.LLM.Provider = "anthropic"
		case geminiKey != "":
			c.LLM.Provider = "gemini"
		}
	}
	switch c.LLM.Provider {
	case "anthropic", "claude":
		if anthropicKey != "" {
			c.LLM.APIKey = anthropicKey
		}
	case "gemini", "google":
		if geminiKey != "" {
			c.LLM.APIKey = geminiKey
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.DBPath = strings.TrimSpace(c.DBPath)
	if c.Search.RateLimitRPS <= 0 {
		c.Search.RateLimitRPS = defaultRateLimitRPS
	}
	if c.Discovery.RequestTimeout <= 0 {
		c.Discovery.RequestTimeout = defaultRequestTimeout
	}
}

// HasSearchProvider reports whether the Google search path can run.
func (c Config) HasSearchProvider() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}

// HasGenerativeClient reports whether a model client can be constructed.
func (c Config) HasGenerativeClient() bool {
	return c.LLM.Provider != "" && c.LLM.APIKey != ""
}
