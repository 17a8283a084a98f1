// Package config loads gateway configuration from an optional YAML file and
// SENSEI_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pysensei/ai-gateway/internal/provider/trial"
	"github.com/pysensei/ai-gateway/internal/provider/worker"
	"github.com/pysensei/ai-gateway/internal/quota"
)

// PlaceholderAPIKey is the unconfigured value shipped in .env templates. It
// is treated the same as no key at all.
const PlaceholderAPIKey = "sk-ant-your-api-key-here"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Trial     TrialConfig     `koanf:"trial"`
	Anthropic AnthropicConfig `koanf:"anthropic"`
	Worker    WorkerConfig    `koanf:"worker"`
	Quota     QuotaConfig     `koanf:"quota"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type TrialConfig struct {
	Limit int    `koanf:"limit"`
	Path  string `koanf:"path"`
	// Window is a duration string like "24h".
	Window string `koanf:"window"`
}

// WindowDuration parses the trial window.
func (c TrialConfig) WindowDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid trial window %q: %w", c.Window, err)
	}
	return d, nil
}

type AnthropicConfig struct {
	APIKey    string `koanf:"api_key"`
	Model     string `koanf:"model"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`
}

// HasKey reports whether a usable upstream credential is configured.
func (c AnthropicConfig) HasKey() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

type WorkerConfig struct {
	EndpointURL string `koanf:"endpoint_url"`
	APIKey      string `koanf:"api_key"`
}

type QuotaConfig struct {
	// Store selects the quota store backend: memory, redis, or sqlite.
	Store    string       `koanf:"store"`
	Capacity int          `koanf:"capacity"`
	Redis    RedisConfig  `koanf:"redis"`
	SQLite   SQLiteConfig `koanf:"sqlite"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// Load reads configuration. configFile may be empty to skip the file layer.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// Environment variables override the file
	if err := k.Load(env.Provider("SENSEI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SENSEI_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":          8080,
		"trial.limit":          quota.DefaultLimit,
		"trial.window":         quota.DefaultWindow.String(),
		"trial.path":           trial.DefaultPath,
		"anthropic.model":      "claude-3-5-haiku-20241022",
		"anthropic.max_tokens": 2048,
		"worker.endpoint_url":  worker.DefaultEndpoint,
		"quota.store":          "memory",
		"quota.capacity":       0,
		"quota.redis.addr":     "localhost:6379",
		"quota.sqlite.path":    "./data/quota.db",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// The upstream credential keeps its historical variable name; it never
	// reaches clients.
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if _, err := cfg.Trial.WindowDuration(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
