package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// PostgresURL and RedisAddr are optional; the matching adapters are
	// only wired when they are set.
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AnthropicAPIKey    string        `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL   string        `mapstructure:"ANTHROPIC_BASE_URL"`
	AnthropicModel     string        `mapstructure:"ANTHROPIC_MODEL"`
	AnthropicMaxTokens int           `mapstructure:"ANTHROPIC_MAX_TOKENS"`
	AnthropicTimeout   time.Duration `mapstructure:"ANTHROPIC_TIMEOUT"`
	MaxCorpusChars     int           `mapstructure:"MAX_CORPUS_CHARS"`

	CrawlMaxDepth   int           `mapstructure:"CRAWL_MAX_DEPTH"`
	CrawlBatchSize  int           `mapstructure:"CRAWL_BATCH_SIZE"`
	CrawlBatchPause time.Duration `mapstructure:"CRAWL_BATCH_PAUSE"`
	CrawlMaxPages   int           `mapstructure:"CRAWL_MAX_PAGES"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	PageSettleDelay time.Duration `mapstructure:"PAGE_SETTLE_DELAY"`
	UserAgent       string        `mapstructure:"USER_AGENT"`
	BrowserHeadless bool          `mapstructure:"BROWSER_HEADLESS"`
}

// ConfigError reports missing or invalid configuration detected before
// any crawling starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var defaults = map[string]any{
	"SERVER_PORT":          "8080",
	"LOG_LEVEL":            "info",
	"POSTGRES_URL":         "",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"ANTHROPIC_API_KEY":    "",
	"ANTHROPIC_BASE_URL":   "",
	"ANTHROPIC_MODEL":      "claude-sonnet-4-20250514",
	"ANTHROPIC_MAX_TOKENS": 8192,
	"ANTHROPIC_TIMEOUT":    "3m",
	"MAX_CORPUS_CHARS":     150000,
	"CRAWL_MAX_DEPTH":      3,
	"CRAWL_BATCH_SIZE":     3,
	"CRAWL_BATCH_PAUSE":    "1s",
	"CRAWL_MAX_PAGES":      50,
	"PAGE_LOAD_TIMEOUT":    "30s",
	"PAGE_SETTLE_DELAY":    "2s",
	"USER_AGENT":           DefaultUserAgent,
	"BROWSER_HEADLESS":     true,
}

// Load reads configuration from an optional .env file and environment
// variables. A missing Anthropic API key is a *ConfigError.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	_ = v.ReadInConfig()

	// Every key needs a default, otherwise Unmarshal ignores its env var.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "config", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required values and numeric ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AnthropicAPIKey) == "" {
		return &ConfigError{Field: "ANTHROPIC_API_KEY", Reason: "extraction service credential is required"}
	}
	if c.AnthropicMaxTokens <= 0 {
		return &ConfigError{Field: "ANTHROPIC_MAX_TOKENS", Reason: "must be positive"}
	}
	if c.CrawlBatchSize <= 0 {
		return &ConfigError{Field: "CRAWL_BATCH_SIZE", Reason: "must be positive"}
	}
	if c.CrawlMaxDepth < 0 {
		return &ConfigError{Field: "CRAWL_MAX_DEPTH", Reason: "must not be negative"}
	}
	if c.PageLoadTimeout <= 0 {
		return &ConfigError{Field: "PAGE_LOAD_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}
