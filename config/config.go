package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Sonar       SonarConfig
	Serper      SerperConfig
	Cache       CacheConfig
	Aggregation AggregationConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SonarConfig holds the primary search source configuration
type SonarConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// SerperConfig holds the shopping fallback source configuration
type SerperConfig struct {
	APIKey       string            `mapstructure:"api_key"`
	BaseURL      string            `mapstructure:"base_url"`
	StoreDomains map[string]string `mapstructure:"store_domains"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL   string        `mapstructure:"redis_url"`
	ProductTTL time.Duration `mapstructure:"product_ttl"`
	StoreTTL   time.Duration `mapstructure:"store_ttl"`
}

// AggregationConfig holds fan-out tunables
type AggregationConfig struct {
	MaxStores    int           `mapstructure:"max_stores"`
	Concurrency  int           `mapstructure:"concurrency"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartlens/")

	// Environment variable settings. Nested keys map to underscored env
	// names, e.g. cache.redis_url -> CARTLENS_CACHE_REDIS_URL.
	v.SetEnvPrefix("CARTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Source defaults. Keys default to empty so the env override binds; a
	// missing key leaves the source reporting itself unavailable instead of
	// failing startup.
	v.SetDefault("sonar.api_key", "")
	v.SetDefault("sonar.base_url", "https://api.perplexity.ai/chat/completions")
	v.SetDefault("sonar.model", "sonar")
	v.SetDefault("serper.api_key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev/search")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.product_ttl", "4h")
	v.SetDefault("cache.store_ttl", "24h")

	// Aggregation defaults
	v.SetDefault("aggregation.max_stores", 10)
	v.SetDefault("aggregation.concurrency", 10)
	v.SetDefault("aggregation.store_timeout", "20s")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Cache.Type {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Aggregation.MaxStores < 1 {
		return fmt.Errorf("aggregation max_stores must be at least 1, got: %d", config.Aggregation.MaxStores)
	}

	return nil
}
