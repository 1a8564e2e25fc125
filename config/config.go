package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the verification service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the language model provider configuration
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	VisionModel     string        `mapstructure:"vision_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SourcesConfig contains search provider configurations
type SourcesConfig struct {
	NewsAPI   NewsAPIConfig   `mapstructure:"newsapi"`
	GNews     GNewsConfig     `mapstructure:"gnews"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
}

// NewsAPIConfig contains NewsAPI settings (primary news connector)
type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// GNewsConfig contains GNews settings (news backfill connector)
type GNewsConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// WebSearchConfig contains Serper settings. The fact-check connector
// shares the Serper credential with a site-scoped query.
type WebSearchConfig struct {
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// PipelineConfig tunes the verification pipeline
type PipelineConfig struct {
	MaxResults       int           `mapstructure:"max_results"`
	MinNewsResults   int           `mapstructure:"min_news_results"`
	ConnectorTimeout time.Duration `mapstructure:"connector_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

// StorageConfig contains cache settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings. An empty host means
// the service runs with the in-memory cache instead.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("VERITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults plus env are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "30s")

	v.SetDefault("server.address", ":8080")

	v.SetDefault("llm.completion_model", "gpt-4o-mini")
	v.SetDefault("llm.vision_model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	v.SetDefault("sources.gnews.endpoint", "https://gnews.io/api/v4/search")
	v.SetDefault("sources.web_search.timeout", "10s")

	v.SetDefault("pipeline.max_results", 10)
	v.SetDefault("pipeline.min_news_results", 3)
	v.SetDefault("pipeline.connector_timeout", "10s")
	v.SetDefault("pipeline.cache_ttl", "1h")

	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", "5s")

	v.SetDefault("telemetry.enabled", true)
}

// overrideFromEnv overrides configuration with environment variables
// for secrets that operators conventionally export unprefixed.
func overrideFromEnv(v *viper.Viper) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		v.Set("llm.api_key", apiKey)
	}
	if apiKey := os.Getenv("NEWSAPI_API_KEY"); apiKey != "" {
		v.Set("sources.newsapi.api_key", apiKey)
	}
	if apiKey := os.Getenv("GNEWS_API_KEY"); apiKey != "" {
		v.Set("sources.gnews.api_key", apiKey)
	}
	if apiKey := os.Getenv("SERPER_API_KEY"); apiKey != "" {
		v.Set("sources.web_search.serper_api_key", apiKey)
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("storage.redis.host", host)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("storage.redis.password", password)
	}
}

func validateConfig(config *Config) error {
	if config.Pipeline.MaxResults <= 0 {
		return fmt.Errorf("pipeline.max_results must be > 0")
	}
	if config.Pipeline.MinNewsResults < 0 {
		return fmt.Errorf("pipeline.min_news_results cannot be negative")
	}
	if config.Pipeline.CacheTTL <= 0 {
		return fmt.Errorf("pipeline.cache_ttl must be > 0")
	}
	return nil
}
