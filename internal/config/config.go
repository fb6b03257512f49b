// Package config loads application configuration and initializes the
// global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Insight  InsightConfig  `yaml:"insight" mapstructure:"insight"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// RegistryConfig configures the ReceitaWS client.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// RatePerMinute throttles lookups to the public API tier's quota.
	// Zero disables throttling.
	RatePerMinute int `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SearchConfig configures the DuckDuckGo client.
type SearchConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// InsightConfig configures page-insight extraction.
type InsightConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// MaxConcurrentPages bounds the per-term page-fetch fan-out.
	MaxConcurrentPages int `yaml:"max_concurrent_pages" mapstructure:"max_concurrent_pages"`
	// RulesPath overrides the embedded heuristic vocabulary.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOOKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("registry.base_url", "https://www.receitaws.com.br")
	v.SetDefault("registry.rate_per_minute", 3)
	v.SetDefault("registry.timeout_secs", 10)
	v.SetDefault("search.base_url", "https://html.duckduckgo.com")
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("insight.timeout_secs", 15)
	v.SetDefault("insight.max_concurrent_pages", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
