// Package config loads settings from config.yaml via viper with
// documented defaults and a handful of environment overrides. A
// missing config file is not an error: every option has a default and
// credentials can arrive through the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/deusflow/ainews/internal/logger"
)

type Config struct {
	Search SearchConfig `mapstructure:"search"`
	Proxy  ProxyConfig  `mapstructure:"proxy"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Output OutputConfig `mapstructure:"output"`
}

type SearchConfig struct {
	TotalNews        int    `mapstructure:"total_news"`
	MinPerCoreSource int    `mapstructure:"min_per_core_source"`
	Timeout          int    `mapstructure:"timeout"` // seconds, global fetch budget
	Concurrency      int    `mapstructure:"concurrency"`
	Region           string `mapstructure:"region"`
	TimeLimit        string `mapstructure:"timelimit"` // recency window: d, w, m
	SerpAPIKey       string `mapstructure:"serpapi_key"`
	SourcesFile      string `mapstructure:"sources_file"`
	MaxItems         int    `mapstructure:"max_items"`    // prune: hard cap before the LLM
	BodyMaxChars     int    `mapstructure:"body_max_len"` // prune: per-item snippet cap
}

type ProxyConfig struct {
	HTTP  string `mapstructure:"http"`
	HTTPS string `mapstructure:"https"`
}

type LLMConfig struct {
	Provider    string `mapstructure:"provider"` // openai (compatible) or gemini
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	ModelName   string `mapstructure:"model_name"`
	MaxRequests int    `mapstructure:"max_requests"` // per-run budget, 0 = unlimited
}

type OutputConfig struct {
	Directory string `mapstructure:"directory"`
	LogLevel  string `mapstructure:"log_level"`
}

// Budget returns the global wall-clock budget for the fetch phase.
func (s SearchConfig) Budget() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Load reads the config file at path (default ./config.yaml). Absence
// of the file yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("search.total_news", 50)
	v.SetDefault("search.min_per_core_source", 3)
	v.SetDefault("search.timeout", 60)
	v.SetDefault("search.concurrency", 5)
	v.SetDefault("search.region", "wt-wt")
	v.SetDefault("search.timelimit", "d")
	v.SetDefault("search.sources_file", "configs/sources.yaml")
	v.SetDefault("search.max_items", 50)
	v.SetDefault("search.body_max_len", 300)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("llm.model_name", "qwen-max")
	v.SetDefault("llm.max_requests", 12)
	v.SetDefault("output.directory", "./docs")
	v.SetDefault("output.log_level", "info")

	if path == "" {
		path = "config.yaml"
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			logger.Warn("config file not found, using defaults", "path", path)
		} else {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		logger.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides keeps credential precedence from the original
// deployment: generic env vars beat the config file, which beats the
// legacy DashScope names.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	} else if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.LLM.ModelName = v
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		cfg.Search.SerpAPIKey = v
	}
}

// Validate checks the options the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set API_KEY env var or configure in config.yaml)")
	}
	if c.Search.TotalNews <= 0 {
		return fmt.Errorf("search.total_news must be positive")
	}
	if c.Search.Concurrency <= 0 {
		return fmt.Errorf("search.concurrency must be positive")
	}
	return nil
}
