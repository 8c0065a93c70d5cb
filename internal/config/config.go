// Package config loads adsbot.yaml and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// ProviderConfig holds per-provider credentials and throttling.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	RPM    int    `mapstructure:"rpm"`
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Providers struct {
		OpenAI    ProviderConfig `mapstructure:"openai"`
		Anthropic ProviderConfig `mapstructure:"anthropic"`
		Groq      ProviderConfig `mapstructure:"groq"`
		TimeoutMS int            `mapstructure:"timeout_ms"`
	} `mapstructure:"providers"`
	Cache struct {
		Backend   string `mapstructure:"backend"` // memory | redis
		Capacity  int    `mapstructure:"capacity"`
		RedisAddr string `mapstructure:"redis_addr"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"cache"`
	Telemetry struct {
		MaxEvents int `mapstructure:"max_events"`
	} `mapstructure:"telemetry"`
	Routing struct {
		File string `mapstructure:"file"` // optional routing.yaml override
	} `mapstructure:"routing"`
	Templates struct {
		Dir string `mapstructure:"dir"` // optional template directory
	} `mapstructure:"templates"`
}

// Load reads configuration from ADSBOT_CONFIG_PATH or ./config/adsbot.yaml,
// then applies environment overrides. A missing file is not an error: env
// and defaults are enough to run.
func Load() (*Config, error) {
	cfgPath := os.Getenv("ADSBOT_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/adsbot.yaml"
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		// File absent: continue with defaults.
	} else if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8085"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Providers.TimeoutMS <= 0 {
		cfg.Providers.TimeoutMS = 30000
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = 1000
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "adsbot:cache"
	}
	if cfg.Telemetry.MaxEvents <= 0 {
		cfg.Telemetry.MaxEvents = 10000
	}
}

// applyEnvOverrides lets deployment environments inject secrets without
// writing them to the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Providers.Groq.APIKey = v
	}
	if v := os.Getenv("ADSBOT_REDIS_ADDR"); v != "" {
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("ADSBOT_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.Capacity = n
		}
	}
	if v := os.Getenv("ADSBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ADSBOT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
