package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// State stores and result drivers.
const (
	StateRedis  = "redis"
	StateMemory = "memory"

	ResultsNone     = "none"
	ResultsPostgres = "postgres"
	ResultsSQLite   = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	RedisURL   string `mapstructure:"REDIS_URL"`
	StateStore string `mapstructure:"STATE_STORE"`

	MaxConcurrentRequests int           `mapstructure:"MAX_CONCURRENT_REQUESTS"`
	HTTPTimeout           time.Duration `mapstructure:"HTTP_TIMEOUT"`
	UserAgent             string        `mapstructure:"USER_AGENT"`
	MaxBodyBytes          int64         `mapstructure:"MAX_BODY_BYTES"`

	ResultsDriver string `mapstructure:"RESULTS_DRIVER"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("STATE_STORE", StateRedis)
	v.SetDefault("MAX_CONCURRENT_REQUESTS", 90)
	v.SetDefault("HTTP_TIMEOUT", 5*time.Second)
	v.SetDefault("USER_AGENT", "site-crawler/1.0")
	v.SetDefault("MAX_BODY_BYTES", int64(10<<20))
	v.SetDefault("RESULTS_DRIVER", ResultsNone)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("SQLITE_PATH", "crawl.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("METRICS_ADDR", "")
}

// Load reads configuration into a Config. Priority (highest to lowest):
// flags bound on v, environment, config file, defaults. With an empty
// configPath an optional .env in the working directory is read; an explicit
// path must exist. v may be nil.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	if configPath == "" {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		// Attempt to read the .env file, but don't fail if it's not present.
		_ = v.ReadInConfig()
	} else {
		v.SetConfigFile(configPath)
		if ext := filepath.Ext(configPath); ext == "" || ext == ".env" {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.StateStore = strings.ToLower(cfg.StateStore)
	cfg.ResultsDriver = strings.ToLower(cfg.ResultsDriver)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxConcurrentRequests <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENT_REQUESTS must be positive, got %d", c.MaxConcurrentRequests))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	switch c.StateStore {
	case StateRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis state store"))
		}
	case StateMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STATE_STORE %q", c.StateStore))
	}
	switch c.ResultsDriver {
	case ResultsNone, ResultsSQLite:
	case ResultsPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required for the postgres results driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RESULTS_DRIVER %q", c.ResultsDriver))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
