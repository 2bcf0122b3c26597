package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, StateRedis, cfg.StateStore)
	assert.Equal(t, 90, cfg.MaxConcurrentRequests)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "site-crawler/1.0", cfg.UserAgent)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, ResultsNone, cfg.ResultsDriver)
	assert.Equal(t, "crawl.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Empty(t, cfg.MetricsAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"MAX_CONCURRENT_REQUESTS=12\nUSER_AGENT=from-file\nHTTP_TIMEOUT=2s\n",
	), 0o600))
	t.Setenv("USER_AGENT", "from-env")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxConcurrentRequests)
	assert.Equal(t, "from-env", cfg.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
}

func TestLoadExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "crawler.env")
	require.NoError(t, os.WriteFile(path, []byte("STATE_STORE=Memory\nRESULTS_DRIVER=sqlite\n"), 0o600))

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, StateMemory, cfg.StateStore)
	assert.Equal(t, ResultsSQLite, cfg.ResultsDriver)

	_, err = Load(nil, filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadOverridesTakePriority(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MAX_CONCURRENT_REQUESTS", "50")

	v := viper.New()
	v.Set("MAX_CONCURRENT_REQUESTS", 3)
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxConcurrentRequests)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RedisURL:              "redis://localhost:6379",
			StateStore:            StateRedis,
			MaxConcurrentRequests: 1,
			HTTPTimeout:           time.Second,
			MaxBodyBytes:          1,
			ResultsDriver:         ResultsNone,
			LogLevel:              "info",
			LogFormat:             "json",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentRequests = 0 }, "MAX_CONCURRENT_REQUESTS"},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -time.Second }, "HTTP_TIMEOUT"},
		{"zero body limit", func(c *Config) { c.MaxBodyBytes = 0 }, "MAX_BODY_BYTES"},
		{"unknown store", func(c *Config) { c.StateStore = "etcd" }, "STATE_STORE"},
		{"redis without url", func(c *Config) { c.RedisURL = "" }, "REDIS_URL"},
		{"memory without url", func(c *Config) { c.StateStore = StateMemory; c.RedisURL = "" }, ""},
		{"unknown driver", func(c *Config) { c.ResultsDriver = "mongo" }, "RESULTS_DRIVER"},
		{"postgres without url", func(c *Config) { c.ResultsDriver = ResultsPostgres }, "POSTGRES_URL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

// chdir switches the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
