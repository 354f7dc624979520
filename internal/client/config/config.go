package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime settings for the client.
type Config struct {
	APIBaseURL             string        `yaml:"api_base_url"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	ReconcileTimeout       time.Duration `yaml:"reconcile_timeout"`
	BootstrapTimeout       time.Duration `yaml:"bootstrap_timeout"`
	SessionRefreshInterval time.Duration `yaml:"session_refresh_interval"`
	PageSize               int           `yaml:"page_size"`
	RateLimit              float64       `yaml:"rate_limit"`
	RateBurst              int           `yaml:"rate_burst"`
	Storage                StorageConfig `yaml:"storage"`
	LogLevel               string        `yaml:"log_level"`
	LogFormat              string        `yaml:"log_format"`
	StatusAddr             string        `yaml:"status_addr"`
	DigestEnabled          bool          `yaml:"digest_enabled"`
}

// StorageConfig selects where the session and notifications are persisted.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000/api"
	c.RequestTimeout = 30 * time.Second
	c.ReconcileTimeout = 5 * time.Second
	c.BootstrapTimeout = 10 * time.Second
	c.SessionRefreshInterval = 0
	c.PageSize = 10
	c.RateLimit = 0
	c.RateBurst = 1
	c.Storage = StorageConfig{
		Backend:     BackendSQLite,
		SQLitePath:  "community.db",
		RedisAddr:   "127.0.0.1:6379",
		RedisPrefix: "communityhub:",
	}
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.StatusAddr = ""
	c.DigestEnabled = true
}

// LoadConfig builds a Config from defaults, the config file named by the
// "config" flag, the environment and finally explicitly set flags.
// fs may be nil, in which case only defaults and the environment apply.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if fs != nil {
		if path, _ := fs.GetString(flagConfig); path != "" {
			if err := parseFile(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	parseEnv(cfg)

	if fs != nil {
		if err := applyFlags(fs, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
	}
	if c.ReconcileTimeout <= 0 || c.BootstrapTimeout <= 0 {
		return errors.New("reconcile and bootstrap timeouts must be positive")
	}
	if c.PageSize <= 0 {
		return errors.New("page size must be positive")
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
