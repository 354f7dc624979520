package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/communityhub/internal/timex"
	"gopkg.in/yaml.v3"
)

// jsonConfig mirrors Config for JSON files. Durations go through
// timex.Duration so "5s" and plain nanoseconds are both accepted.
type jsonConfig struct {
	APIBaseURL             string         `json:"api_base_url"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
	ReconcileTimeout       timex.Duration `json:"reconcile_timeout"`
	BootstrapTimeout       timex.Duration `json:"bootstrap_timeout"`
	SessionRefreshInterval timex.Duration `json:"session_refresh_interval"`
	PageSize               int            `json:"page_size"`
	RateLimit              float64        `json:"rate_limit"`
	RateBurst              int            `json:"rate_burst"`
	Storage                jsonStorage    `json:"storage"`
	LogLevel               string         `json:"log_level"`
	LogFormat              string         `json:"log_format"`
	StatusAddr             string         `json:"status_addr"`
	DigestEnabled          bool           `json:"digest_enabled"`
}

type jsonStorage struct {
	Backend       string `json:"backend"`
	SQLitePath    string `json:"sqlite_path"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	RedisPrefix   string `json:"redis_prefix"`
}

// parseFile overlays cfg with the values present in the file at path.
// Keys missing from the file keep their current value.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		return nil
	}

	jc := toJSON(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	fromJSON(cfg, jc)
	return nil
}

func toJSON(c *Config) jsonConfig {
	return jsonConfig{
		APIBaseURL:             c.APIBaseURL,
		RequestTimeout:         timex.Duration{Duration: c.RequestTimeout},
		ReconcileTimeout:       timex.Duration{Duration: c.ReconcileTimeout},
		BootstrapTimeout:       timex.Duration{Duration: c.BootstrapTimeout},
		SessionRefreshInterval: timex.Duration{Duration: c.SessionRefreshInterval},
		PageSize:               c.PageSize,
		RateLimit:              c.RateLimit,
		RateBurst:              c.RateBurst,
		Storage:                jsonStorage(c.Storage),
		LogLevel:               c.LogLevel,
		LogFormat:              c.LogFormat,
		StatusAddr:             c.StatusAddr,
		DigestEnabled:          c.DigestEnabled,
	}
}

func fromJSON(c *Config, jc jsonConfig) {
	c.APIBaseURL = jc.APIBaseURL
	c.RequestTimeout = jc.RequestTimeout.Duration
	c.ReconcileTimeout = jc.ReconcileTimeout.Duration
	c.BootstrapTimeout = jc.BootstrapTimeout.Duration
	c.SessionRefreshInterval = jc.SessionRefreshInterval.Duration
	c.PageSize = jc.PageSize
	c.RateLimit = jc.RateLimit
	c.RateBurst = jc.RateBurst
	c.Storage = StorageConfig(jc.Storage)
	c.LogLevel = jc.LogLevel
	c.LogFormat = jc.LogFormat
	c.StatusAddr = jc.StatusAddr
	c.DigestEnabled = jc.DigestEnabled
}
