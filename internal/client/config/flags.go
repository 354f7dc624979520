package config

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	flagConfig          = "config"
	flagAPIURL          = "api-url"
	flagStorage         = "storage"
	flagSQLitePath      = "sqlite-path"
	flagRedisAddr       = "redis-addr"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagStatusAddr      = "status-addr"
	flagPageSize        = "page-size"
	flagRateLimit       = "rate-limit"
	flagRefreshInterval = "refresh-interval"
	flagNoDigest        = "no-digest"
)

// RegisterFlags declares every flag LoadConfig understands on fs.
// The declared defaults are only shown in help output; values are taken
// from fs only when the flag was explicitly set.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to a JSON or YAML config file")
	fs.StringP(flagAPIURL, "a", d.APIBaseURL, "base URL of the community API")
	fs.String(flagStorage, d.Storage.Backend, "local storage backend: sqlite, redis or memory")
	fs.String(flagSQLitePath, d.Storage.SQLitePath, "path of the SQLite database file")
	fs.String(flagRedisAddr, d.Storage.RedisAddr, "address of the Redis server")
	fs.String(flagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(flagLogFormat, d.LogFormat, "log format: text or json")
	fs.String(flagStatusAddr, d.StatusAddr, "listen address of the local status server (empty disables it)")
	fs.Int(flagPageSize, d.PageSize, "items per page when listing")
	fs.Float64(flagRateLimit, d.RateLimit, "max API requests per second (0 = unlimited)")
	fs.IntP(flagRefreshInterval, "i", int(d.SessionRefreshInterval.Seconds()), "session refresh interval in seconds (0 disables)")
	fs.Bool(flagNoDigest, false, "do not schedule daily and weekly digests")
}

func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}

	str(flagAPIURL, &cfg.APIBaseURL)
	str(flagStorage, &cfg.Storage.Backend)
	str(flagSQLitePath, &cfg.Storage.SQLitePath)
	str(flagRedisAddr, &cfg.Storage.RedisAddr)
	str(flagLogLevel, &cfg.LogLevel)
	str(flagLogFormat, &cfg.LogFormat)
	str(flagStatusAddr, &cfg.StatusAddr)
	if err != nil {
		return err
	}

	if fs.Changed(flagPageSize) {
		if cfg.PageSize, err = fs.GetInt(flagPageSize); err != nil {
			return err
		}
	}
	if fs.Changed(flagRateLimit) {
		if cfg.RateLimit, err = fs.GetFloat64(flagRateLimit); err != nil {
			return err
		}
	}
	if fs.Changed(flagRefreshInterval) {
		secs, err := fs.GetInt(flagRefreshInterval)
		if err != nil {
			return err
		}
		cfg.SessionRefreshInterval = time.Duration(secs) * time.Second
	}
	if fs.Changed(flagNoDigest) {
		off, err := fs.GetBool(flagNoDigest)
		if err != nil {
			return err
		}
		cfg.DigestEnabled = !off
	}
	return nil
}
