package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears every COMMUNITY_* variable and points the .env lookup
// at an empty temp dir, restoring both when the test ends.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{EnvAPIURL, EnvStorage, EnvSQLitePath, EnvRedisAddr, EnvRedisPassword, EnvRedisDB, EnvLogLevel, EnvStatusAddr} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	old := dotEnvFile
	dotEnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { dotEnvFile = old })
	return dir
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:5000/api", c.APIBaseURL)
	assert.Equal(t, 5*time.Second, c.ReconcileTimeout)
	assert.Equal(t, 10*time.Second, c.BootstrapTimeout)
	assert.Equal(t, BackendSQLite, c.Storage.Backend)
	assert.Equal(t, 10, c.PageSize)
	assert.True(t, c.DigestEnabled)
}

func TestLoadConfig_NoSourcesEqualsDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestLoadConfig_JSONFileOverlaysOnlyPresentKeys(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "cfg.json", `{
		"api_base_url": "https://hub.example.org/api",
		"reconcile_timeout": "2s",
		"storage": {"backend": "memory"}
	}`)

	cfg, err := LoadConfig(newFlagSet(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "https://hub.example.org/api", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.ReconcileTimeout)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Second, cfg.BootstrapTimeout, "missing key keeps default")
	assert.Equal(t, "communityhub:", cfg.Storage.RedisPrefix, "missing nested key keeps default")
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "cfg.yaml", `
api_base_url: https://yaml.example.org/api
bootstrap_timeout: 3s
page_size: 25
storage:
  backend: redis
  redis_addr: 10.0.0.1:6379
`)

	cfg, err := LoadConfig(newFlagSet(t, "-c", path))
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.org/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.BootstrapTimeout)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "10.0.0.1:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.ReconcileTimeout)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	isolateEnv(t)
	bad := writeFile(t, "bad.json", `{ this is not json`)

	_, err := LoadConfig(newFlagSet(t, "--config", bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")

	_, err = LoadConfig(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "cfg.json", `{"api_base_url": "https://file.example.org"}`)
	t.Setenv(EnvAPIURL, "https://env.example.org")
	t.Setenv(EnvRedisDB, "3")

	cfg, err := LoadConfig(newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.APIBaseURL)
	assert.Equal(t, 3, cfg.Storage.RedisDB)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("COMMUNITY_STATUS_ADDR=127.0.0.1:9100\n"), 0o600))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.StatusAddr)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvAPIURL, "https://env.example.org")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfig(newFlagSet(t,
		"-a", "https://flag.example.org",
		"--page-size", "5",
		"-i", "30",
		"--no-digest",
	))
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.org", cfg.APIBaseURL)
	assert.Equal(t, "warn", cfg.LogLevel, "unset flag must not clobber env")
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.SessionRefreshInterval)
	assert.False(t, cfg.DigestEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "relative url", mutate: func(c *Config) { c.APIBaseURL = "/api" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "etcd" }},
		{name: "zero reconcile timeout", mutate: func(c *Config) { c.ReconcileTimeout = 0 }},
		{name: "zero page size", mutate: func(c *Config) { c.PageSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
