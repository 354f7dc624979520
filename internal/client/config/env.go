package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL        = "COMMUNITY_API_URL"
	EnvStorage       = "COMMUNITY_STORAGE"
	EnvSQLitePath    = "COMMUNITY_SQLITE_PATH"
	EnvRedisAddr     = "COMMUNITY_REDIS_ADDR"
	EnvRedisPassword = "COMMUNITY_REDIS_PASSWORD"
	EnvRedisDB       = "COMMUNITY_REDIS_DB"
	EnvLogLevel      = "COMMUNITY_LOG_LEVEL"
	EnvStatusAddr    = "COMMUNITY_STATUS_ADDR"
)

// dotEnvFile is read before the environment is consulted. Variables that are
// already set in the process environment win over the file.
var dotEnvFile = ".env"

func parseEnv(cfg *Config) {
	// A missing or malformed .env is not fatal; the process environment still applies.
	_ = godotenv.Load(dotEnvFile)

	cfg.APIBaseURL = getEnv(EnvAPIURL, cfg.APIBaseURL)
	cfg.Storage.Backend = getEnv(EnvStorage, cfg.Storage.Backend)
	cfg.Storage.SQLitePath = getEnv(EnvSQLitePath, cfg.Storage.SQLitePath)
	cfg.Storage.RedisAddr = getEnv(EnvRedisAddr, cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv(EnvRedisPassword, cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = getEnvAsInt(EnvRedisDB, cfg.Storage.RedisDB)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.StatusAddr = getEnv(EnvStatusAddr, cfg.StatusAddr)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
