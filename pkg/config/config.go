package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	CompletionsAPIURL string
	CompletionsAPIKey string
	CompletionsModel  string
	HTTPPort          string
	DBPath            string
	AllowedOrigins    string
	SessionTimeout    time.Duration
	SnapshotInterval  time.Duration
	SweepInterval     time.Duration
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration, printEnv bool) time.Duration {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Default().Warn("Invalid duration, using default", "key", key, "value", raw)
		return defaultValue
	}
	return d
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		CompletionsAPIURL: getEnv("COMPLETIONS_API_URL", "https://api.openai.com/v1", printEnv),
		CompletionsAPIKey: getEnv("COMPLETIONS_API_KEY", "", printEnv),
		CompletionsModel:  getEnv("COMPLETIONS_MODEL", "gpt-4.1-mini", printEnv),
		HTTPPort:          getEnv("HTTP_PORT", "45900", printEnv),
		DBPath:            getEnv("DB_PATH", "./output/sqlite/dreamscape.db", printEnv),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*", printEnv),
		SessionTimeout:    getEnvDuration("SESSION_TIMEOUT", 30*time.Minute, printEnv),
		SnapshotInterval:  getEnvDuration("SNAPSHOT_INTERVAL", 5*time.Minute, printEnv),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Minute, printEnv),
	}

	if conf.SessionTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	return conf, nil
}
