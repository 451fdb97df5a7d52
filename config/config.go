// Package config loads runtime configuration from the environment.
//
// A .env file is loaded when present so local development does not
// need exported variables. Real deployments set the environment
// directly and have no .env file.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the server's runtime settings.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string
}

// Load reads configuration from the environment, falling back to
// development defaults.
func Load() Config {
	// Missing .env is fine.
	_ = godotenv.Load()

	return Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "./data/factory.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// NewLogger builds the process-wide structured logger. Output is JSON
// so log aggregators can index fields without parsing.
func NewLogger(cfg Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
