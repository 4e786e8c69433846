package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"gridfit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Engine   EngineConfig
	Data     DataConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
	Enabled bool
}

// ServerConfig holds HTTP API server settings
type ServerConfig struct {
	Port string
}

// EngineConfig holds selection engine defaults
type EngineConfig struct {
	Workers    int
	Seed       int64
	Folds      int
	Repeats    int
	TrainRatio float64
	Metric     string
}

// DataConfig holds data source settings
type DataConfig struct {
	File          string // CSV or XLSX path
	RemoteURL     string // optional JSON endpoint
	RemoteTimeout time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Engine: EngineConfig{
			Workers:    getEnvIntOrDefault("GRIDFIT_WORKERS", runtime.NumCPU()),
			Seed:       int64(getEnvIntOrDefault("GRIDFIT_SEED", 42)),
			Folds:      getEnvIntOrDefault("GRIDFIT_FOLDS", 10),
			Repeats:    getEnvIntOrDefault("GRIDFIT_REPEATS", 5),
			TrainRatio: getEnvFloatOrDefault("GRIDFIT_TRAIN_RATIO", 0.75),
			Metric:     getEnvOrDefault("GRIDFIT_METRIC", "auc"),
		},
		Data: DataConfig{
			File:          getEnvOrDefault("GRIDFIT_DATA_FILE", ""),
			RemoteURL:     getEnvOrDefault("GRIDFIT_REMOTE_URL", ""),
			RemoteTimeout: getEnvDurationOrDefault("GRIDFIT_REMOTE_TIMEOUT", 30*time.Second),
		},
	}
	cfg.Database.Enabled = cfg.Database.URL != ""

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Engine.Workers < 1 {
		return errors.ConfigInvalid("GRIDFIT_WORKERS must be at least 1")
	}
	if cfg.Engine.Folds < 2 {
		return errors.ConfigInvalid("GRIDFIT_FOLDS must be at least 2")
	}
	if cfg.Engine.Repeats < 1 {
		return errors.ConfigInvalid("GRIDFIT_REPEATS must be at least 1")
	}
	if cfg.Engine.TrainRatio <= 0 || cfg.Engine.TrainRatio >= 1 {
		return errors.ConfigInvalid("GRIDFIT_TRAIN_RATIO must be in (0,1)")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
