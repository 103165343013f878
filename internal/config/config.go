package config

import (
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Paths      PathConfig
	Simulation SimulationConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port              string
	MaxConcurrentRuns int64
}

// DatabaseConfig holds the optional run-archive connection. An empty URL
// disables archiving entirely.
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	ClimateFile string // empty means synthetic climate fallback
	OutputDir   string
}

// SimulationConfig holds simulation defaults overridable per request
type SimulationConfig struct {
	Seed    int64
	Workers int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvOrDefault("PORT", "8080"),
			MaxConcurrentRuns: int64(getEnvIntOrDefault("MAX_CONCURRENT_RUNS", 2)),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Paths: PathConfig{
			ClimateFile: getEnvOrDefault("CLIMATE_FILE", ""),
			OutputDir:   getEnvOrDefault("OUTPUT_DIR", "."),
		},
		Simulation: SimulationConfig{
			Seed:    int64(getEnvIntOrDefault("SIM_SEED", 42)),
			Workers: getEnvIntOrDefault("SIM_WORKERS", 0), // 0 = NumCPU
		},
	}, nil
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
