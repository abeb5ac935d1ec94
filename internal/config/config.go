package config

import (
	"os"
	"strconv"
	"time"

	"goord/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Analysis  AnalysisConfig
	Plot      PlotConfig
	Session   SessionConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// UploadConfig holds file upload limits
type UploadConfig struct {
	MaxBytes int64
}

// AnalysisConfig holds classifier and test defaults
type AnalysisConfig struct {
	CategoricalThreshold int   // distinct-value cutoff for categorical classification
	DefaultPermutations  int
	MaxPermutations      int
	DefaultSeed          int64
}

// PlotConfig holds renderer settings
type PlotConfig struct {
	DPI      int
	WidthIn  float64
	HeightIn float64
}

// SessionConfig holds in-memory session lifecycle settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 32<<20),
		},
		Analysis: AnalysisConfig{
			CategoricalThreshold: getEnvIntOrDefault("CATEGORICAL_THRESHOLD", 10),
			DefaultPermutations:  getEnvIntOrDefault("DEFAULT_PERMUTATIONS", 999),
			MaxPermutations:      getEnvIntOrDefault("MAX_PERMUTATIONS", 100000),
			DefaultSeed:          getEnvInt64OrDefault("DEFAULT_SEED", 42),
		},
		Plot: PlotConfig{
			DPI:      getEnvIntOrDefault("PLOT_DPI", 300),
			WidthIn:  getEnvFloatOrDefault("PLOT_WIDTH_IN", 8),
			HeightIn: getEnvFloatOrDefault("PLOT_HEIGHT_IN", 6),
		},
		Session: SessionConfig{
			TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
			SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}
	if config.Analysis.CategoricalThreshold < 1 {
		return errors.ConfigInvalid("CATEGORICAL_THRESHOLD must be at least 1")
	}
	if config.Analysis.DefaultPermutations < 1 {
		return errors.ConfigInvalid("DEFAULT_PERMUTATIONS must be positive")
	}
	if config.Analysis.MaxPermutations < config.Analysis.DefaultPermutations {
		return errors.ConfigInvalid("MAX_PERMUTATIONS must be at least DEFAULT_PERMUTATIONS")
	}
	if config.Plot.DPI < 72 {
		return errors.ConfigInvalid("PLOT_DPI must be at least 72")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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
