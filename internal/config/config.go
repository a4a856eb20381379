package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration outside the db and cache layers,
// which load their own settings from the environment.
type Config struct {
	API       APIConfig
	Import    ImportConfig
	Validator ValidatorConfig
	Logging   LoggingConfig
}

type APIConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ImportConfig controls the import pipeline.
type ImportConfig struct {
	// WorkDir is the root under which each import gets its own
	// scratch subdirectory.
	WorkDir string
	// MaxUploadMB bounds the accepted feed upload size.
	MaxUploadMB int
}

type ValidatorConfig struct {
	URL     string
	Timeout time.Duration
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			Port:         getEnv("API_PORT", "8080"),
			ReadTimeout:  getDurationEnv("API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("API_WRITE_TIMEOUT", 60*time.Second),
		},
		Import: ImportConfig{
			WorkDir:     getEnv("IMPORT_WORK_DIR", os.TempDir()),
			MaxUploadMB: 100,
		},
		Validator: ValidatorConfig{
			URL:     getEnv("VALIDATOR_URL", ""),
			Timeout: getDurationEnv("VALIDATOR_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "feedforge.log"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
