package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	StorageBackendFS    = "fs"
	StorageBackendMinIO = "minio"
)

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	// Backend is "fs" (local directory) or "minio".
	Backend string `yaml:"backend"`
	// Root is the directory used by the fs backend.
	Root string `yaml:"root"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from an optional YAML file and environment variables.
// Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string        `yaml:"app_host"`
	Port        string        `yaml:"port"`
	Timezone    string        `yaml:"timezone"`
	BodyLimitMB int           `yaml:"body_limit_mb"`
	Storage     StorageConfig `yaml:"storage"`
	MinIO       MinIOConfig   `yaml:"minio"`
	// MockActor is attributed to every change until authentication exists.
	MockActor string `yaml:"mock_actor"`
	// ActiveUsers is reported verbatim by the stats endpoint.
	ActiveUsers int `yaml:"active_users"`
}

func defaults() *AppConfig {
	return &AppConfig{
		AppHost:     "localhost:8080",
		Port:        "8080",
		Timezone:    "UTC",
		BodyLimitMB: 50,
		Storage: StorageConfig{
			Backend: StorageBackendFS,
			Root:    "uploads",
		},
		MockActor:   "admin",
		ActiveUsers: 1,
	}
}

// Load reads configuration.
// If CONFIG_FILE is set, that YAML file provides base values; environment
// variables then take precedence. A .env file can be auto-loaded by importing:
// _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.AppHost = getEnv("APP_HOST", cfg.AppHost)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Timezone = getEnv("APP_TIMEZONE", cfg.Timezone)
	cfg.BodyLimitMB = getEnvInt("BODY_LIMIT_MB", cfg.BodyLimitMB)
	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Root = getEnv("STORAGE_ROOT", cfg.Storage.Root)
	cfg.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIO.AccessKey)
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIO.SecretKey)
	cfg.MinIO.Bucket = getEnv("MINIO_BUCKET", cfg.MinIO.Bucket)
	cfg.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.MinIO.UseSSL)
	cfg.MockActor = getEnv("MOCK_ACTOR", cfg.MockActor)
	cfg.ActiveUsers = getEnvInt("ACTIVE_USERS", cfg.ActiveUsers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendFS:
		if c.Storage.Root == "" {
			return fmt.Errorf("invalid config: storage root is required for the fs backend")
		}
	case StorageBackendMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("invalid config: minio endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("invalid config: body limit must be positive")
	}
	return nil
}

func loadFile(path string, cfg *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
