// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port   string
	AppEnv string

	// APIPassword gates personal API key issuance. When empty the server
	// runs with a random ephemeral signing secret: issuance is disabled and
	// every previously issued key stops verifying after a restart.
	APIPassword string

	// AdminPassword gates the admin surface. When empty the admin endpoints
	// reject every login.
	AdminPassword string

	// UploadDir is the root under which per-client directories are created.
	UploadDir string

	// PublicBaseURL is prepended to image URLs in responses when set
	// (e.g. "https://img.example.com"). Empty means relative URLs.
	PublicBaseURL string

	// MaxUploadFiles / MaxFileSize mirror the transport-level upload limits.
	MaxUploadFiles int
	MaxFileSize    int64

	// StorageDriver selects the storage engine: "disk" (default) or "s3".
	StorageDriver string

	// Object storage settings, used only when StorageDriver is "s3".
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StorageUseSSL     bool
	StoragePublicBase string
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),

		APIPassword:   getEnv("API_PASSWORD", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		MaxUploadFiles: getEnvInt("MAX_UPLOAD_FILES", 10),
		MaxFileSize:    int64(getEnvInt("MAX_FILE_SIZE", 10<<20)),

		StorageDriver: getEnv("STORAGE_DRIVER", "disk"),

		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:     getEnv("STORAGE_BUCKET", "images"),
		StorageUseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
		StoragePublicBase: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:9000/images"),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
