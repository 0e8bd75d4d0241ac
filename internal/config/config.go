package config

import (
	"os"
	"time"

	"go-recipe-pipeline/pkg/utils"
)

// Config holds the server configuration, read from environment variables
// with sensible local-dev defaults.
type Config struct {
	Addr        string        // listen address
	DBPath      string        // sqlite database path
	StorageDir  string        // durable asset directory
	BaseURL     string        // our own public origin (asset URLs, webhooks)
	ProviderURL string        // generation provider prediction endpoint
	WaitTimeout time.Duration // generation completion wait timeout
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Addr:        getenv("RECIPES_ADDR", ":8080"),
		DBPath:      getenv("RECIPES_DB", "recipes.db"),
		StorageDir:  getenv("RECIPES_STORAGE_DIR", "storage"),
		BaseURL:     getenv("RECIPES_BASE_URL", "http://localhost:8080"),
		ProviderURL: getenv("RECIPES_PROVIDER_URL", "http://localhost:8188/predictions"),
		WaitTimeout: utils.ParseDuration(os.Getenv("RECIPES_WAIT_TIMEOUT")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
