package configs

import (
	"os"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Trading  TradingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration. An empty URL selects the
// JSON file store instead of PostgreSQL.
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds the static bearer token protecting mutating
// endpoints. Empty disables the check.
type AuthConfig struct {
	Token string
}

// TradingConfig holds engine configuration
type TradingConfig struct {
	QuoteAsset   string
	DataDir      string
	TickSchedule string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			Token: getEnv("APP_TOKEN", ""),
		},
		Trading: TradingConfig{
			QuoteAsset:   getEnv("QUOTE_ASSET", "USDC"),
			DataDir:      getEnv("DATA_DIR", "./data"),
			TickSchedule: getEnv("TICK_SCHEDULE", "*/1 * * * *"),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
