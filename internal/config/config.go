package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Remote API the client talks to
	API APIConfig

	// Identity provider endpoints
	Identity IdentityConfig

	// Stub server configuration
	Server ServerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the remote marketplace API configuration
type APIConfig struct {
	BaseURL string
}

// IdentityConfig holds the identity provider configuration
type IdentityConfig struct {
	BaseURL string
}

// ServerConfig holds configuration for the local stub server
type ServerConfig struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := os.Getenv("PRICEWATCH_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5000"
	}

	// The identity provider defaults to the same host as the API; the stub
	// server serves both contracts.
	identityURL := os.Getenv("PRICEWATCH_IDENTITY_URL")
	if identityURL == "" {
		identityURL = apiURL
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "pricewatch.sqlite"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			BaseURL: apiURL,
		},
		Identity: IdentityConfig{
			BaseURL: identityURL,
		},
		Server: ServerConfig{
			Port:        port,
			DatabaseURL: dbURL,
			JWTSecret:   os.Getenv("JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
