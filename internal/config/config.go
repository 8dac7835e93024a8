// Package config loads environment configuration, optionally from a .env file.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings.
type Config struct {
	Addr        string
	Env         string // dev or prod, controls log format
	DatabaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// SweepSpec is the cron expression for the due-reminder sweep;
	// empty disables background jobs entirely.
	SweepSpec string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// The .env file is optional; production sets real environment variables.
	_ = godotenv.Load()

	return &Config{
		Addr:             getEnvOrDefault("ADDR", ":8080"),
		Env:              getEnvOrDefault("ENV", "dev"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OIDCIssuer:       os.Getenv("OIDC_ISSUER"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		SweepSpec:        getEnvOrDefault("SWEEP_SPEC", "* * * * *"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
