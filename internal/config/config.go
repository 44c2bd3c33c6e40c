package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseType   string // "sqlite" (default), "postgres", "mysql"
	DatabasePath   string // for SQLite
	DatabaseURL    string // for PostgreSQL/MySQL
	MigrationsPath string
	TimeZone       string

	// RetainRejected keeps rejected relation records instead of deleting
	// them. Retention blocks immediate re-requests via the uniqueness
	// constraint; deletion lets the requester ask again.
	RetainRejected bool

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./nestcare.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		TimeZone:       getEnv("TIME_ZONE", "Asia/Shanghai"),
		RetainRejected: getBoolEnv("RETAIN_REJECTED", false),
		AWSRegion:      getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "NestCare"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:     getBoolEnv("EMAIL_DEBUG", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv reads a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
