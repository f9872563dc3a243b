package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlite-pure, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Base URL used for deep links in notifications
	AppURL string

	// Outbound mail. An empty SMTPHost disables notifications.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPTLS      bool
	MailFrom     string

	// Enrollment integration webhook. An empty URL disables it.
	EnrollmentWebhookURL    string
	EnrollmentWebhookSecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    getEnv("PORT", "3000"),
		Environment:             getEnv("ENVIRONMENT", "development"),
		LogLevel:                getEnv("LOG_LEVEL", ""),
		CORSOrigins:             getEnv("CORS_ORIGINS", "http://localhost:3000"),
		DBType:                  getEnv("DB_TYPE", "postgres"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  getEnv("DB_PORT", "5432"),
		DBDatabase:              getEnv("DB_DATABASE", ""),
		DBUser:                  getEnv("DB_USER", ""),
		DBPassword:              getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:       getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:                getEnv("AUTHZ_URL", ""),
		AuthzClientID:           getEnv("AUTHZ_CLIENT_ID", ""),
		AppURL:                  strings.TrimSuffix(getEnv("APP_URL", "https://enrol.studio"), "/"),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:                getEnv("SMTP_USER", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPTLS:                 getEnvAsBool("SMTP_TLS", true),
		MailFrom:                getEnv("MAIL_FROM", "EnrolStudio <notifications@enrol.studio>"),
		EnrollmentWebhookURL:    getEnv("ENROLLMENT_WEBHOOK_URL", ""),
		EnrollmentWebhookSecret: getEnv("ENROLLMENT_WEBHOOK_SECRET", ""),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBType != "sqlite-pure" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}

	return cfg, nil
}

// MailEnabled reports whether outbound notification mail is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
