package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env
	Env     string // development | production | test

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtAccessSecret  string
	JwtRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	// Server
	ApiPort   string
	ClientURL string // CORS origin the browser client is served from

	// Google federated login
	GoogleClientID string

	// AWS S3 (media host)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseURL       string
	ImageMaxSizeMB     int
	ImageMaxBatch      int

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// Caching
	GetCacheTTL time.Duration
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
// Missing required secrets are a fatal startup condition, not a
// per-request error.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.Env = getEnv("APP_ENV", "development")

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "dwellhub")

	cfg.JwtAccessSecret, err = getRequiredEnv("JWT_ACCESS_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.JwtRefreshSecret, err = getRequiredEnv("JWT_REFRESH_SECRET")
	if err != nil {
		return nil, err
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ClientURL = getEnv("CLIENT_URL", "http://localhost:5173")
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseURL = getEnv("IMAGE_BASE_URL", "")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@dwellhub.example.com")

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	accessTTLHours, err := strconv.ParseInt(getEnv("ACCESS_TOKEN_TTL_HOURS", "24"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL_HOURS: %w", err)
	}
	cfg.AccessTokenTTL = time.Duration(accessTTLHours) * time.Hour

	refreshTTLDays, err := strconv.ParseInt(getEnv("REFRESH_TOKEN_TTL_DAYS", "7"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL_DAYS: %w", err)
	}
	cfg.RefreshTokenTTL = time.Duration(refreshTTLDays) * 24 * time.Hour

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.ImageMaxBatch, err = strconv.Atoi(getEnv("IMAGE_MAX_BATCH", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_BATCH: %w", err)
	}

	getCacheTTLSeconds, err := strconv.ParseInt(getEnv("GET_CACHE_TTL_SECONDS", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GET_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.GetCacheTTL = time.Duration(getCacheTTLSeconds) * time.Second

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings
// (secure cookies, JSON logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
