package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port               string
	CORSOrigins        []string
	Env                string
	RateLimitPerMinute int

	// Background budget sweep, 0 = disabled
	BudgetCheckInterval time.Duration

	// Report assembly
	Report ReportConfig

	// Redis report cache
	Redis RedisConfig

	// AMQP budget alert notifications
	AMQP AMQPConfig

	// S3 report export
	S3 S3Config
}

// ReportConfig tunes the chart builders
type ReportConfig struct {
	Palette     []string // Empty = built-in palette
	MonthWindow int
	MaxSeries   int
}

// RedisConfig holds the report cache connection
type RedisConfig struct {
	URL string // Empty = caching disabled
	TTL time.Duration
}

// AMQPConfig holds the notification broker connection
type AMQPConfig struct {
	URL      string // Empty = broker notifications disabled
	Exchange string
	Queue    string
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string // Empty = export disabled
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether report export is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	monthWindow, err := getEnvInt("REPORT_MONTH_WINDOW", 6)
	if err != nil {
		return nil, err
	}
	maxSeries, err := getEnvInt("REPORT_MAX_SERIES", 5)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := time.ParseDuration(getEnv("REPORT_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_CACHE_TTL: %w", err)
	}
	budgetInterval, err := time.ParseDuration(getEnv("BUDGET_CHECK_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("BUDGET_CHECK_INTERVAL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Auth0Domain:         getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:       getEnv("AUTH0_AUDIENCE", ""),
		Port:                getEnv("PORT", "8080"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:                 getEnv("ENV", "development"),
		RateLimitPerMinute:  rateLimit,
		BudgetCheckInterval: budgetInterval,
		Report: ReportConfig{
			Palette:     splitList(getEnv("CHART_PALETTE", "")),
			MonthWindow: monthWindow,
			MaxSeries:   maxSeries,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			TTL: cacheTTL,
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", ""),
			Queue:    getEnv("AMQP_QUEUE", "budget_alerts"),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Report.MonthWindow <= 0 {
		return fmt.Errorf("REPORT_MONTH_WINDOW must be positive")
	}
	if c.Report.MaxSeries <= 0 {
		return fmt.Errorf("REPORT_MAX_SERIES must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.BudgetCheckInterval < 0 {
		return fmt.Errorf("BUDGET_CHECK_INTERVAL must not be negative")
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("REPORT_CACHE_TTL must be positive when REDIS_URL is set")
	}
	if c.AMQP.URL != "" && c.AMQP.Queue == "" {
		return fmt.Errorf("AMQP_QUEUE is required when AMQP_URL is set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma-separated value, dropping blank entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
