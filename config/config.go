package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server Configuration
	Port        string
	Environment string
	LogLevel    string

	// Database Configuration
	DBDriver string
	MongoURI string
	DBName   string

	// JWT Configuration
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	// Payment Gateway Configuration
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	PaymentCurrency       string

	// Security Configuration
	CORSAllowedOrigins []string
	RateLimitEnabled   bool

	// Event Configuration
	AMQPURL        string
	EventsExchange string

	// Archive Configuration
	ArchiveDriver      string
	ArchivePath        string
	ArchiveBucket      string
	ArchiveEndpoint    string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Job Configuration
	PlanExpirySchedule     string
	PendingCleanupSchedule string
	PendingPaymentTTL      time.Duration

	// Application Configuration
	AppName    string
	AppVersion string

	// Admin Configuration
	AdminDefaultEmail string
	AdminDefaultPass  string
}

var AppConfig *Config

// LoadConfig loads configuration from a .env file (if present) and the environment
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Could not read .env file")
	}

	config := &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBDriver: getEnv("DB_DRIVER", "mongo"),
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "agrispray"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", "24h"),
		RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", "168h"),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 10),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		PaymentCurrency:       getEnv("PAYMENT_CURRENCY", "INR"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),
		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),

		AMQPURL:        getEnv("AMQP_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "agrispray.events"),

		ArchiveDriver:      getEnv("ARCHIVE_DRIVER", "local"),
		ArchivePath:        getEnv("ARCHIVE_PATH", "./data/webhooks"),
		ArchiveBucket:      getEnv("ARCHIVE_BUCKET", ""),
		ArchiveEndpoint:    getEnv("ARCHIVE_ENDPOINT", ""),
		AWSRegion:          getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		PlanExpirySchedule:     getEnv("PLAN_EXPIRY_SCHEDULE", "@every 1h"),
		PendingCleanupSchedule: getEnv("PENDING_CLEANUP_SCHEDULE", "@every 6h"),
		PendingPaymentTTL:      getEnvAsDuration("PENDING_PAYMENT_TTL", "48h"),

		AppName:    getEnv("APP_NAME", "AgriSpray"),
		AppVersion: getEnv("APP_VERSION", "1.0.0"),

		AdminDefaultEmail: getEnv("ADMIN_DEFAULT_EMAIL", "admin@agrispray.local"),
		AdminDefaultPass:  getEnv("ADMIN_DEFAULT_PASS", "admin123"),
	}

	AppConfig = config
	return config
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate rejects configurations that cannot serve payments safely
func (c *Config) Validate() error {
	var problems []string

	switch c.DBDriver {
	case "mongo", "memory":
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be mongo or memory, got %q", c.DBDriver))
	}
	switch c.ArchiveDriver {
	case "local", "s3", "none":
	default:
		problems = append(problems, fmt.Sprintf("ARCHIVE_DRIVER must be local, s3 or none, got %q", c.ArchiveDriver))
	}
	if c.ArchiveDriver == "s3" && c.ArchiveBucket == "" {
		problems = append(problems, "ARCHIVE_BUCKET is required for the s3 archive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "change-me-in-production" {
			problems = append(problems, "JWT_SECRET must be set in production")
		}
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			problems = append(problems, "RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set in production")
		}
		if c.RazorpayWebhookSecret == "" {
			problems = append(problems, "RAZORPAY_WEBHOOK_SECRET must be set in production")
		}
		if c.DBDriver == "memory" {
			problems = append(problems, "the memory driver cannot be used in production")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	if parsed, err := time.ParseDuration(defaultValue); err == nil {
		return parsed
	}
	return 24 * time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
