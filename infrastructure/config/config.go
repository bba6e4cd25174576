package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds all server configuration
type Config struct {
	// Server configuration
	ServerAddress  string
	Environment    string
	MaxUploadBytes int64

	// Storage configuration
	StorageBackend string
	BlobRoot       string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - collection listings and name lookups
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret    string
	JWTPublicKey string // PEM; switches validation to RS256
	JWTIssuer    string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Feature flags
	EnableEvents  bool
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool

	ShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 100<<20)),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		BlobRoot:       getEnv("BLOB_ROOT", "data/documents"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "nexusnote")),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "nexusnote-events"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Authentication
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTPublicKey: getEnv("JWT_PUBLIC_KEY", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "nexusnote"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageDynamoDB:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StorageDynamoDB, c.StorageBackend)
	}

	if c.StorageBackend == StorageDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb backend")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" && c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY is required in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesAWS reports whether any AWS client is needed
func (c *Config) UsesAWS() bool {
	return c.StorageBackend == StorageDynamoDB || c.EnableEvents || c.EnableMetrics
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
