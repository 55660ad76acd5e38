package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Gemini     GeminiConfig
	Affiliate  AffiliateConfig
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Verifier   VerifierConfig
	Logging    LoggingConfig
	Admin      AdminConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	StaticDir      string
}

// GeminiConfig holds Gemini API configuration.
// The API key is not stored here; APIKey re-reads it on every call.
type GeminiConfig struct {
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
	Temperature         float64
	MaxOutputTokens     int
}

// AffiliateConfig holds the default affiliate identifiers appended to outbound links
type AffiliateConfig struct {
	AmazonTag string
	EbayID    string
	BestBuyID string
	ImpactID  string
}

// PostgreSQLConfig holds the mission log database configuration
type PostgreSQLConfig struct {
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds result cache configuration
type RedisConfig struct {
	URL string
	DB  int
	TTL time.Duration
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// VerifierConfig controls the optional direct-link liveness probe
type VerifierConfig struct {
	Enabled bool
	Timeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// AdminConfig holds admin dashboard access configuration
type AdminConfig struct {
	Passcode string
}

// APIKeyEnvVars lists the variables the Gemini key is read from, in order
var APIKeyEnvVars = []string{"API_KEY", "GEMINI_API_KEY"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			StaticDir:      getEnv("STATIC_DIR", "./web/dist"),
		},
		Gemini: GeminiConfig{
			Model:               getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			EmbeddingModel:      getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			EmbeddingDimensions: getEnvAsInt("GEMINI_EMBEDDING_DIMENSIONS", 768),
			Temperature:         getEnvAsFloat("GEMINI_TEMPERATURE", 0),
			MaxOutputTokens:     getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 8192),
		},
		Affiliate: AffiliateConfig{
			AmazonTag: getEnv("AFFILIATE_AMAZON_TAG", ""),
			EbayID:    getEnv("AFFILIATE_EBAY_ID", ""),
			BestBuyID: getEnv("AFFILIATE_BESTBUY_ID", ""),
			ImpactID:  getEnv("AFFILIATE_IMPACT_ID", ""),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			DB:  getEnvAsInt("REDIS_DB", 0),
			TTL: time.Duration(getEnvAsInt("CACHE_TTL", 600)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 1),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
		Verifier: VerifierConfig{
			Enabled: getEnvAsBool("VERIFY_DIRECT_LINKS", false),
			Timeout: time.Duration(getEnvAsInt("VERIFY_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admin: AdminConfig{
			Passcode: getEnv("ADMIN_PASSCODE", ""),
		},
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", cfg.RateLimit.RequestsPerSecond)
	}

	return cfg, nil
}

// APIKey returns the Gemini credential from the environment, or "" if none is set
func APIKey() string {
	for _, key := range APIKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
