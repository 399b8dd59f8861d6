package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Identity provider kinds
const (
	IdentityLocal  = "local"
	IdentityRemote = "remote"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	InferenceURL       string
	InferenceStatusURL string
	InferenceTimeout   time.Duration

	IdentityProvider string
	AuthURL          string
	AuthAPIKey       string
	AuthTimeout      time.Duration
	JWTSecret        string
	TokenTTL         time.Duration

	RedisURL          string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowedOrigins []string
	TrustedProxies     []string

	ValidateChildOwnership bool

	SESRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	MaxBodyBytes int64
	Debug        bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	inferenceURL := strings.TrimRight(getEnv("INFERENCE_URL", getEnv("FLASK_API_URL", "http://localhost:5000")), "/")

	return &Config{
		ServerPort:             getEnv("PORT", "3000"),
		DatabaseType:           getEnv("DB_TYPE", "sqlite"),
		DatabasePath:           getEnv("DB_PATH", "./stuntcheck.db"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		InferenceURL:           inferenceURL,
		InferenceStatusURL:     getEnv("INFERENCE_STATUS_URL", getEnv("STATUS_URL", inferenceURL+"/")),
		InferenceTimeout:       getEnvDuration("INFERENCE_TIMEOUT", 10*time.Second),
		IdentityProvider:       strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityLocal)),
		AuthURL:                strings.TrimRight(getEnv("AUTH_URL", getEnv("SUPABASE_URL", "")), "/"),
		AuthAPIKey:             getEnv("AUTH_API_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		AuthTimeout:            getEnvDuration("AUTH_TIMEOUT", 10*time.Second),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		TokenTTL:               getEnvDuration("TOKEN_TTL", time.Hour),
		RedisURL:               getEnv("REDIS_URL", ""),
		RateLimitRequests:      getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TrustedProxies:         splitList(getEnv("TRUSTED_PROXIES", "")),
		ValidateChildOwnership: getEnvBool("VALIDATE_CHILD_OWNERSHIP", false),
		SESRegion:              getEnv("SES_REGION", "us-east-1"),
		SESFromEmail:           getEnv("SES_FROM_EMAIL", ""),
		SESFromName:            getEnv("SES_FROM_NAME", "Stuntcheck"),
		AppBaseURL:             getEnv("APP_BASE_URL", "http://localhost:3000"),
		MaxBodyBytes:           1 << 20, // 1MB
		Debug:                  getEnvBool("DEBUG", false),
	}
}

// Validate reports configuration combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.IdentityProvider {
	case IdentityLocal:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required for the local identity provider")
		}
	case IdentityRemote:
		if c.AuthURL == "" {
			return errors.New("AUTH_URL is required for the remote identity provider")
		}
	default:
		return fmt.Errorf("unsupported identity provider: %s", c.IdentityProvider)
	}

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if c.InferenceURL == "" {
		return errors.New("INFERENCE_URL is required")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go duration strings ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
