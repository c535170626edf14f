package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StorePostgres StoreBackend = "postgres"
	StoreInMemory StoreBackend = "memory"
)

// Config holds the full application configuration, loaded from the
// environment (optionally seeded from a .env file).
type Config struct {
	ServerPort      string
	BaseURL         string
	AdminToken      string
	StoreBackend    StoreBackend
	ShutdownTimeout time.Duration

	PostgresURL      string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	RedisAddr     string
	CacheTTL      time.Duration
	CacheDisabled bool

	CodeLength     int
	MaxCodeRetries int

	RateLimitEnabled bool
	RateLimitRate    int
	RateLimitWindow  time.Duration
}

// LoadConfig loads environment variables and returns the configuration.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config := &Config{
		ServerPort:      getEnvWithDefault("PORT", "8080"),
		BaseURL:         os.Getenv("BASE_URL"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		StoreBackend:    StoreBackend(getEnvWithDefault("STORE_BACKEND", string(StorePostgres))),
		ShutdownTimeout: getDurationWithDefault("SHUTDOWN_TIMEOUT", 15*time.Second),

		PostgresURL:      os.Getenv("POSTGRES_URL"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresSSLMode:  getEnvWithDefault("POSTGRES_SSLMODE", "prefer"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		CacheTTL:      getDurationWithDefault("CACHE_TTL", time.Minute),
		CacheDisabled: getBoolWithDefault("CACHE_DISABLED", false),

		CodeLength:     getIntWithDefault("CODE_LENGTH", 7),
		MaxCodeRetries: getIntWithDefault("MAX_CODE_RETRIES", 10),

		RateLimitEnabled: getBoolWithDefault("RATE_LIMIT_ENABLED", true),
		RateLimitRate:    getIntWithDefault("RATE_LIMIT_RATE", 60),
		RateLimitWindow:  getDurationWithDefault("RATE_LIMIT_WINDOW", time.Minute),
	}

	if portStr := os.Getenv("POSTGRES_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}
		config.PostgresPort = port
	} else {
		config.PostgresPort = 5432
	}

	if config.BaseURL == "" {
		config.BaseURL = fmt.Sprintf("http://localhost:%s", config.ServerPort)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.StoreBackend == StorePostgres && config.PostgresURL == "" {
		if config.PostgresHost == "" || config.PostgresUser == "" || config.PostgresDB == "" {
			return nil, errors.New("either POSTGRES_URL or POSTGRES_HOST, POSTGRES_USER, and POSTGRES_DB must be set")
		}
		config.PostgresURL = buildPostgresURL(config)
	}

	return config, nil
}

// Validate checks the parts of the configuration that would otherwise fail
// at an awkward moment deep inside a request.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s (must be 1-65535)", c.ServerPort)
	}

	if c.AdminToken == "" {
		return errors.New("ADMIN_TOKEN must be set")
	}

	if c.StoreBackend != StorePostgres && c.StoreBackend != StoreInMemory {
		return fmt.Errorf("unknown store backend: %s (must be postgres or memory)", c.StoreBackend)
	}

	if c.CodeLength < 4 || c.CodeLength > 16 {
		return fmt.Errorf("invalid CODE_LENGTH: %d (must be 4-16)", c.CodeLength)
	}

	if c.MaxCodeRetries < 1 {
		return fmt.Errorf("invalid MAX_CODE_RETRIES: %d (must be >= 1)", c.MaxCodeRetries)
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// buildPostgresURL constructs a PostgreSQL connection URL from individual parameters.
func buildPostgresURL(config *Config) string {
	password := ""
	if config.PostgresPassword != "" {
		password = ":" + config.PostgresPassword
	}

	return fmt.Sprintf("postgres://%s%s@%s:%d/%s?sslmode=%s",
		config.PostgresUser,
		password,
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresDB,
		config.PostgresSSLMode,
	)
}
