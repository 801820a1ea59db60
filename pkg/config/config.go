package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data sources
	Feeds  FeedsConfig
	Prices PricesConfig

	// Analytics
	Analytics AnalyticsConfig

	// Export
	DataDir       string
	CommitteeFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FeedsConfig holds disclosure feed configuration
type FeedsConfig struct {
	HouseURL      string
	SenateURL     string
	SenateEFDBase string
	UserAgent     string
	Timeout       time.Duration

	// RateLimitPerMin caps requests across all fetch processes sharing
	// the Redis window. Zero disables the shared limit.
	RateLimitPerMin int
}

// PricesConfig holds market price provider configuration
type PricesConfig struct {
	BaseURL         string
	BenchmarkTicker string
	RateLimit       float64 // requests per second
	Workers         int
}

// AnalyticsConfig holds tunable engine parameters
type AnalyticsConfig struct {
	SignalWindowDays      int
	SignalMinTraders      int
	PickLookbackDays      int
	PickMinBuyers         int
	PickLimit             int
	LeaderboardWindowDays int
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "dcwatch"),
			User:            getEnv("DB_USER", "dcwatch"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Data sources
		Feeds: FeedsConfig{
			HouseURL:        getEnv("HOUSE_FEED_URL", "https://house-stock-watcher-data.s3-us-west-2.amazonaws.com/data/all_transactions.json"),
			SenateURL:       getEnv("SENATE_FEED_URL", "https://senate-stock-watcher-data.s3-us-west-2.amazonaws.com/aggregate/all_transactions.json"),
			SenateEFDBase:   getEnv("SENATE_EFD_BASE_URL", "https://efdsearch.senate.gov"),
			UserAgent:       getEnv("FETCH_USER_AGENT", "dcwatch/1.0 (research; contact admin@dcwatch.dev)"),
			Timeout:         getEnvAsDuration("FETCH_TIMEOUT", "60s"),
			RateLimitPerMin: getEnvAsInt("FETCH_RATE_LIMIT_PER_MIN", 30),
		},

		Prices: PricesConfig{
			BaseURL:         getEnv("PRICE_API_BASE_URL", "https://query1.finance.yahoo.com"),
			BenchmarkTicker: getEnv("BENCHMARK_TICKER", "SPY"),
			RateLimit:       getEnvAsFloat("PRICE_RATE_LIMIT", 4.0),
			Workers:         getEnvAsInt("ENRICH_WORKERS", 8),
		},

		// Analytics
		Analytics: AnalyticsConfig{
			SignalWindowDays:      getEnvAsInt("SIGNAL_WINDOW_DAYS", 10),
			SignalMinTraders:      getEnvAsInt("SIGNAL_MIN_TRADERS", 3),
			PickLookbackDays:      getEnvAsInt("PICK_LOOKBACK_DAYS", 60),
			PickMinBuyers:         getEnvAsInt("PICK_MIN_BUYERS", 2),
			PickLimit:             getEnvAsInt("PICK_LIMIT", 5),
			LeaderboardWindowDays: getEnvAsInt("LEADERBOARD_WINDOW_DAYS", 365),
		},

		// Export
		DataDir:       getEnv("DATA_DIR", "data"),
		CommitteeFile: getEnv("COMMITTEE_FILE", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Prices.BenchmarkTicker == "" {
		return fmt.Errorf("BENCHMARK_TICKER must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
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
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
