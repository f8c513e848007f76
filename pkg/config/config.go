package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Grouping  GroupingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	RequestTimeout int // seconds
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisAddr returns the host:port address of the Redis server
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// NATSConfig holds NATS event bus configuration
type NATSConfig struct {
	URL        string
	StreamName string
	Enabled    bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	DefaultLimit  int
	DefaultBurst  int
	RedisPrefix   string
}

// Window returns the rate limit window as a duration
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// MatchingConfig holds trip matching defaults
type MatchingConfig struct {
	GeohashPrecision     uint
	MaxOriginDistanceKm  float64
	MaxDestDistanceKm    float64
	TimeWindowMinutes    int
	MaxCandidates        int
}

// GroupingConfig holds auto-grouping defaults
type GroupingConfig struct {
	PoolingWindowHours int
	DefaultGroupSeats  int
	AttachMaxAttempts  int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 30),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gotogether"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:        getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName: getEnv("NATS_STREAM", "GOTOGETHER"),
			Enabled:    getEnvAsBool("NATS_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			DefaultLimit:  getEnvAsInt("RATE_LIMIT_DEFAULT_LIMIT", 120),
			DefaultBurst:  getEnvAsInt("RATE_LIMIT_DEFAULT_BURST", 20),
			RedisPrefix:   getEnv("RATE_LIMIT_REDIS_PREFIX", "ratelimit"),
		},
		Matching: MatchingConfig{
			GeohashPrecision:    uint(getEnvAsInt("MATCHING_GEOHASH_PRECISION", 7)),
			MaxOriginDistanceKm: getEnvAsFloat("MATCHING_MAX_ORIGIN_DISTANCE_KM", 2.0),
			MaxDestDistanceKm:   getEnvAsFloat("MATCHING_MAX_DEST_DISTANCE_KM", 3.0),
			TimeWindowMinutes:   getEnvAsInt("MATCHING_TIME_WINDOW_MINUTES", 15),
			MaxCandidates:       getEnvAsInt("MATCHING_MAX_CANDIDATES", 200),
		},
		Grouping: GroupingConfig{
			PoolingWindowHours: getEnvAsInt("GROUPING_POOLING_WINDOW_HOURS", 6),
			DefaultGroupSeats:  getEnvAsInt("GROUPING_DEFAULT_SEATS", 4),
			AttachMaxAttempts:  getEnvAsInt("GROUPING_ATTACH_MAX_ATTEMPTS", 3),
		},
	}

	if cfg.Grouping.DefaultGroupSeats <= 0 {
		return nil, fmt.Errorf("GROUPING_DEFAULT_SEATS must be positive, got %d", cfg.Grouping.DefaultGroupSeats)
	}
	if cfg.Matching.GeohashPrecision == 0 || cfg.Matching.GeohashPrecision > 12 {
		return nil, fmt.Errorf("MATCHING_GEOHASH_PRECISION must be in [1,12], got %d", cfg.Matching.GeohashPrecision)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
