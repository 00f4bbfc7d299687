package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"rideshare/internal/domain"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Auth      AuthConfig
	Rides     RidesConfig
	Ping      PingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedCORS     string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // json or text
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver      string
	OpTimeout   time.Duration
	ConnectWait time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Migrate  bool
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds credential and token settings.
type AuthConfig struct {
	SecretKey  string
	TokenTTL   time.Duration // 0 issues tokens without an exp claim
	BcryptCost int
}

// RidesConfig holds the ride posting policy.
type RidesConfig struct {
	DedupeWindow time.Duration
	TTL          time.Duration
	ReapInterval time.Duration
	DedupeKey    domain.DedupeKey
}

// PingConfig holds the keep-alive ping job settings. An empty URL disables it.
type PingConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

// RateLimitConfig holds per-IP limits for the auth endpoints.
type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

// Load loads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedCORS:     getEnv("ALLOWED_CORS", "*"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", StoreDriverPostgres),
			OpTimeout:   getDurationEnv("STORE_OP_TIMEOUT", 3*time.Second),
			ConnectWait: getDurationEnv("STORE_CONNECT_WAIT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rideshare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Migrate:  getBoolEnv("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 30*time.Second),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "rideshare"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			SecretKey:  getEnv("SECRET_KEY", ""),
			TokenTTL:   getDurationEnv("AUTH_TOKEN_TTL", 24*time.Hour),
			BcryptCost: getIntEnv("AUTH_BCRYPT_COST", 10),
		},
		Rides: RidesConfig{
			DedupeWindow: getDurationEnv("RIDES_DEDUPE_WINDOW", 15*time.Minute),
			TTL:          getDurationEnv("RIDES_TTL", 900*time.Second),
			ReapInterval: getDurationEnv("RIDES_REAP_INTERVAL", 30*time.Second),
			DedupeKey:    domain.DedupeKey(getEnv("RIDES_DEDUPE_KEY", string(domain.DedupeKeyEmail))),
		},
		Ping: PingConfig{
			URL:      getEnv("PING_URL", ""),
			Interval: getDurationEnv("PING_INTERVAL", 10*time.Minute),
			Timeout:  getDurationEnv("PING_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   getFloatEnv("RATE_LIMIT_AUTH_RPS", 5),
			AuthBurst: getIntEnv("RATE_LIMIT_AUTH_BURST", 10),
		},
	}
}

// Validate reports configuration that would make the service misbehave.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver))
	}

	if c.Auth.SecretKey == "" && c.Store.Driver != StoreDriverMemory {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}

	if !c.Rides.DedupeKey.Valid() {
		errs = append(errs, fmt.Errorf("RIDES_DEDUPE_KEY must be %q or %q, got %q", domain.DedupeKeyEmail, domain.DedupeKeyLegacyPhone, c.Rides.DedupeKey))
	}

	if c.Rides.DedupeWindow <= 0 {
		errs = append(errs, errors.New("RIDES_DEDUPE_WINDOW must be positive"))
	}
	if c.Rides.TTL <= 0 {
		errs = append(errs, errors.New("RIDES_TTL must be positive"))
	}
	if c.Rides.ReapInterval <= 0 {
		errs = append(errs, errors.New("RIDES_REAP_INTERVAL must be positive"))
	}
	if c.Store.OpTimeout <= 0 {
		errs = append(errs, errors.New("STORE_OP_TIMEOUT must be positive"))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("15m") and plain integers as seconds ("900").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
