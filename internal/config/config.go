// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the frontend, used for CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// NewsCacheTTL is how long article and bank listings stay cached in
	// Redis. Zero disables the cache.
	NewsCacheTTL time.Duration

	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Verification VerificationConfig
	SMTP         SMTPConfig
	AI           AIConfig
	RateLimit    RateLimitConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords. Times are read and written as UTC, and
// RowsAffected reports matched rather than changed rows.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string

	// PoolSize overrides go-redis's default pool size when positive.
	PoolSize int
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionTTL is how long a bearer token stays valid after login.
	// Zero disables expiry.
	SessionTTL time.Duration
}

// VerificationConfig holds email verification code settings.
type VerificationConfig struct {
	// EncryptionKey is the secret the code envelope key is derived from.
	EncryptionKey string

	// CodeTTL is how long an issued code stays valid (default: 10m).
	CodeTTL time.Duration

	// MaxAttempts is the number of wrong submissions allowed per code.
	MaxAttempts int
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string

	// Encryption is "starttls", "ssl", or "none".
	Encryption string
}

// IsConfigured reports whether enough SMTP settings are present to send mail.
func (s SMTPConfig) IsConfigured() bool {
	return s.Host != "" && s.FromAddress != ""
}

// AIConfig holds settings for the external language-model collaborators.
type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string

	PerplexityAPIKey  string
	PerplexityModel   string
	PerplexityBaseURL string

	// Timeout bounds every outbound model call.
	Timeout time.Duration
}

// RateLimitConfig holds per-IP request limits for sensitive endpoints.
type RateLimitConfig struct {
	LoginPerMinute    int
	RegisterPerMinute int
	VerifyPerMinute   int
	ChatPerMinute     int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "debug"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		NewsCacheTTL:   getEnvDuration("NEWS_CACHE_TTL", time.Minute),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "beritabank"),
			Password:        getEnv("DB_PASSWORD", "beritabank"),
			Name:            getEnv("DB_NAME", "beritabank"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 0),
		},

		Auth: AuthConfig{
			SessionTTL: getEnvDuration("SESSION_TTL", 720*time.Hour),
		},

		Verification: VerificationConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
			CodeTTL:       getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
			MaxAttempts:   getEnvInt("VERIFICATION_MAX_ATTEMPTS", 3),
		},

		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", ""),
			FromName:    getEnv("SMTP_FROM_NAME", "BeritaBank"),
			Encryption:  strings.ToLower(getEnv("SMTP_ENCRYPTION", "starttls")),
		},

		AI: AIConfig{
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
			PerplexityModel:   getEnv("PERPLEXITY_MODEL", "sonar-pro"),
			PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
			Timeout:           getEnvDuration("AI_TIMEOUT", 60*time.Second),
		},

		RateLimit: RateLimitConfig{
			LoginPerMinute:    getEnvInt("RATE_LIMIT_LOGIN", 10),
			RegisterPerMinute: getEnvInt("RATE_LIMIT_REGISTER", 5),
			VerifyPerMinute:   getEnvInt("RATE_LIMIT_VERIFY", 10),
			ChatPerMinute:     getEnvInt("RATE_LIMIT_CHAT", 20),
		},
	}

	if cfg.Verification.MaxAttempts < 1 {
		return nil, fmt.Errorf("VERIFICATION_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Verification.CodeTTL <= 0 {
		return nil, fmt.Errorf("VERIFICATION_CODE_TTL must be positive")
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	if cfg.IsProduction() {
		if cfg.Verification.EncryptionKey == "" {
			return nil, fmt.Errorf("ENCRYPTION_KEY is required in production")
		}
		if len(cfg.Verification.EncryptionKey) < 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default key so local dev works without .env.
	if cfg.Verification.EncryptionKey == "" {
		cfg.Verification.EncryptionKey = "dev-encryption-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
