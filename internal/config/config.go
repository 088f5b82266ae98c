package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is loaded once at
// process start and passed by reference to every component that needs it.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	QR       QRConfig
	Cache    CacheConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	PublicBaseURL   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	MaxBodyBytes    int64
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	MigrationsPath  string
	MaxConnectRetry time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	RefreshExpiry time.Duration
	BCryptCost    int
	Issuer        string
}

// QRConfig holds QR identifier and rendering configuration
type QRConfig struct {
	// SigningSecret keys the HMAC embedded in every QR identifier.
	SigningSecret string
	// VerifyBasePath is the landing-page path for scanned codes.
	VerifyBasePath string
	// ImageSize is the rendered PNG size in pixels (square).
	ImageSize int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Provider        string // "memory" or "redis"
	TTL             time.Duration
	MaxKeys         int
	CleanupInterval time.Duration
	RedisURL        string
	RedisDB         int
	RedisPassword   string
	PoolSize        int
}

// SecurityConfig holds rate limiting and CORS configuration
type SecurityConfig struct {
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string
	EnableFile bool
	FilePath   string
}

// Load reads configuration from the environment (optionally seeded from a
// .env file outside production) and validates it.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load()
		}
	}

	cfg := &Config{
		Server:   loadServerConfig(env),
		Database: loadDatabaseConfig(),
		Auth:     loadAuthConfig(env),
		QR:       loadQRConfig(),
		Cache:    loadCacheConfig(),
		Security: loadSecurityConfig(env),
		Logging:  loadLoggingConfig(env),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig(env string) ServerConfig {
	cfg := ServerConfig{
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Environment:     env,
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getInt64Env("MAX_BODY_BYTES", 1<<20),
	}

	if env == "development" {
		cfg.GracefulTimeout = 10 * time.Second
	}

	return cfg
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", "postgres://localhost:5432/agrilink?sslmode=disable"),
		MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		ConnectTimeout:  getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
		MaxConnectRetry: getDurationEnv("DB_MAX_CONNECT_RETRY", 30*time.Second),
	}
}

func loadAuthConfig(env string) AuthConfig {
	cost := getIntEnv("BCRYPT_COST", 12)
	if env == "development" {
		// Faster hashing for local iteration
		cost = getIntEnv("BCRYPT_COST", 10)
	}
	return AuthConfig{
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiry:     getDurationEnv("JWT_EXPIRY", 24*time.Hour),
		RefreshExpiry: getDurationEnv("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		BCryptCost:    cost,
		Issuer:        getEnv("JWT_ISSUER", "agrilink"),
	}
}

func loadQRConfig() QRConfig {
	return QRConfig{
		SigningSecret:  getEnv("QR_SIGNING_SECRET", ""),
		VerifyBasePath: getEnv("QR_VERIFY_BASE_PATH", "/api/v1/soil-tests/verify"),
		ImageSize:      getIntEnv("QR_IMAGE_SIZE", 256),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:        getEnv("CACHE_PROVIDER", "memory"),
		TTL:             getDurationEnv("CACHE_TTL", 15*time.Minute),
		MaxKeys:         getIntEnv("CACHE_MAX_KEYS", 10000),
		CleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisDB:         getIntEnv("REDIS_DB", 0),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
	}
}

func loadSecurityConfig(env string) SecurityConfig {
	origins := []string{"*"}
	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins = splitAndTrim(raw)
	} else if env == "production" {
		origins = []string{}
	}

	return SecurityConfig{
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 300),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowedOrigins: origins,
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSMaxAge:         getDurationEnv("CORS_MAX_AGE", 12*time.Hour),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	level := "debug"
	format := "console"
	if env == "production" {
		level = "info"
		format = "json"
	}
	return LoggingConfig{
		Level:      getEnv("LOG_LEVEL", level),
		Format:     getEnv("LOG_FORMAT", format),
		EnableFile: getBoolEnv("LOG_ENABLE_FILE", false),
		FilePath:   getEnv("LOG_FILE_PATH", "logs/agrilink.log"),
	}
}

// Validate checks that required settings are present and coherent.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Server.Environment == "production" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-only-jwt-secret"
	}
	if len(c.Auth.JWTSecret) < 16 && c.Server.Environment == "production" {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	if c.QR.SigningSecret == "" {
		if c.Server.Environment == "production" {
			return fmt.Errorf("QR_SIGNING_SECRET is required in production")
		}
		c.QR.SigningSecret = "dev-only-qr-secret"
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Auth.BCryptCost < 4 || c.Auth.BCryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BCryptCost)
	}

	if c.Cache.Provider != "memory" && c.Cache.Provider != "redis" {
		return fmt.Errorf("CACHE_PROVIDER must be 'memory' or 'redis', got %q", c.Cache.Provider)
	}

	if c.Security.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
