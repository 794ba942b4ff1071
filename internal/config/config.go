package config

import (
	"errors"  // For validation errors
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For token lifetimes

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort          string // Application port
	DBDriver         string // mysql, postgres or sqlite
	DBDSN            string // Full connection string, overrides the DB_* parts
	DBUser           string // Database user
	DBPassword       string // Database password
	DBHost           string // Database host
	DBPort           string // Database port
	DBName           string // Database name (file path for sqlite)
	DBMaxOpenConns   int    // Connection pool size
	DBMaxIdleConns   int    // Idle connections kept in the pool
	JWTSecret        string // JWT secret key
	AccessTokenTTL   int    // Access token lifetime in minutes
	RefreshTokenTTL  int    // Refresh token lifetime in minutes
	BcryptCost       int    // bcrypt work factor
	RedisAddr        string // Redis server address, empty disables login throttling
	RedisPass        string // Redis password
	RedisDB          int    // Redis database number
	LoginMaxAttempts int    // Failed logins allowed per window
	LoginLockout     int    // Failed login window in minutes
	RateLimitRPS     int    // Requests per second per client, 0 disables
	RateLimitBurst   int    // Burst per client
	LogLevel         string // logrus level
	IsProd           bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:          getEnv("APP_PORT", "8000"),
		DBDriver:         getEnv("DB_DRIVER", DriverMySQL),
		DBDSN:            os.Getenv("DB_DSN"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           getEnv("DB_HOST", "127.0.0.1"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
		DBMaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		RefreshTokenTTL:  getEnvInt("REFRESH_TOKEN_EXPIRE_MINUTES", 10080), // 7 days
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPass:        os.Getenv("REDIS_PASS"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockout:     getEnvInt("LOGIN_LOCKOUT_MINUTES", 15),
		RateLimitRPS:     getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 40),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		IsProd:           os.Getenv("IS_PROD") == "true",
	}
}

// Validate reports the first setting that would keep the server from starting
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

// DSN returns the connection string for the configured driver
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case DriverPostgres:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port)
	case DriverSQLite:
		if c.DBName == "" {
			return "wallet.db"
		}
		return c.DBName
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		// clientFoundRows makes RowsAffected count matched rows, not changed ones
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true&clientFoundRows=true"
	}
}

// AccessTokenLifetime is the access token TTL as a duration
func (c *Config) AccessTokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Minute
}

// RefreshTokenLifetime is the refresh token TTL as a duration
func (c *Config) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Minute
}

// LoginWindow is how long failed login attempts are remembered
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginLockout) * time.Minute
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
