package main

import (
	"context"                         // Redis ping and shutdown deadline
	"errors"                          // http.ErrServerClosed check
	"net/http"                        // HTTP server
	"os"                              // Signals
	"os/signal"                       // Graceful shutdown
	"syscall"                         // SIGTERM
	"time"                            // Timeouts
	"wallet_ledger/internal/api"      // Router and handlers
	"wallet_ledger/internal/config"   // Configuration
	"wallet_ledger/internal/db"       // Connection pool
	"wallet_ledger/internal/security" // Tokens, passwords, login throttle

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the database; one pool shared by every request
	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("failed to get DB handle: %v", err)
	}
	defer sqlDB.Close()

	// Redis backs the failed-login throttle and is optional
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable, login throttling degraded")
		}
		cancel()
	} else {
		log.Info("REDIS_ADDR not set, login throttling disabled")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.NewRouter(api.Deps{
		DB:             gdb,
		Tokens:         security.NewTokenService(cfg.JWTSecret, cfg.AccessTokenLifetime(), cfg.RefreshTokenLifetime()),
		Passwords:      security.NewPasswordHasher(cfg.BcryptCost),
		Throttle:       security.NewLoginThrottle(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow()),
		Log:            log,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.AppPort, "driver": cfg.DBDriver}).Info("Server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// newLogger configures logrus from LOG_LEVEL, switching to JSON in production
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProd {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}
	log.SetLevel(level)
	return log
}
