package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/bookings-api/internal/auth"
	"github.com/redmonkez12/bookings-api/internal/config"
	"github.com/redmonkez12/bookings-api/internal/cors"
	"github.com/redmonkez12/bookings-api/internal/database"
	"github.com/redmonkez12/bookings-api/internal/email"
	httpServer "github.com/redmonkez12/bookings-api/internal/http"
	"github.com/redmonkez12/bookings-api/internal/logging"
	"github.com/redmonkez12/bookings-api/internal/ratelimit"
	"github.com/redmonkez12/bookings-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration; a missing JWT_SECRET stops startup here
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("database ready", "migrations_applied", applied)

	// Rate limiting is optional; without REDIS_HOST the credential
	// endpoints are unthrottled.
	var limiter auth.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		logger.Warn("REDIS_HOST not set, rate limiting disabled")
	}

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	var mailer auth.Mailer
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewSMTPService(cfg.Email, cfg.Auth.ResetTokenTTL)
	} else {
		logger.Warn("SMTP_HOST not set, reset links will be logged")
		mailer = email.NewLogMailer(logger)
	}

	authService := auth.NewService(
		user.NewRepository(db),
		tokenService,
		auth.NewPasswordHasher(auth.DefaultArgon2Params),
		mailer,
		logger,
		cfg.Auth.ResetTokenTTL,
	)

	authHandler := auth.NewHandler(
		authService,
		auth.NewCookiePolicy(!cfg.Server.IsDevelopment(), cfg.Auth.CookieLifetime),
		limiter,
		cfg.Email.FrontendURL,
	)
	authMiddleware := auth.NewMiddleware(tokenService)

	allowList := cors.ParseAllowList(cfg.Server.CORSOrigin)
	logger.Info("CORS allow-list loaded", "origins", allowList.String())

	router := httpServer.NewRouter(cors.NewGate(allowList, logger), authHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
