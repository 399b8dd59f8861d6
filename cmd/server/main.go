package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"stuntcheck/internal/config"
	"stuntcheck/internal/database"
	"stuntcheck/internal/handlers"
	"stuntcheck/internal/identity"
	"stuntcheck/internal/inference"
	"stuntcheck/internal/repository"
	"stuntcheck/internal/security"
	"stuntcheck/internal/service"
	"stuntcheck/internal/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx, database.Migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	childRepo := repository.NewChildRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)

	// Identity provider
	var provider identity.Provider
	switch cfg.IdentityProvider {
	case config.IdentityRemote:
		provider = identity.NewRemoteProvider(cfg.AuthURL, cfg.AuthAPIKey, cfg.AuthTimeout)
		log.Printf("Using remote identity provider at %s", cfg.AuthURL)
	default:
		provider = identity.NewLocalProvider(userRepo, cfg.JWTSecret, cfg.TokenTTL)
		log.Println("Using local identity provider")
	}

	model := inference.NewClient(cfg.InferenceURL, cfg.InferenceStatusURL, cfg.InferenceTimeout)
	log.Printf("Prediction model at %s", cfg.InferenceURL)

	limiter := newLimiter(cfg)
	defer limiter.Close()

	ips, err := security.NewIPResolver(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	var mailer service.WelcomeMailer
	emailService, err := service.NewEmailService(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: email service unavailable: %v", err)
	} else {
		mailer = emailService
	}

	// Initialize services
	validator := validation.New()
	accountService := service.NewAccountService(provider, profileRepo, mailer, validator)
	childService := service.NewChildService(childRepo, validator)
	predictionService := service.NewPredictionService(predictionRepo, childRepo, model, validator, cfg.ValidateChildOwnership)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		Auth:        handlers.NewAuthHandler(accountService),
		Children:    handlers.NewChildHandler(childService),
		Predictions: handlers.NewPredictionHandler(predictionService),
		Diagnostics: handlers.NewDiagnosticsHandler(model),
		Middleware:  handlers.NewMiddleware(provider, limiter, ips),
	}, handlers.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// closingLimiter is a limiter that owns background resources
type closingLimiter interface {
	security.Limiter
	Close()
}

// newLimiter uses Redis when REDIS_URL is set so limits are shared
// between instances, and an in-memory limiter otherwise
func newLimiter(cfg *config.Config) closingLimiter {
	if cfg.RedisURL == "" {
		return security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, using in-memory rate limiting: %v", err)
		return security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis not reachable yet, falling back per request until it is: %v", err)
	} else {
		log.Printf("Rate limiting backed by Redis at %s", opts.Addr)
	}

	return security.NewRedisLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
}
