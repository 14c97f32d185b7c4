package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shop-accounts-api/internal/application/cleanup"
	"github.com/shop-accounts-api/internal/config"
	"github.com/shop-accounts-api/internal/infrastructure/dynamo"
	"github.com/shop-accounts-api/internal/infrastructure/facebook"
	"github.com/shop-accounts-api/internal/infrastructure/google"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
	rediskv "github.com/shop-accounts-api/internal/infrastructure/redis"
	s3infra "github.com/shop-accounts-api/internal/infrastructure/s3"
	"github.com/shop-accounts-api/internal/infrastructure/smtp"
	"github.com/shop-accounts-api/internal/infrastructure/sns"
	"github.com/shop-accounts-api/internal/scheduler"
	transporthttp "github.com/shop-accounts-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	refreshRepo := dynamo.NewRefreshTokenRepo(dynamoClient, cfg.DynamoTables.RefreshTokens)

	redisClient := rediskv.NewClient(cfg)
	authState := rediskv.NewAuthState(redisClient)

	jwtProvider := jwtinfra.NewProvider(cfg)

	s3Client := s3infra.NewClient(cfg)
	avatarStore := s3infra.NewAvatarStore(s3Client, cfg.S3BucketName, cfg.AWSRegion)

	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:    userRepo,
		RefreshRepo: refreshRepo,
		AuthState:   authState,
		Mailer:      mailer,
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
		AvatarStore: avatarStore,
		Logger:      logger,
	}
	if cfg.GoogleClientID != "" {
		deps.Google = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARN: Google login disabled (GOOGLE_CLIENT_ID not set)")
	}
	if cfg.FacebookAppSecret != "" {
		deps.Facebook = facebook.NewVerifier(cfg.FacebookAppSecret)
	} else {
		log.Println("WARN: Facebook login disabled (FACEBOOK_APP_SECRET not set)")
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Background maintenance: daily purge sweep + keyspace stats.
	cleanupSvc := cleanup.NewService(userRepo, refreshRepo, authState, avatarStore, logger)
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	sched := scheduler.New(cleanupSvc, logger)
	if err := sched.Start(jobCtx, cfg.AccountSweepSpec, cfg.KVStatsSpec); err != nil {
		log.Fatalf("scheduler error: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancelJobs()
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("WARN: closing redis: %v", err)
	}
	log.Println("Server stopped")
}
