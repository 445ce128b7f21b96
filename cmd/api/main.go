package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/classkit/api/internal/config"
	"github.com/classkit/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/classkit/api/internal/infrastructure/jwt"
	"github.com/classkit/api/internal/infrastructure/postgres"
	redisinfra "github.com/classkit/api/internal/infrastructure/redis"
	s3infra "github.com/classkit/api/internal/infrastructure/s3"
	"github.com/classkit/api/internal/infrastructure/smtp"
	"github.com/classkit/api/internal/pkg/logging"
	transporthttp "github.com/classkit/api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := logging.New(cfg.AppEnv)
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	// Durable store: connect, then apply the schema.
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Bootstrap(ctx, db); err != nil {
		logger.Fatal("postgres bootstrap failed", zap.Error(err))
	}

	// Fast cache: sessions, pending registrations, unread lists.
	redisClient, err := redisinfra.NewClient(cfg)
	if err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}
	defer redisClient.Close()

	// Event log tables (created if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, logger)

	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketAttachments)

	mailer := smtp.NewMailer(cfg)
	jwtProvider := jwtinfra.NewProvider(cfg)

	deps := &transporthttp.Deps{
		UserRepo:         postgres.NewUserRepo(db),
		NotificationRepo: postgres.NewNotificationRepo(db),
		CourseRepo:       postgres.NewCourseRepo(db),
		StreamRepo:       postgres.NewStreamRepo(db),
		AttachmentRepo:   postgres.NewAttachmentRepo(db),
		AssignmentRepo:   postgres.NewAssignmentRepo(db),
		AnalyticsRepo:    postgres.NewAnalyticsRepo(db),
		UnreadCache:      redisinfra.NewUnreadCache(redisClient, cfg.UnreadCap),
		SessionStore:     redisinfra.NewSessionStore(redisClient, cfg.SessionTTL),
		PendingStore:     redisinfra.NewPendingStore(redisClient, cfg.PendingTTL),
		EventRepo:        dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.EventLogs),
		HistoryRepo:      dynamo.NewHistoryRepo(dynamoClient, cfg.DynamoTables.NotificationHistory),
		S3Store:          s3Store,
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
