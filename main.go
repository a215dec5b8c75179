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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/brightpath-edu/quiz-engine/internal/cache"
	"github.com/brightpath-edu/quiz-engine/internal/config"
	"github.com/brightpath-edu/quiz-engine/internal/events"
	"github.com/brightpath-edu/quiz-engine/internal/handlers"
	"github.com/brightpath-edu/quiz-engine/internal/repositories"
	"github.com/brightpath-edu/quiz-engine/internal/repositories/postgres"
	"github.com/brightpath-edu/quiz-engine/internal/services"
	"github.com/brightpath-edu/quiz-engine/internal/utils"
	"github.com/brightpath-edu/quiz-engine/internal/validator"
	"github.com/brightpath-edu/quiz-engine/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, question caching disabled", "error", err)
		}
	}

	// Initialize question source with the cache layer in front
	var questionSource repositories.QuestionSource = postgres.NewQuestionRepository(db)
	questionSource = repositories.NewCachedQuestionSource(
		questionSource,
		cache.NewHelper(redisClient, "quiz-engine"),
		logger,
	)

	// Initialize result publisher: Kafka when brokers are configured,
	// otherwise results are logged locally.
	var publisher events.ResultPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaResultPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.ResultsTopic,
			Logger:       logger,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		logger.Warn("No Kafka brokers configured, result events will only be logged")
		publisher = events.NewLoggingResultPublisher(logger)
	}

	// Initialize validator
	v := validator.New()

	// Initialize services
	sessionService := services.NewSessionService(questionSource, services.NewEvaluationService(logger), publisher, logger, v)
	questionService := services.NewQuestionService(questionSource, v, logger)
	exportService := services.NewExportService(sessionService, logger)

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(sessionService, questionService, exportService, v, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(gin.Recovery())

	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Failed to close result publisher", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
