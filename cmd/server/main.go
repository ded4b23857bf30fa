package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/adapters"
	"github.com/muhannadalsrahen/speakright/adapters/gemini"
	"github.com/muhannadalsrahen/speakright/adapters/mongo"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/api"
	"github.com/muhannadalsrahen/speakright/internal/auth"
	"github.com/muhannadalsrahen/speakright/internal/config"
	"github.com/muhannadalsrahen/speakright/internal/websocket"
	"github.com/muhannadalsrahen/speakright/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	cfg := config.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Training log storage: MongoDB when configured, in-memory otherwise
	var store repositories.TrainingLogStore
	if cfg.MongoURI != "" {
		client, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Close(context.Background())
		store = mongo.NewLogRepository(client.Database)
		logger.Info("Using MongoDB training log store", zap.String("database", cfg.MongoDatabase))
	} else {
		store = adapters.NewMemoryLogStore()
		logger.Warn("MONGODB_URI not set, training logs are kept in memory only")
	}

	// Live conversational engine
	dialer, err := gemini.NewDialer(cfg.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize conversational engine", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)
	training := usecase.NewTrainingService(store)

	// Initialize WebSocket hub
	hub := websocket.NewHub(dialer, store, websocket.SessionDefaults{
		Model:     cfg.Model,
		Voice:     cfg.Voice,
		FrameSize: cfg.FrameSize,
	}, logger)
	go hub.Run()

	reaper := websocket.NewIdleReaper(hub, 0, logger)
	reaper.Start()
	defer reaper.Stop()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, training, tokens, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("model", cfg.Model),
		zap.String("voice", cfg.Voice))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
