package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/auth"
	"github.com/muhannadalsrahen/speakright/internal/scenario"
	"github.com/muhannadalsrahen/speakright/internal/websocket"
	"github.com/muhannadalsrahen/speakright/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, training *usecase.TrainingService, tokens *auth.TokenService, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "speakright-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Anonymous practice sessions authenticate as guests
	v1.POST("/auth/guest", func(c echo.Context) error {
		return guestAuth(c, tokens, logger)
	})

	// Scenario catalog
	v1.GET("/scenarios", getScenarios)

	// Training log history
	v1.GET("/training-logs", func(c echo.Context) error {
		return listTrainingLogs(c, training, logger)
	})
	v1.GET("/training-logs/:id", func(c echo.Context) error {
		return getTrainingLog(c, training, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, tokens, logger)
	})
}

// guestAuth issues a guest token for anonymous practice sessions
func guestAuth(c echo.Context, tokens *auth.TokenService, logger *zap.Logger) error {
	guestID := uuid.NewString()

	token, err := tokens.GenerateGuestToken(guestID)
	if err != nil {
		logger.Error("Failed to generate guest token",
			zap.String("guest_id", guestID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	// Expiration matches the guest token claims
	expiresAt := time.Now().Add(24 * time.Hour)

	logger.Info("Guest authenticated", zap.String("guest_id", guestID))

	return c.JSON(http.StatusOK, GuestAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		GuestID:   guestID,
	})
}

// getScenarios returns the built-in role-play catalog
func getScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, scenario.Catalog())
}

// listTrainingLogs returns all training logs, newest first
func listTrainingLogs(c echo.Context, training *usecase.TrainingService, logger *zap.Logger) error {
	logs, err := training.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list training logs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load training logs",
		})
	}
	return c.JSON(http.StatusOK, logs)
}

// getTrainingLog returns one training log by ID
func getTrainingLog(c echo.Context, training *usecase.TrainingService, logger *zap.Logger) error {
	id := c.Param("id")

	log, err := training.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrLogNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Training log not found",
			})
		}
		logger.Error("Failed to load training log",
			zap.String("id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load training log",
		})
	}
	return c.JSON(http.StatusOK, log)
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, tokens *auth.TokenService, logger *zap.Logger) error {
	// Extract JWT token from Authorization header, falling back to the
	// query string for browser WebSocket clients that cannot set headers.
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	// Validate JWT token
	claims, err := tokens.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.UserID == "" {
		logger.Error("WebSocket connection rejected: missing identity in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Identity not found in token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.UserID),
		zap.String("role", claims.Role))

	// Handle WebSocket connection with authenticated identity
	return websocket.HandleWebSocketWithAuth(hub, c, claims.UserID, logger)
}
