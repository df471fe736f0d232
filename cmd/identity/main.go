package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-inventory/internal/auth"
	"retail-inventory/internal/config"
	"retail-inventory/internal/handlers"
	"retail-inventory/pkg/logger"
	"retail-inventory/pkg/middleware"
	"retail-inventory/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "identity-service"

func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Identity Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.IdentityPort),
	)

	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Options{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: serviceName,
	}, logger.Named(appLogger, "telemetry"))
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	if cfg.PrivateKeyPath == "" {
		appLogger.Fatal("PRIVATE_KEY_PATH is required to sign tokens")
	}
	privateKey, err := auth.LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		appLogger.Fatal("Failed to load token signing key", zap.String("path", cfg.PrivateKeyPath), zap.Error(err))
	}

	authority := auth.NewTokenAuthority(privateKey, cfg.TokenTTL(), logger.Named(appLogger, "auth"))
	appLogger.Info("🔐 Token configuration",
		zap.String("algorithm", "RS256"),
		zap.Duration("ttl", authority.TTL()),
	)
	authHandler := auth.NewAuthHandler(authority, logger.Named(appLogger, "auth"))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler(appLogger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{Status: "healthy", Service: serviceName})
	})
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/token/validate", authHandler.ValidateToken)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.IdentityPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Warn("Failed to flush traces", zap.Error(err))
	}

	appLogger.Info("Server exited")
}
