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
	"retail-inventory/internal/gateway"
	"retail-inventory/pkg/logger"
	"retail-inventory/pkg/middleware"
	"retail-inventory/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "api-gateway"

func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	upstreams := gateway.Upstreams{
		Identity:  cfg.IdentityServiceURL,
		Inventory: cfg.InventoryServiceURL,
		Store:     cfg.StoreServiceURL,
		Product:   cfg.ProductServiceURL,
	}
	appLogger.Info("🚀 Starting API Gateway",
		zap.String("port", cfg.GatewayPort),
		zap.String("identity", upstreams.Identity),
		zap.String("inventory", upstreams.Inventory),
		zap.String("stores", upstreams.Store),
		zap.String("products", upstreams.Product),
	)

	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Options{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: serviceName,
	}, logger.Named(appLogger, "telemetry"))
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	publicKey, err := auth.LoadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		appLogger.Fatal("Failed to load token public key", zap.String("path", cfg.PublicKeyPath), zap.Error(err))
	}
	verifier := auth.NewVerifier(publicKey, logger.Named(appLogger, "auth"))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	if err := gateway.Register(router, upstreams, verifier, logger.Named(appLogger, "proxy")); err != nil {
		appLogger.Fatal("Invalid upstream configuration", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.GatewayPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
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

	appLogger.Info("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Gateway forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Warn("Failed to flush traces", zap.Error(err))
	}

	appLogger.Info("Gateway exited")
}
