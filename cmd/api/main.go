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
	"retail-inventory/internal/directory"
	"retail-inventory/internal/events"
	"retail-inventory/internal/handlers"
	"retail-inventory/internal/ledger"
	"retail-inventory/internal/movements"
	"retail-inventory/internal/repository"
	"retail-inventory/internal/scheduler"
	"retail-inventory/pkg/logger"
	"retail-inventory/pkg/middleware"
	"retail-inventory/pkg/telemetry"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "retail-inventory/docs" // Import docs for Swagger
)

// @title           Inventory Service API
// @version         1.0
// @description     Libro de stock por tienda y producto con validación de existencia entre servicios y autorización por rol
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8081
// @BasePath  /

// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Inventory Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.ServiceName,
	}, logger.Named(appLogger, "telemetry"))
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	publicKey, err := auth.LoadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		appLogger.Fatal("Failed to load token public key", zap.String("path", cfg.PublicKeyPath), zap.Error(err))
	}
	verifier := auth.NewVerifier(publicKey, logger.Named(appLogger, "auth"))

	repo, err := repository.Open(ctx, cfg, logger.Named(appLogger, "repository"))
	if err != nil {
		appLogger.Fatal("Failed to open ledger storage", zap.Error(err))
	}
	appLogger.Info("✅ Ledger storage ready", zap.String("driver", cfg.DBDriver))

	resolver := directory.StaticResolver{
		directory.ServiceStore:   cfg.StoreServiceURL,
		directory.ServiceProduct: cfg.ProductServiceURL,
	}
	directoryClient := directory.NewClient(resolver, cfg.DirectoryTimeout(), logger.Named(appLogger, "directory"))

	appLogger.Info("📡 Event publishing",
		zap.Bool("kafka", cfg.UseKafka),
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic_inventory", cfg.KafkaTopicInventory),
		zap.String("topic_movements", cfg.KafkaTopicMovements),
	)
	publisher := events.NewPublisher(cfg, logger.Named(appLogger, "events"))

	ledgerService := ledger.NewService(repo, directoryClient, publisher, logger.Named(appLogger, "ledger"))
	movementQuery := movements.NewQuery(repo)

	reporter := scheduler.NewScheduler(cfg.ReportCronSchedule, movementQuery, logger.Named(appLogger, "scheduler"))
	if err := reporter.Start(); err != nil {
		appLogger.Fatal("Failed to start movement report", zap.Error(err))
	}

	requestIDStore := middleware.NewRequestIDStore(middleware.RedisOptions{
		Enabled:  cfg.UseRedis,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger.Named(appLogger, "idempotency"))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler(appLogger))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterRoutes(router, handlers.Routes{
		Inventory:   handlers.NewInventoryHandler(ledgerService, logger.Named(appLogger, "handlers")),
		Movements:   handlers.NewMovementHandler(movementQuery, logger.Named(appLogger, "handlers")),
		Health:      handlers.HealthCheck(cfg.ServiceName, repo, appLogger),
		Verifier:    verifier,
		Idempotency: middleware.IdempotencyMiddleware(requestIDStore, appLogger, cfg.IdempotencyTTL()),
		Logger:      logger.Named(appLogger, "gate"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	reporter.Stop()
	if err := publisher.Close(); err != nil {
		appLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := repo.Close(); err != nil {
		appLogger.Warn("Failed to close ledger storage", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Failed to flush traces", zap.Error(err))
	}

	appLogger.Info("Server exited")
}
