package handlers

import (
	"context"
	"net/http"
	"time"

	"retail-inventory/internal/auth"
	"retail-inventory/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryAccessRules is the inventory service's gate table. Order matters: first match wins.
func InventoryAccessRules() []middleware.AccessRule {
	adminOnly := []auth.Role{auth.RoleAdmin}
	staff := []auth.Role{auth.RoleAdmin, auth.RoleEmployee}

	return []middleware.AccessRule{
		{Method: http.MethodPost, Pattern: "/inventory", Roles: adminOnly},
		{Method: http.MethodGet, Pattern: "/inventory/movements", Roles: adminOnly},
		{Method: http.MethodGet, Pattern: "/inventory/movements/**", Roles: adminOnly},
		{Method: http.MethodPut, Pattern: "/inventory/**", Roles: staff},
		{Method: http.MethodGet, Pattern: "/inventory/**", Roles: staff},
	}
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes groups what RegisterRoutes mounts
type Routes struct {
	Inventory   *InventoryHandler
	Movements   *MovementHandler
	Health      gin.HandlerFunc
	Verifier    middleware.TokenVerifier
	Idempotency gin.HandlerFunc
	Logger      *zap.Logger
}

// RegisterRoutes mounts the public health route and the gated inventory routes.
// Idempotency runs after authentication so replays are scoped to the caller.
func RegisterRoutes(router gin.IRouter, r Routes) {
	router.GET("/health", r.Health)

	gate := middleware.NewGate(InventoryAccessRules())
	inventory := router.Group("/inventory")
	inventory.Use(middleware.AuthMiddleware(r.Verifier, gate, r.Logger))
	if r.Idempotency != nil {
		inventory.Use(r.Idempotency)
	}
	{
		inventory.POST("", r.Inventory.RegisterInventory)
		inventory.PUT("/:storeId/:productId", r.Inventory.ApplyMovement)
		inventory.GET("/:storeId", r.Inventory.GetInventoryByStore)

		inventory.GET("/movements", r.Movements.ListMovements)
		inventory.GET("/movements/metrics", r.Movements.MovementMetrics)
		inventory.GET("/movements/:storeId", r.Movements.ListMovementsByStore)
	}
}

// HealthCheck godoc
// @Summary      Health check endpoint
// @Description  Verifica el estado del servicio y la conexión con el almacenamiento del inventario.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse  "Servicio operativo"
// @Failure      503  {object}  HealthResponse  "Almacenamiento no disponible"
// @Router       /health [get]
func HealthCheck(service string, store Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if store != nil {
			if err := store.Ping(ctx); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Service: service})
				return
			}
		}
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: service})
	}
}
