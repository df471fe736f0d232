package gateway

import (
	"net/http"

	"retail-inventory/internal/auth"
	"retail-inventory/internal/handlers"
	"retail-inventory/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upstreams are the base URLs the gateway routes to
type Upstreams struct {
	Identity  string
	Inventory string
	Store     string
	Product   string
}

// AccessRules is the gateway gate table: the inventory rules plus the catalog services
func AccessRules() []middleware.AccessRule {
	adminOnly := []auth.Role{auth.RoleAdmin}
	staff := []auth.Role{auth.RoleAdmin, auth.RoleEmployee}

	rules := handlers.InventoryAccessRules()
	for _, prefix := range []string{"/products/**", "/stores/**"} {
		rules = append(rules,
			middleware.AccessRule{Method: http.MethodGet, Pattern: prefix, Roles: staff},
			middleware.AccessRule{Method: http.MethodPost, Pattern: prefix, Roles: adminOnly},
			middleware.AccessRule{Method: http.MethodPut, Pattern: prefix, Roles: adminOnly},
			middleware.AccessRule{Method: http.MethodDelete, Pattern: prefix, Roles: adminOnly},
		)
	}
	return rules
}

// Register mounts the public auth routes and the gated service routes on router
func Register(router gin.IRouter, upstreams Upstreams, verifier middleware.TokenVerifier, logger *zap.Logger) error {
	identity, err := NewProxy("identity-service", upstreams.Identity, logger)
	if err != nil {
		return err
	}
	inventory, err := NewProxy("inventory-service", upstreams.Inventory, logger)
	if err != nil {
		return err
	}
	stores, err := NewProxy("store-service", upstreams.Store, logger)
	if err != nil {
		return err
	}
	products, err := NewProxy("product-service", upstreams.Product, logger)
	if err != nil {
		return err
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{Status: "healthy", Service: "api-gateway"})
	})

	// Login and token validation are public
	router.Any("/auth/*path", gin.WrapH(identity))

	gated := router.Group("")
	gated.Use(middleware.AuthMiddleware(verifier, middleware.NewGate(AccessRules()), logger))
	for prefix, proxy := range map[string]http.Handler{
		"/inventory": inventory,
		"/stores":    stores,
		"/products":  products,
	} {
		gated.Any(prefix, gin.WrapH(proxy))
		gated.Any(prefix+"/*path", gin.WrapH(proxy))
	}

	return nil
}
