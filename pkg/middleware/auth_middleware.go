package middleware

import (
	"strings"

	"retail-inventory/internal/auth"
	"retail-inventory/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys set by AuthMiddleware
const (
	ClaimsContextKey  = "claims"
	RoleContextKey    = "role"
	SubjectContextKey = "subject"
	TokenContextKey   = "token"
)

// TokenVerifier verifies a raw bearer token
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware verifies the bearer token and enforces the gate for the matched route
func AuthMiddleware(verifier TokenVerifier, gate *Gate, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Missing authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			abortWith(c, errors.NewUnauthorized("missing authorization header", "Header: Authorization"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			logger.Warn("Invalid authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			abortWith(c, errors.NewUnauthorized("invalid authorization header format", "Expected: Bearer <token>"))
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			message := "invalid token"
			if err == auth.ErrExpiredToken {
				message = "token expired"
			}
			logger.Warn("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			abortWith(c, errors.NewUnauthorized(message, err.Error()))
			return
		}

		role, ok := auth.RoleOf(claims)
		if !ok || !gate.Allows(role, c.Request.Method, c.Request.URL.Path) {
			logger.Warn("Role not allowed",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			abortWith(c, errors.NewForbidden(claims.Role))
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set(RoleContextKey, role)
		c.Set(SubjectContextKey, claims.Subject)
		c.Set(TokenContextKey, tokenString)

		logger.Debug("Token validated",
			zap.String("subject", claims.Subject),
			zap.String("role", string(role)),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}

// CallerToken returns the verified raw token of the current request
func CallerToken(c *gin.Context) string {
	return c.GetString(TokenContextKey)
}

// CallerSubject returns the verified subject of the current request
func CallerSubject(c *gin.Context) string {
	return c.GetString(SubjectContextKey)
}

func abortWith(c *gin.Context, err *errors.StandardError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), err)
}
