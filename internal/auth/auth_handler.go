package auth

import (
	"net/http"
	"strings"
	"time"

	"retail-inventory/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authority *TokenAuthority
	users     map[string]staticUser
	logger    *zap.Logger
}

type staticUser struct {
	password string
	role     Role
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authority *TokenAuthority, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authority: authority,
		// Prototype user table. Registration and password hashing live outside this service.
		users: map[string]staticUser{
			"admin":    {password: "admin123", role: RoleAdmin},
			"employee": {password: "employee123", role: RoleEmployee},
		},
		logger: logger,
	}
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string    `json:"type" example:"Bearer"`
	ExpiresIn int       `json:"expires_in" example:"3600"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T12:00:00Z"`
	Role      string    `json:"role" example:"ADMIN"`
}

// ValidateTokenRequest represents a token validation request
type ValidateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateTokenResponse describes a verified token
type ValidateTokenResponse struct {
	Valid     bool      `json:"valid" example:"true"`
	Subject   string    `json:"subject" example:"admin"`
	Role      string    `json:"role" example:"ADMIN"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T12:00:00Z"`
}

// Login handles POST /auth/login
// @Summary      Login and get a signed token
// @Description  Autentica un usuario y retorna un token RS256 válido por una hora. Usuarios disponibles: admin/admin123 (ADMIN), employee/employee123 (EMPLOYEE)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  LoginResponse  "Token generado exitosamente"
// @Failure      400      {object}  errors.StandardError  "Request inválido - credenciales faltantes"
// @Failure      401      {object}  errors.StandardError  "Credenciales inválidas"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid login request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "username or password"))
		c.Abort()
		return
	}

	username := strings.TrimSpace(req.Username)
	user, ok := h.users[username]
	if !ok || user.password != req.Password {
		h.logger.Warn("Invalid credentials", zap.String("username", username))
		c.Error(errors.NewUnauthorized("invalid credentials", "username or password incorrect"))
		c.Abort()
		return
	}

	token, err := h.authority.Issue(username, user.role)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		c.Error(errors.NewInternalError("failed to issue token"))
		c.Abort()
		return
	}

	ttl := h.authority.TTL()
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: int(ttl.Seconds()),
		ExpiresAt: time.Now().Add(ttl).UTC(),
		Role:      string(user.role),
	})
}

// ValidateToken handles POST /auth/token/validate
// @Summary      Validate a token
// @Description  Verifica firma y expiración de un token emitido por este servicio
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateTokenRequest  true  "Token"
// @Success      200      {object}  ValidateTokenResponse
// @Failure      400      {object}  errors.StandardError
// @Failure      401      {object}  errors.StandardError
// @Router       /auth/token/validate [post]
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var req ValidateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request", "token"))
		c.Abort()
		return
	}

	claims, err := h.authority.Verify(strings.TrimPrefix(req.Token, "Bearer "))
	if err != nil {
		c.Error(errors.NewUnauthorized("invalid token", err.Error()))
		c.Abort()
		return
	}

	role, _ := RoleOf(claims)
	c.JSON(http.StatusOK, ValidateTokenResponse{
		Valid:     true,
		Subject:   claims.Subject,
		Role:      string(role),
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
