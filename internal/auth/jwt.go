package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	// DefaultTokenTTL is the lifetime of an issued claim
	DefaultTokenTTL = time.Hour
	issuer          = "retail-inventory-identity"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrExpiredToken       = errors.New("token expired")
	ErrSigningUnavailable = errors.New("token signing key not configured")
)

// Claims represents the signed identity claim
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies RS256 identity tokens.
// Services that only verify hold the public key; the identity service also holds the private key.
type TokenAuthority struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewTokenAuthority creates an authority able to issue and verify tokens
func NewTokenAuthority(privateKey *rsa.PrivateKey, ttl time.Duration, logger *zap.Logger) *TokenAuthority {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuthority{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// NewVerifier creates a verify-only authority
func NewVerifier(publicKey *rsa.PublicKey, logger *zap.Logger) *TokenAuthority {
	return &TokenAuthority{
		publicKey: publicKey,
		ttl:       DefaultTokenTTL,
		now:       time.Now,
		logger:    logger,
	}
}

// TTL returns the lifetime of issued tokens
func (a *TokenAuthority) TTL() time.Duration {
	return a.ttl
}

// Issue signs a new claim for subject with the given role
func (a *TokenAuthority) Issue(subject string, role Role) (string, error) {
	if a.privateKey == nil {
		return "", ErrSigningUnavailable
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(a.privateKey)
	if err != nil {
		a.logger.Error("Failed to sign token", zap.Error(err))
		return "", err
	}

	a.logger.Info("Token issued",
		zap.String("subject", subject),
		zap.String("role", string(role)),
		zap.Time("expires_at", expiresAt),
	)

	return tokenString, nil
}

// Verify checks the signature first, then expiry, and returns the decoded claim
func (a *TokenAuthority) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return a.publicKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			a.logger.Warn("Token signature rejected", zap.Error(err))
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			a.logger.Debug("Token expired", zap.Error(err))
			return nil, ErrExpiredToken
		default:
			a.logger.Warn("Invalid token", zap.Error(err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// A claim without an expiry is never valid.
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if !a.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}
