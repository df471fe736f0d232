package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"retail-inventory/internal/auth"
	"retail-inventory/internal/directory"
	"retail-inventory/internal/events"
	"retail-inventory/internal/ledger"
	"retail-inventory/internal/movements"
	"retail-inventory/internal/repository"
	"retail-inventory/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// peerServices fakes the store and product services
type peerServices struct {
	server      *httptest.Server
	storeStatus atomic.Int32
	lastAuth    atomic.Value
}

func newPeerServices(t *testing.T) *peerServices {
	peers := &peerServices{}
	peers.storeStatus.Store(http.StatusOK)
	peers.lastAuth.Store("")

	peers.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peers.lastAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/stores/"):
			status := int(peers.storeStatus.Load())
			w.WriteHeader(status)
			if status == http.StatusOK {
				fmt.Fprintf(w, `{"id": %s, "name": "Centro"}`, strings.TrimPrefix(r.URL.Path, "/stores/"))
			}
		case r.URL.Path == "/products/404":
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/products/"):
			fmt.Fprintf(w, `{"id": %s}`, strings.TrimPrefix(r.URL.Path, "/products/"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(peers.server.Close)
	return peers
}

type integrationFixture struct {
	router    *gin.Engine
	key       *rsa.PrivateKey
	authority *auth.TokenAuthority
	peers     *peerServices
	publisher *events.InMemoryEventPublisher
}

func setupIntegration(t *testing.T) *integrationFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	authority := auth.NewTokenAuthority(key, time.Hour, logger)
	verifier := auth.NewVerifier(&key.PublicKey, logger)

	peers := newPeerServices(t)
	resolver := directory.StaticResolver{
		directory.ServiceStore:   peers.server.URL,
		directory.ServiceProduct: peers.server.URL,
	}
	dir := directory.NewClient(resolver, 2*time.Second, logger)

	repo := repository.NewInMemoryLedgerRepository()
	publisher := events.NewInMemoryEventPublisher(logger)
	service := ledger.NewService(repo, dir, publisher, logger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware(logger))
	router.Use(middleware.ErrorHandler(logger))
	RegisterRoutes(router, Routes{
		Inventory:   NewInventoryHandler(service, logger),
		Movements:   NewMovementHandler(movements.NewQuery(repo), logger),
		Health:      HealthCheck("inventory-service", repo, logger),
		Verifier:    verifier,
		Idempotency: middleware.IdempotencyMiddleware(middleware.NewInMemoryRequestIDStore(), logger, time.Minute),
		Logger:      logger,
	})

	return &integrationFixture{router: router, key: key, authority: authority, peers: peers, publisher: publisher}
}

func (f *integrationFixture) token(t *testing.T, subject string, role auth.Role) string {
	t.Helper()
	token, err := f.authority.Issue(subject, role)
	require.NoError(t, err)
	return token
}

func (f *integrationFixture) do(method, path, token string, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func quantityOf(t *testing.T, w *httptest.ResponseRecorder) int64 {
	t.Helper()
	var response InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Quantity
}

func TestInventoryFlow_Integration(t *testing.T) {
	f := setupIntegration(t)
	admin := f.token(t, "admin", auth.RoleAdmin)
	employee := f.token(t, "employee", auth.RoleEmployee)

	// Employees cannot register stock
	w := f.do(http.MethodPost, "/inventory", employee, `{"storeId":1,"productId":10,"quantity":10}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, "/inventory", admin, `{"storeId":1,"productId":10,"quantity":10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(10), quantityOf(t, w))
	assert.Equal(t, "Bearer "+admin, f.peers.lastAuth.Load())

	// Registering the same pair twice conflicts
	w = f.do(http.MethodPost, "/inventory", admin, `{"storeId":1,"productId":10,"quantity":5}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPut, "/inventory/1/10?quantity=3&movementType=EXIT", employee, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(7), quantityOf(t, w))

	w = f.do(http.MethodPut, "/inventory/1/10?quantity=20&movementType=EXIT", employee, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Available: 7, Requested: 20")

	w = f.do(http.MethodGet, "/inventory/1", employee, "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].Quantity)

	// Movement reads are admin only
	w = f.do(http.MethodGet, "/inventory/movements", employee, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodGet, "/inventory/movements/metrics", employee, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/inventory/movements", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	var log []MovementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &log))
	require.Len(t, log, 1)
	assert.Equal(t, "employee", log[0].UserID)
	assert.Equal(t, "EXIT", log[0].Type)
	assert.Equal(t, int64(3), log[0].Quantity)

	w = f.do(http.MethodGet, "/inventory/movements/1", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &log))
	assert.Len(t, log, 1)

	w = f.do(http.MethodGet, "/inventory/movements/metrics", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"EXIT": 1}`, w.Body.String())

	assert.Len(t, f.publisher.Events(), 2)
}

func TestInventory_Integration_Authentication(t *testing.T) {
	f := setupIntegration(t)

	w := f.do(http.MethodGet, "/inventory/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/inventory/1", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodRS256, auth.Claims{
		Role: string(auth.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString(f.key)
	require.NoError(t, err)

	w = f.do(http.MethodGet, "/inventory/1", signed, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")

	// Health stays public
	w = f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterInventory_Integration_Directory(t *testing.T) {
	f := setupIntegration(t)
	admin := f.token(t, "admin", auth.RoleAdmin)

	w := f.do(http.MethodPost, "/inventory", admin, `{"storeId":1,"productId":404,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "product not found")

	f.peers.storeStatus.Store(http.StatusNotFound)
	w = f.do(http.MethodPost, "/inventory", admin, `{"storeId":2,"productId":10,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "store not found")

	f.peers.storeStatus.Store(http.StatusInternalServerError)
	w = f.do(http.MethodPost, "/inventory", admin, `{"storeId":3,"productId":10,"quantity":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "store-service")

	// Nothing was registered along the way
	w = f.do(http.MethodGet, "/inventory/movements", admin, "")
	assert.JSONEq(t, "[]", w.Body.String())
	assert.Empty(t, f.publisher.Events())
}

func TestApplyMovement_Integration_IdempotentReplay(t *testing.T) {
	f := setupIntegration(t)
	admin := f.token(t, "admin", auth.RoleAdmin)

	w := f.do(http.MethodPost, "/inventory", admin, `{"storeId":1,"productId":10,"quantity":10}`)
	require.Equal(t, http.StatusOK, w.Code)

	first := f.do(http.MethodPut, "/inventory/1/10?quantity=4&movementType=ENTRY", admin, "", middleware.RequestIDHeader, "req-1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, int64(14), quantityOf(t, first))

	replay := f.do(http.MethodPut, "/inventory/1/10?quantity=4&movementType=ENTRY", admin, "", middleware.RequestIDHeader, "req-1")
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(middleware.ReplayHeader))
	assert.Equal(t, first.Body.String(), replay.Body.String())

	w = f.do(http.MethodGet, "/inventory/1", admin, "")
	var records []InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(14), records[0].Quantity)
}

func TestApplyMovement_Integration_EntryOverflowRejected(t *testing.T) {
	f := setupIntegration(t)
	admin := f.token(t, "admin", auth.RoleAdmin)

	w := f.do(http.MethodPost, "/inventory", admin, `{"storeId":1,"productId":1,"quantity":10}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPut, "/inventory/1/1?quantity=9223372036854775807&movementType=ENTRY", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ValidationError")

	w = f.do(http.MethodGet, "/inventory/1", admin, "")
	var records []InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(10), records[0].Quantity)

	w = f.do(http.MethodGet, "/inventory/movements", admin, "")
	assert.JSONEq(t, "[]", w.Body.String())
}
