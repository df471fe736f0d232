package gateway

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retail-inventory/internal/auth"
	"retail-inventory/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	service       string
	method        string
	uri           string
	authorization string
	requestID     string
}

type gatewayFixture struct {
	router    *gin.Engine
	authority *auth.TokenAuthority
	received  chan recordedRequest
}

func upstream(t *testing.T, name string, received chan<- recordedRequest) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- recordedRequest{
			service:       name,
			method:        r.Method,
			uri:           r.URL.RequestURI(),
			authorization: r.Header.Get("Authorization"),
			requestID:     r.Header.Get(middleware.RequestIDHeader),
		}
		w.Header().Set("Access-Control-Allow-Origin", "http://upstream.example")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"` + name + `"}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func setupGateway(t *testing.T) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	received := make(chan recordedRequest, 1)
	upstreams := Upstreams{
		Identity:  upstream(t, "identity", received),
		Inventory: upstream(t, "inventory", received),
		Store:     upstream(t, "store", received),
		Product:   upstream(t, "product", received),
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware(zap.NewNop()))
	router.Use(middleware.CORSMiddleware([]string{"*"}))
	require.NoError(t, Register(router, upstreams, auth.NewVerifier(&key.PublicKey, zap.NewNop()), zap.NewNop()))

	return &gatewayFixture{
		router:    router,
		authority: auth.NewTokenAuthority(key, time.Hour, zap.NewNop()),
		received:  received,
	}
}

func (f *gatewayFixture) do(t *testing.T, method, path string, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, err := f.authority.Issue("user-"+string(role), role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *gatewayFixture) next(t *testing.T) recordedRequest {
	t.Helper()
	select {
	case r := <-f.received:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("upstream was not called")
		return recordedRequest{}
	}
}

func TestGateway_RoutesToUpstreams(t *testing.T) {
	f := setupGateway(t)

	testCases := []struct {
		method  string
		path    string
		role    auth.Role
		service string
	}{
		{http.MethodPost, "/auth/login", "", "identity"},
		{http.MethodPut, "/inventory/1/10?quantity=2&movementType=EXIT", auth.RoleEmployee, "inventory"},
		{http.MethodPost, "/inventory", auth.RoleAdmin, "inventory"},
		{http.MethodGet, "/stores/4", auth.RoleEmployee, "store"},
		{http.MethodDelete, "/products/9", auth.RoleAdmin, "product"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.role)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			got := f.next(t)
			assert.Equal(t, tc.service, got.service)
			assert.Equal(t, tc.method, got.method)
			assert.Equal(t, tc.path, got.uri)
			assert.NotEmpty(t, got.requestID)
			if tc.role != "" {
				assert.Contains(t, got.authorization, "Bearer ")
			}
			assert.Equal(t, []string{"*"}, w.Header().Values("Access-Control-Allow-Origin"))
		})
	}
}

func TestGateway_RejectsBeforeProxying(t *testing.T) {
	f := setupGateway(t)

	testCases := []struct {
		name   string
		method string
		path   string
		role   auth.Role
		status int
	}{
		{"missing token", http.MethodGet, "/inventory/1", "", http.StatusUnauthorized},
		{"employee registers", http.MethodPost, "/inventory", auth.RoleEmployee, http.StatusForbidden},
		{"employee reads movements", http.MethodGet, "/inventory/movements", auth.RoleEmployee, http.StatusForbidden},
		{"employee creates product", http.MethodPost, "/products", auth.RoleEmployee, http.StatusForbidden},
		{"employee deletes store", http.MethodDelete, "/stores/2", auth.RoleEmployee, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.role)
			assert.Equal(t, tc.status, w.Code)
			select {
			case r := <-f.received:
				t.Fatalf("upstream %s should not be called", r.service)
			default:
			}
		})
	}
}

func TestGateway_UpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	router := gin.New()
	require.NoError(t, Register(router, Upstreams{
		Identity: down.URL, Inventory: down.URL, Store: down.URL, Product: down.URL,
	}, auth.NewVerifier(&key.PublicKey, zap.NewNop()), zap.NewNop()))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Dependency: identity-service")
}

func TestRegister_InvalidUpstream(t *testing.T) {
	err := Register(gin.New(), Upstreams{Identity: "::bad"}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestGateway_Health(t *testing.T) {
	f := setupGateway(t)

	w := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api-gateway")
}
