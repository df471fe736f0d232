package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	apperrors "retail-inventory/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReplayHeader marks a response served from the idempotency store
const ReplayHeader = "X-Idempotent-Replay"

var ErrRequestIDNotFound = errors.New("request ID not found")

// RequestIDStore stores successful write responses by request key.
// A reserved key holds an empty response until Store or Release.
type RequestIDStore interface {
	Store(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Get returns ErrRequestIDNotFound when nothing is stored or the entry expired
	Get(ctx context.Context, key string) ([]byte, error)
	// Reserve claims key for one in-flight request; false means the key is already taken
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// InMemoryRequestIDStore is an in-memory implementation of RequestIDStore
type InMemoryRequestIDStore struct {
	mu    sync.Mutex
	store map[string]requestIDEntry
	now   func() time.Time
}

type requestIDEntry struct {
	response  []byte
	expiresAt time.Time
}

// NewInMemoryRequestIDStore creates a new in-memory request ID store
func NewInMemoryRequestIDStore() *InMemoryRequestIDStore {
	return &InMemoryRequestIDStore{
		store: make(map[string]requestIDEntry),
		now:   time.Now,
	}
}

func (s *InMemoryRequestIDStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[key] = requestIDEntry{
		response:  response,
		expiresAt: s.now().Add(ttl),
	}
	s.evictExpired()
	return nil
}

func (s *InMemoryRequestIDStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.store[key]
	if !exists {
		return nil, ErrRequestIDNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.store, key)
		return nil, ErrRequestIDNotFound
	}
	return entry.response, nil
}

func (s *InMemoryRequestIDStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	if _, taken := s.store[key]; taken {
		return false, nil
	}
	s.store[key] = requestIDEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *InMemoryRequestIDStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, key)
	return nil
}

// evictExpired runs under s.mu on every write
func (s *InMemoryRequestIDStore) evictExpired() {
	now := s.now()
	for key, entry := range s.store {
		if now.After(entry.expiresAt) {
			delete(s.store, key)
		}
	}
}

// RedisRequestIDStore keeps replayable responses in Redis so every replica sees them
type RedisRequestIDStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRequestIDStore(client *redis.Client) *RedisRequestIDStore {
	return &RedisRequestIDStore{client: client, prefix: "idempotency:"}
}

func (s *RedisRequestIDStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, response, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}
	return nil
}

func (s *RedisRequestIDStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRequestIDNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return value, nil
}

// Reserve uses SETNX so only one replica runs a given request
func (s *RedisRequestIDStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	reserved, err := s.client.SetNX(ctx, s.prefix+key, "", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve request: %w", err)
	}
	return reserved, nil
}

func (s *RedisRequestIDStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release request: %w", err)
	}
	return nil
}

// RedisOptions configures NewRequestIDStore
type RedisOptions struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRequestIDStore connects to Redis when enabled and falls back to memory otherwise
func NewRequestIDStore(opts RedisOptions, logger *zap.Logger) RequestIDStore {
	if !opts.Enabled {
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryRequestIDStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, using in-memory idempotency store",
			zap.String("host", opts.Host),
			zap.String("port", opts.Port),
			zap.Error(err),
		)
		rdb.Close()
		return NewInMemoryRequestIDStore()
	}

	logger.Info("Redis idempotency store initialized",
		zap.String("host", opts.Host),
		zap.String("port", opts.Port),
		zap.Int("db", opts.DB),
	)
	return NewRedisRequestIDStore(rdb)
}

func isWrite(method string) bool {
	return method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions
}

// idempotencyKey scopes a request ID to the caller and the exact request line
func idempotencyKey(c *gin.Context, requestID string) string {
	return fmt.Sprintf("%s|%s %s|%s", c.GetString(SubjectContextKey), c.Request.Method, c.Request.URL.RequestURI(), requestID)
}

// IdempotencyMiddleware replays the stored response of a write already served under the same X-Request-ID,
// and stores successful write responses for later replay. A duplicate arriving while the first is still
// running gets 409 instead of running twice.
func IdempotencyMiddleware(store RequestIDStore, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generated IDs are never reused by the caller, so only client supplied IDs are tracked.
		if !isWrite(c.Request.Method) || c.GetHeader(RequestIDHeader) == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		requestID := GetRequestID(c)
		key := idempotencyKey(c, requestID)

		if replay(c, store, key, logger) {
			return
		}

		reserved, err := store.Reserve(ctx, key, ttl)
		switch {
		case err != nil:
			// Fail open
			logger.Warn("Error reserving idempotency key",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		case !reserved:
			// The first request may have completed in between
			if replay(c, store, key, logger) {
				return
			}
			logger.Warn("Duplicate request still in progress",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
			)
			stdErr := apperrors.NewStandardError("Conflict", "request with this X-Request-ID is already in progress",
				fmt.Sprintf("Request ID: %s", requestID))
			c.AbortWithStatusJSON(stdErr.HTTPStatus(), stdErr)
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || len(writer.body) == 0 {
			if reserved {
				if err := store.Release(ctx, key); err != nil {
					logger.Warn("Failed to release idempotency key",
						zap.String("request_id", requestID),
						zap.Error(err),
					)
				}
			}
			return
		}
		if err := store.Store(ctx, key, writer.body, ttl); err != nil {
			logger.Warn("Failed to store response for idempotency",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			if reserved {
				_ = store.Release(ctx, key)
			}
			return
		}
		logger.Debug("Stored response for idempotency",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
		)
	}
}

// replay answers from the store when a completed response exists for key
func replay(c *gin.Context, store RequestIDStore, key string, logger *zap.Logger) bool {
	cached, err := store.Get(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, ErrRequestIDNotFound) {
			logger.Warn("Error reading idempotency store", zap.Error(err))
		}
		return false
	}
	if len(cached) == 0 {
		return false
	}

	logger.Info("Duplicate request detected, returning cached response",
		zap.String("request_id", GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.Header(ReplayHeader, "true")
	c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
	c.Abort()
	return true
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
