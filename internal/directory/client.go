package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"retail-inventory/pkg/middleware"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const (
	ServiceStore   = "store-service"
	ServiceProduct = "product-service"
)

// ErrDependencyUnavailable is returned when a peer cannot answer: 5xx, network error or timeout.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// UnavailableError names the peer that could not answer an existence check
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

// Resolver returns the base URL of a named peer service
type Resolver interface {
	Resolve(service string) (string, error)
}

// StaticResolver resolves peers from configuration
type StaticResolver map[string]string

func (r StaticResolver) Resolve(service string) (string, error) {
	baseURL, ok := r[service]
	if !ok || baseURL == "" {
		return "", fmt.Errorf("no address configured for %s", service)
	}
	return strings.TrimSuffix(baseURL, "/"), nil
}

// Client asks peer services whether a store or product exists.
// The caller's token is forwarded unchanged.
type Client struct {
	httpClient *resty.Client
	resolver   Resolver
	logger     *zap.Logger
}

// NewClient builds a resty-backed directory client with a per-call timeout
func NewClient(resolver Resolver, timeout time.Duration, logger *zap.Logger) *Client {
	restyClient := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		httpClient: restyClient,
		resolver:   resolver,
		logger:     logger,
	}
}

// StoreExists calls GET {store-service}/stores/{id}
func (c *Client) StoreExists(ctx context.Context, storeID int64, callerToken string) (bool, error) {
	return c.exists(ctx, ServiceStore, fmt.Sprintf("/stores/%d", storeID), callerToken)
}

// ProductExists calls GET {product-service}/products/{id}
func (c *Client) ProductExists(ctx context.Context, productID int64, callerToken string) (bool, error) {
	return c.exists(ctx, ServiceProduct, fmt.Sprintf("/products/%d", productID), callerToken)
}

func (c *Client) exists(ctx context.Context, service, path, callerToken string) (bool, error) {
	ctx, span := otel.Tracer("directory").Start(ctx, "directory.exists")
	defer span.End()
	span.SetAttributes(
		attribute.String("peer.service", service),
		attribute.String("http.path", path),
	)

	baseURL, err := c.resolver.Resolve(service)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, &UnavailableError{Service: service, Err: err}
	}

	headers := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, headers)

	req := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers)
	if callerToken != "" {
		req.SetAuthToken(callerToken)
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.SetHeader(middleware.RequestIDHeader, requestID)
	}

	resp, err := req.Get(baseURL + path)
	if err != nil {
		c.logger.Warn("Directory lookup failed",
			zap.String("service", service),
			zap.String("path", path),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return false, &UnavailableError{Service: service, Err: err}
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case status >= http.StatusInternalServerError:
		c.logger.Warn("Directory peer error",
			zap.String("service", service),
			zap.String("path", path),
			zap.Int("status", status),
		)
		span.SetStatus(codes.Error, "peer error")
		return false, &UnavailableError{Service: service, Err: fmt.Errorf("status %d", status)}
	case status >= http.StatusBadRequest:
		c.logger.Debug("Directory reference not found",
			zap.String("service", service),
			zap.String("path", path),
			zap.Int("status", status),
		)
		return false, nil
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return hasIdentifier(resp.Body()), nil
	default:
		return false, nil
	}
}

// hasIdentifier reports whether body is a JSON object carrying a non-null id
func hasIdentifier(body []byte) bool {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	id, ok := payload["id"]
	return ok && string(id) != "null"
}
