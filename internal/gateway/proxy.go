package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	stderrors "retail-inventory/pkg/errors"
	"retail-inventory/pkg/middleware"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var corsHeaders = []string{
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Credentials",
	"Access-Control-Max-Age",
}

// NewProxy builds a reverse proxy to one upstream service. Path and query are forwarded unchanged.
func NewProxy(name, targetURL string, logger *zap.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL for %s: %q", name, targetURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	baseDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalPath := req.URL.Path
		originalRawPath := req.URL.RawPath
		originalRawQuery := req.URL.RawQuery

		baseDirector(req)

		// The upstream sees the same route the caller used
		req.URL.Path = originalPath
		req.URL.RawPath = originalRawPath
		req.URL.RawQuery = originalRawQuery
		req.Host = target.Host

		if requestID := middleware.RequestIDFromContext(req.Context()); requestID != "" {
			req.Header.Set(middleware.RequestIDHeader, requestID)
		}
		otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))

		logger.Debug("Proxying request",
			zap.String("upstream", name),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
	}

	// CORS is answered by the gateway itself
	proxy.ModifyResponse = func(resp *http.Response) error {
		for _, header := range corsHeaders {
			resp.Header.Del(header)
		}
		return nil
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("Upstream unavailable",
			zap.String("upstream", name),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body := stderrors.NewDependencyUnavailable(name)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(body.HTTPStatus())
		_ = json.NewEncoder(w).Encode(body)
	}

	return proxy, nil
}
