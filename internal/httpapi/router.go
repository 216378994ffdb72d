// Package httpapi exposes the solver and location resolver over HTTP:
// GET /api/times, GET /api/month, GET /api/cities, plus a health
// check. It is a plain net/http mux wrapped in rs/cors, with errors
// mapped straight from the location and solver packages' own sentinel
// error types rather than through any gRPC-to-HTTP translation layer,
// since this port has no gRPC backend to translate from.
package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/yusufkaya/waqt/internal/cache"
	"github.com/yusufkaya/waqt/internal/config"
	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/logging"
)

var logger = logging.Logger

// Server wires the location resolver, schedule cache, and config into
// an http.Handler.
type Server struct {
	resolver *location.Resolver
	cache    cache.Store
	cfg      config.Config
}

// NewServer builds a Server over a resolver, the per-date cache (a
// plain *cache.ScheduleCache or a *cache.Tiered with Redis behind it),
// and the resolved configuration.
func NewServer(resolver *location.Resolver, scheduleCache cache.Store, cfg config.Config) *Server {
	return &Server{resolver: resolver, cache: scheduleCache, cfg: cfg}
}

// Handler builds the full middleware-wrapped router: logging, request
// ID, health check, then CORS as the outermost layer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/times", s.handleTimes)
	mux.HandleFunc("/api/month", s.handleMonth)
	mux.HandleFunc("/api/cities", s.handleCities)

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = addHealthCheck(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: getCORSOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id", "X-Response-Time"},
		MaxAge:         300,
	})
	return c.Handler(handler)
}

// NewHTTPServer builds an *http.Server with conservative read, write,
// and idle timeouts so a slow or stalled client can't hold a
// connection open indefinitely.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// responseWriter wraps http.ResponseWriter to capture the status code
// for the access log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := requestIDFrom(r)
		r.Header.Set("X-Request-Id", requestID)
		w.Header().Set("X-Request-Id", requestID)

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		w.Header().Set("X-Response-Time", duration.String())

		logger.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("query", r.URL.RawQuery).
			WithField("status", wrapper.statusCode).
			WithField("duration", duration).
			WithField("request_id", requestID).
			Info("http request")
	})
}

func addHealthCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getCORSOrigins reads CORS_ALLOWED_ORIGINS (comma-separated), falling
// back to local dev-server origins when unset.
func getCORSOrigins() []string {
	defaults := []string{"http://localhost:5173", "http://localhost:3000"}

	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return defaults
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return defaults
	}
	return origins
}
