package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/auth"
	"github.com/glimpse-app/glimpse/internal/metrics"
)

// DatabaseChecker reports database connectivity for health checks.
type DatabaseChecker interface {
	Health(ctx context.Context) error
}

// Router assembles the HTTP API from the individual handlers.
type Router struct {
	authHandler       *AuthHandler
	photoHandler      *PhotoHandler
	engagementHandler *EngagementHandler
	tokens            *auth.TokenService
	database          DatabaseChecker
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler       *AuthHandler
	PhotoHandler      *PhotoHandler
	EngagementHandler *EngagementHandler
	Tokens            *auth.TokenService
	Database          DatabaseChecker
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:       cfg.AuthHandler,
		photoHandler:      cfg.PhotoHandler,
		engagementHandler: cfg.EngagementHandler,
		tokens:            cfg.Tokens,
		database:          cfg.Database,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rt.recoverer)
	r.Use(rt.requestLogger)
	if rt.metrics != nil {
		r.Use(rt.httpMetrics)
	}

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	// Account registration and login
	rt.authHandler.RegisterRoutes(r)

	// Image delivery
	rt.photoHandler.RegisterImageRoutes(r)

	// Public photo reads, personalized when a token is present
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalMiddleware(rt.tokens))
		rt.photoHandler.RegisterPublicRoutes(r)
	})

	// Everything else requires a valid token
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(rt.tokens, auth.DefaultConfig()))
		rt.photoHandler.RegisterRoutes(r)
		rt.engagementHandler.RegisterRoutes(r)
	})

	return r
}

// =============================================================================
// Health
// =============================================================================

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Database: "up"}
	status := http.StatusOK

	if rt.database != nil {
		if err := rt.database.Health(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("database health check failed")
			resp.Status = "degraded"
			resp.Database = "down"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// =============================================================================
// Middleware
// =============================================================================

func (rt *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				rt.logger.Error().
					Interface("panic", rvr).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (rt *Router) httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		rt.metrics.HTTPInFlight.Inc()
		next.ServeHTTP(ww, r)
		rt.metrics.HTTPInFlight.Dec()

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		rt.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, statusClass(ww.Status())).Inc()
		rt.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusClass buckets a status code into its class ("2xx", "4xx", ...)
// to keep metric cardinality low.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
