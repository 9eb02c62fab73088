package routing

import (
	"net/http"

	"github.com/excommunicades/starnavi/internal/auth"
	"github.com/excommunicades/starnavi/internal/handlers"
	"github.com/excommunicades/starnavi/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Auth     *auth.Service
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(cfg.Auth)

	// Public routes
	mux.HandleFunc("POST /api/register", h.HandleRegister)
	mux.HandleFunc("POST /api/login", h.HandleLogin)
	mux.HandleFunc("GET /api/posts", h.HandlePostList)
	mux.HandleFunc("GET /api/posts/{id}", h.HandlePostGet)
	mux.HandleFunc("GET /api/posts/{id}/comments", h.HandleCommentList)

	// Write routes and the report require a bearer token
	mux.Handle("POST /api/posts", requireAuth(http.HandlerFunc(h.HandlePostCreate)))
	mux.Handle("POST /api/posts/{id}/comments", requireAuth(http.HandlerFunc(h.HandleCommentCreate)))
	mux.Handle("GET /api/comments/daily-breakdown", requireAuth(http.HandlerFunc(h.HandleDailyBreakdown)))

	// Operational endpoints
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBody(handler)

	// 2. Wrap with tracing
	handler = otelhttp.NewHandler(handler, "http.server")

	// 3. Apply logging middleware (outermost - wraps everything)
	handler = middleware.Logging(cfg.Logger)(handler)

	return handler
}
