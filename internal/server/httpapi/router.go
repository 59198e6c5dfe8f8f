package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the router's dependencies.
type RouterOptions struct {
	Handler  *Handler
	Gatherer prometheus.Gatherer

	// Ping reports backing-store health for /healthz. Optional.
	Ping func(ctx context.Context) error
}

// NewRouter builds the HTTP router: auth endpoints under /api/v1/auth,
// plus health and metrics.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", opts.Handler.handleRegister)
		r.Post("/token", opts.Handler.handleToken)
		r.Post("/refresh", opts.Handler.handleRefresh)
		r.Post("/logout", opts.Handler.handleLogout)
		r.Get("/me", opts.Handler.handleMe)
	})

	return r
}
