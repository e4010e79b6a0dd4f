// Package web expõe a API HTTP de contas, lojas e alertas.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"pricing-service/internal/metrics"
	"pricing-service/internal/service"
)

// Pinger verifica a saúde do armazenamento.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps reúne as dependências de NewRouter.
type RouterDeps struct {
	Users       *service.Users
	Stores      *service.Stores
	Alerts      *service.Alerts
	Items       *service.Items
	DB          Pinger
	Gatherer    prometheus.Gatherer
	RateLimiter *RateLimiter
	Logger      *slog.Logger

	AdminEmail   string
	CookieSecure bool
}

// NewRouter monta as rotas e a cadeia de middlewares:
//
//	recovery → loadSession → logging → (requireLogin | requireAdmin)
func NewRouter(deps RouterDeps) http.Handler {
	h := &Handler{
		users:  deps.Users,
		stores: deps.Stores,
		alerts: deps.Alerts,
		items:  deps.Items,
		secure: deps.CookieSecure,
	}

	r := chi.NewRouter()
	r.Use(recovery)
	r.Use(loadSession(deps.Users))
	r.Use(logging(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
	})

	r.Route("/stores", func(r chi.Router) {
		r.Use(requireLogin)
		r.Get("/", h.ListStores)
		r.Get("/{id}", h.GetStore)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin(deps.AdminEmail))
			r.Post("/", h.CreateStore)
			r.Put("/{id}", h.UpdateStore)
			r.Delete("/{id}", h.DeleteStore)
		})
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Use(requireLogin)
		r.Get("/", h.ListAlerts)
		r.Post("/", h.CreateAlert)
		r.Get("/{id}", h.GetAlert)
		r.Put("/{id}", h.UpdateAlert)
		r.Delete("/{id}", h.DeleteAlert)
	})

	return r
}
