package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/leadgate/internal/infra/http/middleware"
)

type RouterConfig struct {
	Leads       *LeadHandler
	Admin       *AdminHandler
	Health      *HealthHandler
	CORSOrigins []string
	AccessLog   bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
	}))

	r.Get("/", cfg.Leads.View)
	r.Post("/leads", cfg.Leads.CaptureLead)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login-prompt", cfg.Admin.RequestLogin)
		r.Post("/login", cfg.Admin.Login)
		r.Post("/cancel", cfg.Admin.CancelLogin)
		r.Post("/logout", cfg.Admin.Logout)

		r.Get("/leads", cfg.Admin.List)
		r.Get("/leads/export", cfg.Admin.Export)
		r.Patch("/leads/{key}", cfg.Admin.UpdateFlags)
		r.Delete("/leads/{key}", cfg.Admin.Delete)
	})

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// allowsAnyOrigin reports a wildcard origin list. Cookies are never sent cross-origin then,
// otherwise any site could drive the admin routes with the visitor's session.
func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
