package server

import (
	"net/http"

	"github.com/dang-hang/fleet-wise-aide/internal/api"
	"github.com/dang-hang/fleet-wise-aide/internal/api/handlers"
	"github.com/dang-hang/fleet-wise-aide/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator middleware.AuthValidator
	ManualHandler *handlers.ManualHandler
	IngestHandler *handlers.IngestHandler
	QueryHandler  *handlers.QueryHandler
	AuthHandler   *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Manual uploads are full PDFs.
	const maxBodyBytes int64 = 100 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/manuals", func(r chi.Router) {
			r.Post("/", cfg.ManualHandler.Create)
			r.Get("/", cfg.ManualHandler.List)
			r.Get("/{id}", cfg.ManualHandler.Get)
			r.Delete("/{id}", cfg.ManualHandler.Delete)
			r.Post("/{id}/ingest", cfg.IngestHandler.Ingest)
		})

		r.Route("/query", func(r chi.Router) {
			r.Post("/references", cfg.QueryHandler.References)
			r.Post("/answer", cfg.QueryHandler.Answer)
		})

		r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)
		r.Get("/apikeys", cfg.AuthHandler.ListAPIKeys)
		r.Delete("/apikeys/{id}", cfg.AuthHandler.RevokeAPIKey)
	})

	return r
}
