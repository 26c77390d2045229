package handlers

import (
	"context"
	"net/http"

	"github.com/dang-hang/fleet-wise-aide/internal/api"
	"github.com/dang-hang/fleet-wise-aide/internal/api/middleware"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/go-chi/chi/v5"
)

type IngestService interface {
	Ingest(ctx context.Context, ownerID, manualID string) (*service.IngestStats, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestResponse struct {
	Success bool                 `json:"success"`
	Stats   *service.IngestStats `json:"stats"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	stats, err := h.svc.Ingest(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestResponse{
		Success: true,
		Stats:   stats,
	})
}
