package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/dang-hang/fleet-wise-aide/internal/api"
	"github.com/dang-hang/fleet-wise-aide/internal/api/middleware"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/go-chi/chi/v5"
)

type ManualService interface {
	CreateManual(ctx context.Context, ownerID string, input service.CreateManualInput, file []byte) (*domain.Manual, error)
	GetManual(ctx context.Context, ownerID, id string) (*domain.Manual, error)
	ListManuals(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.ManualPageResult, error)
	DeleteManual(ctx context.Context, ownerID, id string) error
}

type ManualHandler struct {
	svc ManualService
}

func NewManualHandler(svc ManualService) *ManualHandler {
	return &ManualHandler{svc: svc}
}

type ManualResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Year        int    `json:"year,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	PageCount   int    `json:"page_count"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ManualListResponse struct {
	Items   []*ManualResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

func manualToResponse(m *domain.Manual) *ManualResponse {
	return &ManualResponse{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Year:        m.Year,
		Make:        m.Make,
		Model:       m.Model,
		VehicleType: m.VehicleType,
		PageCount:   m.PageCount,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   m.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ManualHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	year := 0
	if yearStr := r.FormValue("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = parsed
	}

	input := service.CreateManualInput{
		Title:       title,
		Year:        year,
		Make:        r.FormValue("make"),
		Model:       r.FormValue("model"),
		VehicleType: r.FormValue("vehicle_type"),
	}

	manual, err := h.svc.CreateManual(r.Context(), ownerID, input, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, manualToResponse(manual))
}

func (h *ManualHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	manual, err := h.svc.GetManual(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, manualToResponse(manual))
}

func (h *ManualHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var cursor *pagination.Cursor
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		decoded, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = decoded
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.svc.ListManuals(r.Context(), ownerID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ManualResponse, len(result.Items))
	for i, m := range result.Items {
		responses[i] = manualToResponse(m)
	}

	api.Success(w, http.StatusOK, ManualListResponse{
		Items:   responses,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	})
}

func (h *ManualHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.DeleteManual(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"success": true})
}
