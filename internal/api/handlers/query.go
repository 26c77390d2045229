package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/dang-hang/fleet-wise-aide/internal/api"
	"github.com/dang-hang/fleet-wise-aide/internal/api/middleware"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, ownerID string, req service.AnswerRequest, emit service.EventSink) error
	References(ctx context.Context, ownerID string, req service.AnswerRequest) (*service.ReferencesResult, error)
}

type QueryHandler struct {
	svc AnswerService
}

func NewQueryHandler(svc AnswerService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Query       string               `json:"query"`
	ManualID    string               `json:"manual_id,omitempty"`
	MaxSections int                  `json:"max_sections,omitempty"`
	History     []domain.ChatMessage `json:"history,omitempty"`
}

type ReferenceItem struct {
	Label       string       `json:"label"`
	ManualID    string       `json:"manualId"`
	ManualTitle string       `json:"manualTitle"`
	Page        int          `json:"page"`
	BBox        *domain.BBox `json:"bbox,omitempty"`
	Snippet     string       `json:"snippet,omitempty"`
	IsFigure    bool         `json:"isFigure,omitempty"`
	FigureURL   string       `json:"figureUrl,omitempty"`
	DeepLink    string       `json:"deepLink"`
}

type ReferencesResponse struct {
	Vehicle    domain.VehicleContext `json:"vehicle"`
	References []ReferenceItem       `json:"references"`
}

// streamFrame matches the wire shape stream consumers decode: each
// frame carries one delta, the final frame carries the citation map.
type streamFrame struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta streamDelta `json:"delta"`
}

type streamDelta struct {
	Content   string                           `json:"content"`
	Citations map[string]domain.CitationRecord `json:"citations,omitempty"`
}

func (h *QueryHandler) decodeQuery(w http.ResponseWriter, r *http.Request) (service.AnswerRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return service.AnswerRequest{}, false
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return service.AnswerRequest{}, false
	}

	return service.AnswerRequest{
		Query:       req.Query,
		ManualID:    req.ManualID,
		MaxSections: req.MaxSections,
		History:     req.History,
	}, true
}

func (h *QueryHandler) References(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := h.svc.References(r.Context(), ownerID, req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	labels := make([]string, 0, len(result.Citations))
	for label := range result.Citations {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	refs := make([]ReferenceItem, 0, len(labels))
	for _, label := range labels {
		rec := result.Citations[label]
		refs = append(refs, ReferenceItem{
			Label:       label,
			ManualID:    rec.ManualID,
			ManualTitle: rec.ManualTitle,
			Page:        rec.Page,
			BBox:        rec.BBox,
			Snippet:     rec.Snippet,
			IsFigure:    rec.IsFigure,
			FigureURL:   rec.FigureURL,
			DeepLink:    rec.DeepLink(),
		})
	}

	api.Success(w, http.StatusOK, ReferencesResponse{
		Vehicle:    result.Vehicle,
		References: refs,
	})
}

func (h *QueryHandler) Answer(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event service.AnswerEvent) error {
		frame := streamFrame{
			Choices: []streamChoice{{Delta: streamDelta{
				Content:   event.Content,
				Citations: event.Citations,
			}}},
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.svc.Answer(r.Context(), ownerID, req, emit); err != nil {
		// Headers are already written; surface the failure as a frame
		// so the client does not mistake a broken stream for success.
		writeStreamError(w, flusher, err)
		return
	}

	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

func writeStreamError(w http.ResponseWriter, flusher http.Flusher, err error) {
	message := "internal error"
	code := domain.ErrCodeInternalError
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		code = domainErr.Code
	}

	payload, marshalErr := json.Marshal(map[string]string{"error": message, "code": code})
	if marshalErr != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()
}
