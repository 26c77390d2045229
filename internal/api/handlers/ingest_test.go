package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, ownerID, manualID string) (*service.IngestStats, error) {
	args := m.Called(ctx, ownerID, manualID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestStats), args.Error(1)
}

func TestIngestHandler_Ingest_Success(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	stats := &service.IngestStats{
		TotalPages: 42,
		Spans:      1200,
		Chunks:     87,
		Figures:    5,
		Sections:   9,
	}
	mockSvc.On("Ingest", mock.Anything, "owner-456", "m-123").Return(stats, nil)

	req := requestWithOwnerID(http.MethodPost, "/manuals/m-123/ingest", nil)
	req = withURLParam(req, "id", "m-123")
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])
	statsData := data["stats"].(map[string]interface{})
	assert.Equal(t, float64(42), statsData["totalPages"])
	assert.Equal(t, float64(87), statsData["chunks"])
}

func TestIngestHandler_Ingest_UnreadableDocument(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	mockSvc.On("Ingest", mock.Anything, "owner-456", "m-bad").Return(nil,
		domain.NewDomainError(domain.ErrCodeUnreadableDocument, "document could not be parsed"))

	req := requestWithOwnerID(http.MethodPost, "/manuals/m-bad/ingest", nil)
	req = withURLParam(req, "id", "m-bad")
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIngestHandler_Ingest_Unauthorized(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/manuals/m-123/ingest", nil)
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "Ingest")
}
