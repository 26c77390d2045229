package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dang-hang/fleet-wise-aide/internal/api/middleware"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockManualService struct {
	mock.Mock
}

func (m *MockManualService) CreateManual(ctx context.Context, ownerID string, input service.CreateManualInput, file []byte) (*domain.Manual, error) {
	args := m.Called(ctx, ownerID, input, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manual), args.Error(1)
}

func (m *MockManualService) GetManual(ctx context.Context, ownerID, id string) (*domain.Manual, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manual), args.Error(1)
}

func (m *MockManualService) ListManuals(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.ManualPageResult, error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ManualPageResult), args.Error(1)
}

func (m *MockManualService) DeleteManual(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func newTestManual() *domain.Manual {
	now := time.Now().UTC()
	return &domain.Manual{
		ID:          "m-123",
		OwnerID:     "owner-456",
		Title:       "2019 Tahoe Service Manual",
		Year:        2019,
		Make:        "Chevrolet",
		Model:       "Tahoe",
		VehicleType: "SUV",
		FilePath:    "manuals/owner-456/m-123.pdf",
		Status:      domain.ManualStatusUnprocessed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func requestWithOwnerID(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.OwnerIDKey, "owner-456")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func multipartUpload(t *testing.T, fields map[string]string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", "manual.pdf")
	require.NoError(t, err)
	_, err = part.Write(fileContent)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestManualHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	expected := newTestManual()
	mockSvc.On("CreateManual", mock.Anything, "owner-456", mock.MatchedBy(func(input service.CreateManualInput) bool {
		return input.Title == "2019 Tahoe Service Manual" && input.Year == 2019 && input.Make == "Chevrolet"
	}), []byte("%PDF-1.7 fake")).Return(expected, nil)

	body, contentType := multipartUpload(t, map[string]string{
		"title":        "2019 Tahoe Service Manual",
		"year":         "2019",
		"make":         "Chevrolet",
		"model":        "Tahoe",
		"vehicle_type": "SUV",
	}, []byte("%PDF-1.7 fake"))

	req := httptest.NewRequest(http.MethodPost, "/manuals", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), middleware.OwnerIDKey, "owner-456"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "m-123", data["id"])
	assert.Equal(t, "unprocessed", data["status"])
}

func TestManualHandler_Create_MissingTitle(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	body, contentType := multipartUpload(t, map[string]string{}, []byte("%PDF-1.7 fake"))

	req := httptest.NewRequest(http.MethodPost, "/manuals", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), middleware.OwnerIDKey, "owner-456"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "CreateManual")
}

func TestManualHandler_Create_Unauthorized(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/manuals", nil)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestManualHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	expected := newTestManual()
	mockSvc.On("GetManual", mock.Anything, "owner-456", "m-123").Return(expected, nil)

	req := requestWithOwnerID(http.MethodGet, "/manuals/m-123", nil)
	req = withURLParam(req, "id", "m-123")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestManualHandler_Get_Forbidden(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	mockSvc.On("GetManual", mock.Anything, "owner-456", "m-999").Return(nil, domain.ErrForbidden)

	req := requestWithOwnerID(http.MethodGet, "/manuals/m-999", nil)
	req = withURLParam(req, "id", "m-999")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestManualHandler_List_Success(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	result := &service.ManualPageResult{
		Items:      []*domain.Manual{newTestManual()},
		NextCursor: "cursor-abc",
		HasMore:    true,
	}
	mockSvc.On("ListManuals", mock.Anything, "owner-456", (*pagination.Cursor)(nil), 20).Return(result, nil)

	req := requestWithOwnerID(http.MethodGet, "/manuals", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_more"])
	assert.Equal(t, "cursor-abc", data["cursor"])
	assert.Len(t, data["items"], 1)
}

func TestManualHandler_List_InvalidCursor(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	req := requestWithOwnerID(http.MethodGet, "/manuals?cursor=%25not-base64", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "ListManuals")
}

func TestManualHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockManualService)
	handler := NewManualHandler(mockSvc)

	mockSvc.On("DeleteManual", mock.Anything, "owner-456", "m-123").Return(nil)

	req := requestWithOwnerID(http.MethodDelete, "/manuals/m-123", nil)
	req = withURLParam(req, "id", "m-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
