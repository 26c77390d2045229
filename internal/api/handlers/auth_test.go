package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) CreateAPIKey(ctx context.Context, ownerID, name string) (string, error) {
	args := m.Called(ctx, ownerID, name)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) RevokeAPIKey(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func (m *MockAuthService) ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func TestAuthHandler_CreateAPIKey_Success(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	mockSvc.On("CreateAPIKey", mock.Anything, "owner-456", "ci-key").Return("fwa_deadbeef", nil)

	req := requestWithOwnerID(http.MethodPost, "/apikeys", []byte(`{"name":"ci-key"}`))
	w := httptest.NewRecorder()

	handler.CreateAPIKey(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "fwa_deadbeef", data["token"])
}

func TestAuthHandler_CreateAPIKey_Unauthenticated(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/apikeys", strings.NewReader(`{"name":"ci-key"}`))
	w := httptest.NewRecorder()

	handler.CreateAPIKey(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "CreateAPIKey")
}

func TestAuthHandler_CreateAPIKey_MissingName(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	req := requestWithOwnerID(http.MethodPost, "/apikeys", []byte(`{}`))
	w := httptest.NewRecorder()

	handler.CreateAPIKey(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "CreateAPIKey")
}

func TestAuthHandler_ListAPIKeys_Success(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	revokedAt := time.Now().UTC()
	keys := []*domain.APIKey{
		{ID: "key-1", OwnerID: "owner-456", Name: "active", CreatedAt: time.Now().UTC()},
		{ID: "key-2", OwnerID: "owner-456", Name: "old", CreatedAt: time.Now().UTC(), RevokedAt: &revokedAt},
	}
	mockSvc.On("ListAPIKeys", mock.Anything, "owner-456").Return(keys, nil)

	req := requestWithOwnerID(http.MethodGet, "/apikeys", nil)
	w := httptest.NewRecorder()

	handler.ListAPIKeys(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 2)
	second := data[1].(map[string]interface{})
	assert.Equal(t, true, second["revoked"])
}

func TestAuthHandler_RevokeAPIKey_Success(t *testing.T) {
	mockSvc := new(MockAuthService)
	handler := NewAuthHandler(mockSvc)

	mockSvc.On("RevokeAPIKey", mock.Anything, "key-1").Return(nil)

	req := requestWithOwnerID(http.MethodDelete, "/apikeys/key-1", nil)
	req = withURLParam(req, "id", "key-1")
	w := httptest.NewRecorder()

	handler.RevokeAPIKey(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
