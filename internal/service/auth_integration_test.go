//go:build integration

package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dang-hang/fleet-wise-aide/internal/repository"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/dang-hang/fleet-wise-aide/internal/testutil"
)

func TestAuthServiceIntegration_KeyLifecycle(t *testing.T) {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := repository.NewAPIKeyRepository(pool)
	authService := service.NewAuthService(keyRepo, &service.DefaultUUIDGenerator{})

	ownerID := uuid.NewString()

	token, err := authService.CreateAPIKey(ctx, ownerID, "fleet dashboard")
	require.NoError(t, err)
	assert.True(t, service.IsValidAPIToken(token))

	resolvedOwner, err := authService.ValidateAPIKey(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, resolvedOwner)

	keys, err := authService.ListAPIKeys(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "fleet dashboard", keys[0].Name)

	require.NoError(t, authService.RevokeAPIKey(ctx, keys[0].ID))

	_, err = authService.ValidateAPIKey(ctx, token)
	assert.Error(t, err)
}
