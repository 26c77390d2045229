//go:build integration

package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/repository"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
	"github.com/dang-hang/fleet-wise-aide/internal/storage"
	"github.com/dang-hang/fleet-wise-aide/internal/testutil"
)

func TestManualServiceIntegration_FullLifecycle(t *testing.T) {
	ctx := context.Background()

	pgContainer := testutil.NewPostgresContainer(ctx, t)
	defer pgContainer.Terminate(ctx)

	s3Container := testutil.NewRustFSContainer(ctx, t)
	defer s3Container.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pgContainer, "../../migrations")
	defer pool.Close()

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-manuals",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, s3Client.EnsureBucket(ctx))

	manualRepo := repository.NewManualRepository(pool)
	manualService := service.NewManualService(manualRepo, s3Client)

	ownerID := uuid.NewString()
	fileContent := []byte("%PDF-1.4 fake manual body for storage round trip")

	var manualID string

	t.Run("CreateManual stores file and registers row", func(t *testing.T) {
		manual, err := manualService.CreateManual(ctx, ownerID, service.CreateManualInput{
			Title:       "2019 Tahoe Owner's Manual",
			Year:        2019,
			Make:        "Chevrolet",
			Model:       "Tahoe",
			VehicleType: "SUV",
		}, fileContent)

		require.NoError(t, err)
		manualID = manual.ID
		assert.Equal(t, domain.ManualStatusUnprocessed, manual.Status)
		assert.Equal(t, service.HashContent(fileContent), manual.ContentHash)

		stored, err := s3Client.FetchObject(ctx, manual.FilePath)
		require.NoError(t, err)
		assert.Equal(t, fileContent, stored)
	})

	t.Run("Duplicate content returns existing manual", func(t *testing.T) {
		again, err := manualService.CreateManual(ctx, ownerID, service.CreateManualInput{
			Title: "Same File Under Another Name",
		}, fileContent)

		require.NoError(t, err)
		assert.Equal(t, manualID, again.ID)
	})

	t.Run("Download URL serves the stored file", func(t *testing.T) {
		manual, err := manualService.GetManual(ctx, ownerID, manualID)
		require.NoError(t, err)

		url, err := s3Client.GenerateDownloadURL(ctx, manual.FilePath)
		require.NoError(t, err)

		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("DeleteManual removes row and file", func(t *testing.T) {
		manual, err := manualService.GetManual(ctx, ownerID, manualID)
		require.NoError(t, err)

		require.NoError(t, manualService.DeleteManual(ctx, ownerID, manualID))

		_, err = manualRepo.GetByID(ctx, manualID)
		assert.ErrorIs(t, err, domain.ErrManualNotFound)

		_, err = s3Client.FetchObject(ctx, manual.FilePath)
		assert.Error(t, err)
	})
}
