//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/testutil"
)

func TestSectionRepository_ReplaceSections(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	sectionRepo := NewSectionRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	first := []domain.Section{
		{ID: uuid.NewString(), ManualID: m.ID, Name: "Old Outline", FirstPage: 1, PageCount: 100, HeadingLevel: 1},
	}
	require.NoError(t, sectionRepo.ReplaceSections(ctx, m.ID, first))

	second := []domain.Section{
		{ID: uuid.NewString(), ManualID: m.ID, Name: "General Information", FirstPage: 1, PageCount: 20, HeadingLevel: 1},
		{ID: uuid.NewString(), ManualID: m.ID, Name: "Brakes", FirstPage: 21, PageCount: 40, HeadingLevel: 1},
	}
	require.NoError(t, sectionRepo.ReplaceSections(ctx, m.ID, second))

	sections, err := sectionRepo.ListByManual(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "General Information", sections[0].Name)
	assert.Equal(t, "Brakes", sections[1].Name)
	assert.Equal(t, 21, sections[1].FirstPage)
	assert.Equal(t, 40, sections[1].PageCount)
}

func TestSectionRepository_ParentIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	sectionRepo := NewSectionRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	parentID := uuid.NewString()
	sections := []domain.Section{
		{ID: parentID, ManualID: m.ID, Name: "Engine", FirstPage: 1, PageCount: 60, HeadingLevel: 1},
		{ID: uuid.NewString(), ManualID: m.ID, Name: "Oil Change", FirstPage: 10, PageCount: 5, HeadingLevel: 2, ParentID: parentID},
	}
	require.NoError(t, sectionRepo.ReplaceSections(ctx, m.ID, sections))

	got, err := sectionRepo.ListByManual(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].ParentID)
	assert.Equal(t, parentID, got[1].ParentID)
	assert.Equal(t, 2, got[1].HeadingLevel)
}

func TestSectionRepository_ListByManuals(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	sectionRepo := NewSectionRepository(pool)

	ownerID := uuid.NewString()
	tahoe := seedManual(ctx, t, manualRepo, ownerID)
	f150 := seedManual(ctx, t, manualRepo, ownerID)
	other := seedManual(ctx, t, manualRepo, ownerID)

	require.NoError(t, sectionRepo.ReplaceSections(ctx, tahoe.ID, []domain.Section{
		{ID: uuid.NewString(), ManualID: tahoe.ID, Name: "Brakes", FirstPage: 1, PageCount: 10, HeadingLevel: 1},
	}))
	require.NoError(t, sectionRepo.ReplaceSections(ctx, f150.ID, []domain.Section{
		{ID: uuid.NewString(), ManualID: f150.ID, Name: "Towing", FirstPage: 1, PageCount: 10, HeadingLevel: 1},
	}))
	require.NoError(t, sectionRepo.ReplaceSections(ctx, other.ID, []domain.Section{
		{ID: uuid.NewString(), ManualID: other.ID, Name: "Excluded", FirstPage: 1, PageCount: 10, HeadingLevel: 1},
	}))

	got, err := sectionRepo.ListByManuals(ctx, []string{tahoe.ID, f150.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"Brakes", "Towing"}, names)

	empty, err := sectionRepo.ListByManuals(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
