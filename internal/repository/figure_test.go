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

func TestFigureRepository_ReplaceFigures(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	figureRepo := NewFigureRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	first := []domain.Figure{
		{ID: uuid.NewString(), ManualID: m.ID, Page: 1, Index: 1, Caption: "Stale", Kind: domain.FigureKindFigure},
	}
	require.NoError(t, figureRepo.ReplaceFigures(ctx, m.ID, first))

	second := []domain.Figure{
		{
			ID: uuid.NewString(), ManualID: m.ID, Page: 12, Index: 1,
			BBox:    domain.BBox{X0: 100, Y0: 400, X1: 500, Y1: 700},
			Caption: "Figure 3-1  Brake caliper assembly", Kind: domain.FigureKindFigure,
		},
		{
			ID: uuid.NewString(), ManualID: m.ID, Page: 12, Index: 2,
			Caption: "Table 3-2  Torque specifications", Kind: domain.FigureKindTable,
		},
	}
	require.NoError(t, figureRepo.ReplaceFigures(ctx, m.ID, second))

	figures, err := figureRepo.ListByManual(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, figures, 2)
	assert.Equal(t, "Figure 3-1  Brake caliper assembly", figures[0].Caption)
	assert.Equal(t, domain.BBox{X0: 100, Y0: 400, X1: 500, Y1: 700}, figures[0].BBox)
	assert.Equal(t, domain.FigureKindTable, figures[1].Kind)
	assert.Equal(t, 2, figures[1].Index)
}

func TestFigureRepository_DuplicatePageIndexRejected(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	figureRepo := NewFigureRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	dup := []domain.Figure{
		{ID: uuid.NewString(), ManualID: m.ID, Page: 5, Index: 1, Caption: "One", Kind: domain.FigureKindFigure},
		{ID: uuid.NewString(), ManualID: m.ID, Page: 5, Index: 1, Caption: "Two", Kind: domain.FigureKindFigure},
	}
	err := figureRepo.ReplaceFigures(ctx, m.ID, dup)
	assert.Error(t, err)
}

func TestFigureRepository_ListByManualPages(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	figureRepo := NewFigureRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	figures := []domain.Figure{
		{ID: uuid.NewString(), ManualID: m.ID, Page: 3, Index: 1, Caption: "Fuse box", Kind: domain.FigureKindFigure},
		{ID: uuid.NewString(), ManualID: m.ID, Page: 7, Index: 1, Caption: "Wiring diagram", Kind: domain.FigureKindFigure},
		{ID: uuid.NewString(), ManualID: m.ID, Page: 9, Index: 1, Caption: "Fluid table", Kind: domain.FigureKindTable},
	}
	require.NoError(t, figureRepo.ReplaceFigures(ctx, m.ID, figures))

	got, err := figureRepo.ListByManualPages(ctx, m.ID, []int{3, 9})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fuse box", got[0].Caption)
	assert.Equal(t, "Fluid table", got[1].Caption)

	empty, err := figureRepo.ListByManualPages(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
