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

func pageSpan(manualID string, page int, text string) domain.Span {
	return domain.Span{
		ID:         uuid.NewString(),
		ManualID:   manualID,
		Page:       page,
		BBox:       domain.BBox{X0: 72, Y0: 700, X1: 300, Y1: 712},
		PageWidth:  612,
		PageHeight: 792,
		Text:       text,
		FontName:   "Helvetica",
		FontSize:   12,
	}
}

func TestSpanRepository_InsertBatch_PreservesReadingOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	spanRepo := NewSpanRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	first := []domain.Span{
		pageSpan(m.ID, 1, "Brake system overview"),
		pageSpan(m.ID, 1, "Pad replacement"),
	}
	second := []domain.Span{
		pageSpan(m.ID, 2, "Rotor inspection"),
	}
	require.NoError(t, spanRepo.InsertBatch(ctx, first, 0))
	require.NoError(t, spanRepo.InsertBatch(ctx, second, len(first)))

	spans, err := spanRepo.ListByManual(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, spans, 3)
	assert.Equal(t, "Brake system overview", spans[0].Text)
	assert.Equal(t, "Pad replacement", spans[1].Text)
	assert.Equal(t, "Rotor inspection", spans[2].Text)
}

func TestSpanRepository_RoundTripsGeometry(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	spanRepo := NewSpanRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	span := domain.Span{
		ID:         uuid.NewString(),
		ManualID:   m.ID,
		Page:       42,
		BBox:       domain.BBox{X0: 72.5, Y0: 640.25, X1: 498.75, Y1: 652.25},
		PageWidth:  612,
		PageHeight: 792,
		Text:       "Torque to 25 Nm",
		FontName:   "Times-Roman",
		FontSize:   10.5,
	}
	require.NoError(t, spanRepo.InsertBatch(ctx, []domain.Span{span}, 0))

	spans, err := spanRepo.ListByManual(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, span.BBox, spans[0].BBox)
	assert.Equal(t, 612.0, spans[0].PageWidth)
	assert.Equal(t, 792.0, spans[0].PageHeight)
	assert.Equal(t, "Times-Roman", spans[0].FontName)
	assert.Equal(t, 10.5, spans[0].FontSize)
}

func TestSpanRepository_ListByManualPages(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	spanRepo := NewSpanRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	spans := []domain.Span{
		pageSpan(m.ID, 1, "page one"),
		pageSpan(m.ID, 2, "page two"),
		pageSpan(m.ID, 3, "page three"),
	}
	require.NoError(t, spanRepo.InsertBatch(ctx, spans, 0))

	got, err := spanRepo.ListByManualPages(ctx, m.ID, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "page one", got[0].Text)
	assert.Equal(t, "page three", got[1].Text)

	empty, err := spanRepo.ListByManualPages(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSpanRepository_GetByIDs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	spanRepo := NewSpanRepository(pool)

	m := seedManual(ctx, t, manualRepo, uuid.NewString())

	spans := []domain.Span{
		pageSpan(m.ID, 1, "first"),
		pageSpan(m.ID, 1, "second"),
		pageSpan(m.ID, 2, "third"),
	}
	require.NoError(t, spanRepo.InsertBatch(ctx, spans, 0))

	// Results come back in reading order regardless of argument order.
	got, err := spanRepo.GetByIDs(ctx, []string{spans[2].ID, spans[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "third", got[1].Text)

	empty, err := spanRepo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSpanRepository_DeleteByManual(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	manualRepo := NewManualRepository(pool)
	spanRepo := NewSpanRepository(pool)

	kept := seedManual(ctx, t, manualRepo, uuid.NewString())
	purged := seedManual(ctx, t, manualRepo, uuid.NewString())

	require.NoError(t, spanRepo.InsertBatch(ctx, []domain.Span{pageSpan(kept.ID, 1, "stays")}, 0))
	require.NoError(t, spanRepo.InsertBatch(ctx, []domain.Span{pageSpan(purged.ID, 1, "goes")}, 0))

	require.NoError(t, spanRepo.DeleteByManual(ctx, purged.ID))

	gone, err := spanRepo.ListByManual(ctx, purged.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	remaining, err := spanRepo.ListByManual(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
