package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const spanColumns = `id, manual_id, page, x0, y0, x1, y1, page_width, page_height, text, font_name, font_size`

// SpanRepository persists the immutable text runs extracted per page.
type SpanRepository struct {
	db dbtx
}

func NewSpanRepository(pool *pgxpool.Pool) *SpanRepository {
	return &SpanRepository{db: pool}
}

func NewSpanRepositoryWithTx(tx pgx.Tx) *SpanRepository {
	return &SpanRepository{db: tx}
}

// InsertBatch appends spans in extraction order. The position column
// preserves reading order within the manual across batches.
func (r *SpanRepository) InsertBatch(ctx context.Context, spans []domain.Span, startPosition int) error {
	for i, s := range spans {
		_, err := r.db.Exec(ctx,
			`INSERT INTO spans (`+spanColumns+`, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			s.ID, s.ManualID, s.Page,
			s.BBox.X0, s.BBox.Y0, s.BBox.X1, s.BBox.Y1,
			s.PageWidth, s.PageHeight, s.Text, s.FontName, s.FontSize,
			startPosition+i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteByManual removes all spans of a manual ahead of re-ingestion.
func (r *SpanRepository) DeleteByManual(ctx context.Context, manualID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM spans WHERE manual_id = $1`, manualID)
	return err
}

func (r *SpanRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Span, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+spanColumns+`
		 FROM spans WHERE manual_id = $1 ORDER BY position ASC`,
		manualID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpanRows(rows)
}

// ListByManualPages returns spans on the given pages in reading order.
func (r *SpanRepository) ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Span, error) {
	if len(pages) == 0 {
		return []domain.Span{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+spanColumns+`
		 FROM spans WHERE manual_id = $1 AND page = ANY($2) ORDER BY position ASC`,
		manualID, pages,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpanRows(rows)
}

// GetByIDs resolves span rows for citation assembly. Results come back
// in reading order, not argument order.
func (r *SpanRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Span, error) {
	if len(ids) == 0 {
		return []domain.Span{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+spanColumns+`
		 FROM spans WHERE id = ANY($1) ORDER BY position ASC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpanRows(rows)
}

func scanSpanRows(rows pgx.Rows) ([]domain.Span, error) {
	var results []domain.Span
	for rows.Next() {
		var s domain.Span
		if err := rows.Scan(&s.ID, &s.ManualID, &s.Page,
			&s.BBox.X0, &s.BBox.Y0, &s.BBox.X1, &s.BBox.Y1,
			&s.PageWidth, &s.PageHeight, &s.Text, &s.FontName, &s.FontSize); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
