package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const figureColumns = `id, manual_id, page, idx, x0, y0, x1, y1, caption, kind, asset_path, created_at`

type FigureRepository struct {
	db dbtx
}

func NewFigureRepository(pool *pgxpool.Pool) *FigureRepository {
	return &FigureRepository{db: pool}
}

func NewFigureRepositoryWithTx(tx pgx.Tx) *FigureRepository {
	return &FigureRepository{db: tx}
}

// ReplaceFigures deletes a manual's figures and inserts new ones.
// (manual_id, page, index) stays unique across the replacement.
func (r *FigureRepository) ReplaceFigures(ctx context.Context, manualID string, figures []domain.Figure) error {
	_, err := r.db.Exec(ctx, `DELETE FROM figures WHERE manual_id = $1`, manualID)
	if err != nil {
		return err
	}

	for _, f := range figures {
		createdAt := f.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO figures (id, manual_id, page, idx, x0, y0, x1, y1, caption, kind, asset_path, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			f.ID, f.ManualID, f.Page, f.Index,
			f.BBox.X0, f.BBox.Y0, f.BBox.X1, f.BBox.Y1,
			f.Caption, f.Kind, f.AssetPath, createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *FigureRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Figure, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+figureColumns+`
		 FROM figures WHERE manual_id = $1 ORDER BY page ASC, idx ASC`,
		manualID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFigureRows(rows)
}

// ListByManualPages returns the figures detected on the given pages,
// ordered by page then per-page index.
func (r *FigureRepository) ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Figure, error) {
	if len(pages) == 0 {
		return []domain.Figure{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+figureColumns+`
		 FROM figures WHERE manual_id = $1 AND page = ANY($2) ORDER BY page ASC, idx ASC`,
		manualID, pages,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFigureRows(rows)
}

func scanFigureRows(rows pgx.Rows) ([]domain.Figure, error) {
	var results []domain.Figure
	for rows.Next() {
		var f domain.Figure
		if err := rows.Scan(&f.ID, &f.ManualID, &f.Page, &f.Index,
			&f.BBox.X0, &f.BBox.Y0, &f.BBox.X1, &f.BBox.Y1,
			&f.Caption, &f.Kind, &f.AssetPath, &f.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}
