package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
)

const manualColumns = `id, owner_id, title, year, make, model, vehicle_type, file_path, content_hash, page_count, status, created_at, updated_at`

type ManualRepository struct {
	db dbtx
}

func NewManualRepository(pool *pgxpool.Pool) *ManualRepository {
	return &ManualRepository{db: pool}
}

func NewManualRepositoryWithTx(tx pgx.Tx) *ManualRepository {
	return &ManualRepository{db: tx}
}

func (r *ManualRepository) Create(ctx context.Context, m *domain.Manual) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO manuals (`+manualColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.OwnerID, m.Title, m.Year, m.Make, m.Model, m.VehicleType,
		m.FilePath, m.ContentHash, m.PageCount, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *ManualRepository) GetByID(ctx context.Context, id string) (*domain.Manual, error) {
	var m domain.Manual
	err := r.db.QueryRow(ctx,
		`SELECT `+manualColumns+` FROM manuals WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.OwnerID, &m.Title, &m.Year, &m.Make, &m.Model, &m.VehicleType,
		&m.FilePath, &m.ContentHash, &m.PageCount, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrManualNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByContentHash finds an owner's manual with the given content
// hash. Used to make repeated uploads of the same file idempotent.
func (r *ManualRepository) GetByContentHash(ctx context.Context, ownerID, hash string) (*domain.Manual, error) {
	var m domain.Manual
	err := r.db.QueryRow(ctx,
		`SELECT `+manualColumns+` FROM manuals WHERE owner_id = $1 AND content_hash = $2`,
		ownerID, hash,
	).Scan(&m.ID, &m.OwnerID, &m.Title, &m.Year, &m.Make, &m.Model, &m.VehicleType,
		&m.FilePath, &m.ContentHash, &m.PageCount, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrManualNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *ManualRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Manual, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+manualColumns+` FROM manuals WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanManualRows(rows)
}

func (r *ManualRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.ManualPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+manualColumns+`
			 FROM manuals
			 WHERE owner_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			ownerID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+manualColumns+`
			 FROM manuals
			 WHERE owner_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			ownerID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanManualRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.ManualPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListUnprocessed returns the oldest manuals still awaiting ingestion.
func (r *ManualRepository) ListUnprocessed(ctx context.Context, limit int) ([]*domain.Manual, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+manualColumns+`
		 FROM manuals
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		domain.ManualStatusUnprocessed, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanManualRows(rows)
}

func (r *ManualRepository) UpdateStatus(ctx context.Context, id string, status domain.ManualStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE manuals SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrManualNotFound
	}
	return nil
}

// MarkProcessed records a successful ingestion together with the page
// count and content hash discovered during extraction.
func (r *ManualRepository) MarkProcessed(ctx context.Context, id string, pageCount int, contentHash string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE manuals SET status = $1, page_count = $2, content_hash = $3, updated_at = $4 WHERE id = $5`,
		domain.ManualStatusProcessed, pageCount, contentHash, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrManualNotFound
	}
	return nil
}

// Delete removes a manual. Spans, chunks, sections, and figures
// cascade at the database level.
func (r *ManualRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM manuals WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrManualNotFound
	}
	return nil
}

func scanManualRows(rows pgx.Rows) ([]*domain.Manual, error) {
	var results []*domain.Manual
	for rows.Next() {
		var m domain.Manual
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Year, &m.Make, &m.Model, &m.VehicleType,
			&m.FilePath, &m.ContentHash, &m.PageCount, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}
