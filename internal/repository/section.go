package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const sectionColumns = `id, manual_id, name, first_page, page_count, heading_level, parent_id, created_at`

type SectionRepository struct {
	db dbtx
}

func NewSectionRepository(pool *pgxpool.Pool) *SectionRepository {
	return &SectionRepository{db: pool}
}

func NewSectionRepositoryWithTx(tx pgx.Tx) *SectionRepository {
	return &SectionRepository{db: tx}
}

// ReplaceSections deletes a manual's sections and inserts new ones.
func (r *SectionRepository) ReplaceSections(ctx context.Context, manualID string, sections []domain.Section) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sections WHERE manual_id = $1`, manualID)
	if err != nil {
		return err
	}

	for _, s := range sections {
		createdAt := s.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO sections (`+sectionColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.ID, s.ManualID, s.Name, s.FirstPage, s.PageCount, s.HeadingLevel,
			nullableString(s.ParentID), createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SectionRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Section, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sectionColumns+`
		 FROM sections WHERE manual_id = $1 ORDER BY first_page ASC, heading_level ASC`,
		manualID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSectionRows(rows)
}

func (r *SectionRepository) ListByManuals(ctx context.Context, manualIDs []string) ([]domain.Section, error) {
	if len(manualIDs) == 0 {
		return []domain.Section{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+sectionColumns+`
		 FROM sections WHERE manual_id = ANY($1) ORDER BY manual_id, first_page ASC`,
		manualIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSectionRows(rows)
}

func scanSectionRows(rows pgx.Rows) ([]domain.Section, error) {
	var results []domain.Section
	for rows.Next() {
		var s domain.Section
		var parentID *string
		if err := rows.Scan(&s.ID, &s.ManualID, &s.Name, &s.FirstPage, &s.PageCount,
			&s.HeadingLevel, &parentID, &s.CreatedAt); err != nil {
			return nil, err
		}
		if parentID != nil {
			s.ParentID = *parentID
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
