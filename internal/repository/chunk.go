package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
)

// ChunkRepository persists retrievable chunks and serves the lexical
// and vector search paths over them.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// DeleteByManual removes all chunks of a manual ahead of re-ingestion.
func (r *ChunkRepository) DeleteByManual(ctx context.Context, manualID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE manual_id = $1`, manualID)
	return err
}

// InsertChunks appends chunks. Chunks are never updated in place; a
// re-ingestion deletes and re-inserts them wholesale.
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return err
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO chunks (id, manual_id, owner_id, content, embedding, span_ids, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.ManualID, c.OwnerID, c.Content,
			vectorOrNil(c.Embedding), c.SpanIDs, metadata, createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ChunkRepository) ListByManual(ctx context.Context, manualID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, manual_id, owner_id, content, span_ids, metadata, created_at
		 FROM chunks WHERE manual_id = $1 ORDER BY created_at ASC, id ASC`,
		manualID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows, nil)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// SearchLexical ranks an owner's chunks by full-text relevance.
// Ties resolve by insertion order so repeated queries return the same
// ranking. An empty manualIDs slice searches all of the owner's
// manuals.
func (r *ChunkRepository) SearchLexical(ctx context.Context, ownerID string, manualIDs []string, query string, limit int) ([]*service.ChunkHit, error) {
	if limit <= 0 {
		limit = 20
	}

	const selectRank = `
		SELECT id, manual_id, owner_id, content, span_ids, metadata, created_at,
		       ts_rank(to_tsvector('english', content), websearch_to_tsquery('english', $2)) AS score
		FROM chunks
		WHERE owner_id = $1
		  AND to_tsvector('english', content) @@ websearch_to_tsquery('english', $2)`

	if len(manualIDs) > 0 {
		return r.searchHits(ctx,
			selectRank+` AND manual_id = ANY($3) ORDER BY score DESC, created_at ASC, id ASC LIMIT $4`,
			[]any{ownerID, query, manualIDs, limit})
	}
	return r.searchHits(ctx,
		selectRank+` ORDER BY score DESC, created_at ASC, id ASC LIMIT $3`,
		[]any{ownerID, query, limit})
}

// SearchVector ranks an owner's embedded chunks by cosine similarity.
// Chunks without an embedding never appear in the results.
func (r *ChunkRepository) SearchVector(ctx context.Context, ownerID string, manualIDs []string, embedding []float32, limit int) ([]*service.ChunkHit, error) {
	if limit <= 0 {
		limit = 20
	}

	const selectSimilarity = `
		SELECT id, manual_id, owner_id, content, span_ids, metadata, created_at,
		       1.0 / (1.0 + (embedding <=> $2)) AS score
		FROM chunks
		WHERE owner_id = $1 AND embedding IS NOT NULL`

	vec := pgvector.NewVector(embedding)
	if len(manualIDs) > 0 {
		return r.searchHits(ctx,
			selectSimilarity+` AND manual_id = ANY($3) ORDER BY score DESC, id ASC LIMIT $4`,
			[]any{ownerID, vec, manualIDs, limit})
	}
	return r.searchHits(ctx,
		selectSimilarity+` ORDER BY score DESC, id ASC LIMIT $3`,
		[]any{ownerID, vec, limit})
}

func (r *ChunkRepository) searchHits(ctx context.Context, sql string, args []any) ([]*service.ChunkHit, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]*service.ChunkHit, 0)
	for rows.Next() {
		var score float64
		c, err := scanChunk(rows, &score)
		if err != nil {
			return nil, err
		}
		hits = append(hits, &service.ChunkHit{Chunk: c, Score: score})
	}
	return hits, rows.Err()
}

func scanChunk(rows pgx.Rows, score *float64) (*domain.Chunk, error) {
	var c domain.Chunk
	var metadata []byte
	dest := []any{&c.ID, &c.ManualID, &c.OwnerID, &c.Content, &c.SpanIDs, &metadata, &c.CreatedAt}
	if score != nil {
		dest = append(dest, score)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func vectorOrNil(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
