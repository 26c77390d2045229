package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
)

// ManualRepositoryInterface defines the repository interface for manual persistence
type ManualRepositoryInterface interface {
	Create(ctx context.Context, m *domain.Manual) error
	GetByID(ctx context.Context, id string) (*domain.Manual, error)
	GetByContentHash(ctx context.Context, ownerID, hash string) (*domain.Manual, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Manual, error)
	ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*ManualPageResult, error)
	ListUnprocessed(ctx context.Context, limit int) ([]*domain.Manual, error)
	UpdateStatus(ctx context.Context, id string, status domain.ManualStatus) error
	MarkProcessed(ctx context.Context, id string, pageCount int, contentHash string) error
	Delete(ctx context.Context, id string) error
}

type ManualPageResult struct {
	Items      []*domain.Manual
	NextCursor string
	HasMore    bool
}

// SpanRepositoryInterface defines the repository interface for span persistence
type SpanRepositoryInterface interface {
	InsertBatch(ctx context.Context, spans []domain.Span, startPosition int) error
	DeleteByManual(ctx context.Context, manualID string) error
	ListByManual(ctx context.Context, manualID string) ([]domain.Span, error)
	ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Span, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Span, error)
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence and search
type ChunkRepositoryInterface interface {
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error
	DeleteByManual(ctx context.Context, manualID string) error
	ListByManual(ctx context.Context, manualID string) ([]*domain.Chunk, error)
	SearchLexical(ctx context.Context, ownerID string, manualIDs []string, query string, limit int) ([]*ChunkHit, error)
	SearchVector(ctx context.Context, ownerID string, manualIDs []string, embedding []float32, limit int) ([]*ChunkHit, error)
}

// ChunkHit is one scored chunk returned by lexical or vector search.
type ChunkHit struct {
	Chunk *domain.Chunk
	Score float64
}

// SectionRepositoryInterface defines the repository interface for section persistence
type SectionRepositoryInterface interface {
	ReplaceSections(ctx context.Context, manualID string, sections []domain.Section) error
	ListByManual(ctx context.Context, manualID string) ([]domain.Section, error)
	ListByManuals(ctx context.Context, manualIDs []string) ([]domain.Section, error)
}

// FigureRepositoryInterface defines the repository interface for figure persistence
type FigureRepositoryInterface interface {
	ReplaceFigures(ctx context.Context, manualID string, figures []domain.Figure) error
	ListByManual(ctx context.Context, manualID string) ([]domain.Figure, error)
	ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Figure, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
