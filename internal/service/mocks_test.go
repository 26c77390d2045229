package service

import (
	"context"
	"fmt"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
	"github.com/dang-hang/fleet-wise-aide/internal/pdfextract"
	"github.com/stretchr/testify/mock"
)

// MockManualRepository is a mock implementation of ManualRepositoryInterface
type MockManualRepository struct {
	mock.Mock
}

func (m *MockManualRepository) Create(ctx context.Context, manual *domain.Manual) error {
	args := m.Called(ctx, manual)
	return args.Error(0)
}

func (m *MockManualRepository) GetByID(ctx context.Context, id string) (*domain.Manual, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manual), args.Error(1)
}

func (m *MockManualRepository) GetByContentHash(ctx context.Context, ownerID, hash string) (*domain.Manual, error) {
	args := m.Called(ctx, ownerID, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manual), args.Error(1)
}

func (m *MockManualRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Manual, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Manual), args.Error(1)
}

func (m *MockManualRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*ManualPageResult, error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ManualPageResult), args.Error(1)
}

func (m *MockManualRepository) ListUnprocessed(ctx context.Context, limit int) ([]*domain.Manual, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Manual), args.Error(1)
}

func (m *MockManualRepository) UpdateStatus(ctx context.Context, id string, status domain.ManualStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockManualRepository) MarkProcessed(ctx context.Context, id string, pageCount int, contentHash string) error {
	args := m.Called(ctx, id, pageCount, contentHash)
	return args.Error(0)
}

func (m *MockManualRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSpanRepository is a mock implementation of SpanRepositoryInterface
type MockSpanRepository struct {
	mock.Mock
}

func (m *MockSpanRepository) InsertBatch(ctx context.Context, spans []domain.Span, startPosition int) error {
	args := m.Called(ctx, spans, startPosition)
	return args.Error(0)
}

func (m *MockSpanRepository) DeleteByManual(ctx context.Context, manualID string) error {
	args := m.Called(ctx, manualID)
	return args.Error(0)
}

func (m *MockSpanRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Span, error) {
	args := m.Called(ctx, manualID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Span), args.Error(1)
}

func (m *MockSpanRepository) ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Span, error) {
	args := m.Called(ctx, manualID, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Span), args.Error(1)
}

func (m *MockSpanRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Span, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Span), args.Error(1)
}

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) DeleteByManual(ctx context.Context, manualID string) error {
	args := m.Called(ctx, manualID)
	return args.Error(0)
}

func (m *MockChunkRepository) ListByManual(ctx context.Context, manualID string) ([]*domain.Chunk, error) {
	args := m.Called(ctx, manualID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

func (m *MockChunkRepository) SearchLexical(ctx context.Context, ownerID string, manualIDs []string, query string, limit int) ([]*ChunkHit, error) {
	args := m.Called(ctx, ownerID, manualIDs, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ChunkHit), args.Error(1)
}

func (m *MockChunkRepository) SearchVector(ctx context.Context, ownerID string, manualIDs []string, embedding []float32, limit int) ([]*ChunkHit, error) {
	args := m.Called(ctx, ownerID, manualIDs, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ChunkHit), args.Error(1)
}

// MockSectionRepository is a mock implementation of SectionRepositoryInterface
type MockSectionRepository struct {
	mock.Mock
}

func (m *MockSectionRepository) ReplaceSections(ctx context.Context, manualID string, sections []domain.Section) error {
	args := m.Called(ctx, manualID, sections)
	return args.Error(0)
}

func (m *MockSectionRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Section, error) {
	args := m.Called(ctx, manualID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Section), args.Error(1)
}

func (m *MockSectionRepository) ListByManuals(ctx context.Context, manualIDs []string) ([]domain.Section, error) {
	args := m.Called(ctx, manualIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Section), args.Error(1)
}

// MockFigureRepository is a mock implementation of FigureRepositoryInterface
type MockFigureRepository struct {
	mock.Mock
}

func (m *MockFigureRepository) ReplaceFigures(ctx context.Context, manualID string, figures []domain.Figure) error {
	args := m.Called(ctx, manualID, figures)
	return args.Error(0)
}

func (m *MockFigureRepository) ListByManual(ctx context.Context, manualID string) ([]domain.Figure, error) {
	args := m.Called(ctx, manualID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Figure), args.Error(1)
}

func (m *MockFigureRepository) ListByManualPages(ctx context.Context, manualID string, pages []int) ([]domain.Figure, error) {
	args := m.Called(ctx, manualID, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Figure), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) FetchObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// stubTxRunner runs the function directly against the supplied repos,
// with no real transaction underneath.
type stubTxRunner struct {
	repos stubTxRepositories
}

type stubTxRepositories struct {
	manuals  ManualRepositoryInterface
	spans    SpanRepositoryInterface
	chunks   ChunkRepositoryInterface
	sections SectionRepositoryInterface
	figures  FigureRepositoryInterface
}

func (r stubTxRepositories) Manuals() ManualRepositoryInterface   { return r.manuals }
func (r stubTxRepositories) Spans() SpanRepositoryInterface       { return r.spans }
func (r stubTxRepositories) Chunks() ChunkRepositoryInterface     { return r.chunks }
func (r stubTxRepositories) Sections() SectionRepositoryInterface { return r.sections }
func (r stubTxRepositories) Figures() FigureRepositoryInterface   { return r.figures }

func (t *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(t.repos)
}

// seqUUIDGenerator returns id-1, id-2, ... for deterministic assertions.
type seqUUIDGenerator struct {
	n int
}

func (g *seqUUIDGenerator) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// MockExtractor is a mock implementation of SpanExtractor. Configure
// its flush behavior through the OnExtract hook.
type MockExtractor struct {
	mock.Mock
	OnExtract func(ctx context.Context, flush pdfextract.FlushFunc) (*pdfextract.Result, error)
}

func (m *MockExtractor) Extract(ctx context.Context, data []byte, flush pdfextract.FlushFunc) (*pdfextract.Result, error) {
	if m.OnExtract != nil {
		return m.OnExtract(ctx, flush)
	}
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pdfextract.Result), args.Error(1)
}

// MockDetector is a mock implementation of FigureDetector
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) DetectPage(ctx context.Context, page int, spans []domain.Span, imageOps int) []domain.Figure {
	args := m.Called(ctx, page, spans, imageOps)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Figure)
}

// MockSegmenter is a mock implementation of SectionSegmenter
type MockSegmenter struct {
	mock.Mock
}

func (m *MockSegmenter) Segment(ctx context.Context, frontMatter string, totalPages int) []domain.Section {
	args := m.Called(ctx, frontMatter, totalPages)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Section)
}

// MockChunkBuilder is a mock implementation of ChunkBuilder
type MockChunkBuilder struct {
	mock.Mock
}

func (m *MockChunkBuilder) Build(ctx context.Context, manualID string, spans []domain.Span) []domain.Chunk {
	args := m.Called(ctx, manualID, spans)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Chunk)
}

// MockVehicleExtractor is a mock implementation of VehicleExtractor
type MockVehicleExtractor struct {
	mock.Mock
}

func (m *MockVehicleExtractor) ExtractVehicleContext(ctx context.Context, query string) (domain.VehicleContext, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(domain.VehicleContext), args.Error(1)
}

// MockQueryEmbedder is a mock implementation of QueryEmbedder
type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, ownerID, query, manualID string, maxSections int) (*RetrievalResult, error) {
	args := m.Called(ctx, ownerID, query, manualID, maxSections)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalResult), args.Error(1)
}

// MockAssembler is a mock implementation of Assembler
type MockAssembler struct {
	mock.Mock
}

func (m *MockAssembler) Assemble(ctx context.Context, hits []RetrievalHit) (string, map[string]domain.CitationRecord) {
	args := m.Called(ctx, hits)
	return args.String(0), args.Get(1).(map[string]domain.CitationRecord)
}

// MockGenerator is a mock implementation of Generator. Deltas listed
// in Deltas are streamed before Err is returned.
type MockGenerator struct {
	mock.Mock
	Deltas []string
	Err    error
}

func (m *MockGenerator) StreamCompletion(ctx context.Context, system string, history []domain.ChatMessage, onDelta func(delta string) error) error {
	m.Called(ctx, system, history)
	for _, d := range m.Deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return m.Err
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
