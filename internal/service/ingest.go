package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dang-hang/fleet-wise-aide/internal/chunker"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pdfextract"
	"github.com/dang-hang/fleet-wise-aide/internal/telemetry"
)

// DefaultFrontMatterMax bounds how much leading text is handed to the
// section segmenter.
const DefaultFrontMatterMax = 8000

// SpanExtractor walks a PDF byte stream, emitting span batches.
type SpanExtractor interface {
	Extract(ctx context.Context, data []byte, flush pdfextract.FlushFunc) (*pdfextract.Result, error)
}

// FigureDetector locates figure and table candidates on one page.
type FigureDetector interface {
	DetectPage(ctx context.Context, page int, spans []domain.Span, imageOps int) []domain.Figure
}

// SectionSegmenter produces the manual's section outline.
type SectionSegmenter interface {
	Segment(ctx context.Context, frontMatter string, totalPages int) []domain.Section
}

// ChunkBuilder groups spans into retrievable chunks.
type ChunkBuilder interface {
	Build(ctx context.Context, manualID string, spans []domain.Span) []domain.Chunk
}

// IngestStats summarizes one ingestion pass.
type IngestStats struct {
	TotalPages   int   `json:"totalPages"`
	Spans        int   `json:"spans"`
	Chunks       int   `json:"chunks"`
	Figures      int   `json:"figures"`
	Tables       int   `json:"tables"`
	Sections     int   `json:"sections"`
	SkippedPages []int `json:"skippedPages,omitempty"`
}

// IngestionService runs the full pipeline for one manual: extraction,
// figure detection, chunk building, and segmentation. Pages flow
// through in sequential batches; each batch's spans and chunks are
// flushed before the next begins.
type IngestionService struct {
	manualRepo     ManualRepositoryInterface
	spanRepo       SpanRepositoryInterface
	chunkRepo      ChunkRepositoryInterface
	sectionRepo    SectionRepositoryInterface
	figureRepo     FigureRepositoryInterface
	txRunner       TxRunner
	store          ObjectStore
	extractor      SpanExtractor
	detector       FigureDetector
	segmenter      SectionSegmenter
	chunks         ChunkBuilder
	uuidGen        UUIDGenerator
	frontMatterMax int
}

// IngestionDeps bundles the service's collaborators.
type IngestionDeps struct {
	ManualRepo  ManualRepositoryInterface
	SpanRepo    SpanRepositoryInterface
	ChunkRepo   ChunkRepositoryInterface
	SectionRepo SectionRepositoryInterface
	FigureRepo  FigureRepositoryInterface
	TxRunner    TxRunner
	Store       ObjectStore
	Extractor   SpanExtractor
	Detector    FigureDetector
	Segmenter   SectionSegmenter
	Chunks      ChunkBuilder

	// FrontMatterMax caps the leading text handed to the structure
	// capability. Zero means DefaultFrontMatterMax.
	FrontMatterMax int
}

func NewIngestionService(deps IngestionDeps) *IngestionService {
	frontMatterMax := deps.FrontMatterMax
	if frontMatterMax <= 0 {
		frontMatterMax = DefaultFrontMatterMax
	}
	return &IngestionService{
		manualRepo:     deps.ManualRepo,
		spanRepo:       deps.SpanRepo,
		chunkRepo:      deps.ChunkRepo,
		sectionRepo:    deps.SectionRepo,
		figureRepo:     deps.FigureRepo,
		txRunner:       deps.TxRunner,
		store:          deps.Store,
		extractor:      deps.Extractor,
		detector:       deps.Detector,
		segmenter:      deps.Segmenter,
		chunks:         deps.Chunks,
		uuidGen:        &DefaultUUIDGenerator{},
		frontMatterMax: frontMatterMax,
	}
}

// NewIngestionServiceWithUUIDGen is the testing constructor.
func NewIngestionServiceWithUUIDGen(deps IngestionDeps, uuidGen UUIDGenerator) *IngestionService {
	s := NewIngestionService(deps)
	s.uuidGen = uuidGen
	return s
}

// Ingest processes one manual end to end. Prior derived rows are
// purged in a single transaction before extraction starts, so a
// failure mid-way leaves the manual with no derived data rather than
// a mix of old and new. Capability failures (segmentation, captioning,
// embedding) degrade to defaults; document-read and store-write
// failures abort and mark the manual failed.
func (s *IngestionService) Ingest(ctx context.Context, ownerID, manualID string) (*IngestStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		ManualID:  manualID,
		Operation: "ingest",
	})
	defer span.End()

	manual, err := s.manualRepo.GetByID(ctx, manualID)
	if err != nil {
		return nil, err
	}
	if manual.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	data, err := s.store.FetchObject(ctx, manual.FilePath)
	if err != nil {
		s.markFailed(ctx, manualID)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "failed to fetch manual file", err)
	}

	if err := s.purgeDerived(ctx, manualID); err != nil {
		return nil, err
	}

	stats := &IngestStats{}
	var (
		position    int
		frontMatter strings.Builder
		figures     []domain.Figure
	)

	flush := func(ctx context.Context, spans []domain.Span, imageOps map[int]int) error {
		for i := range spans {
			spans[i].ID = s.uuidGen.NewString()
			spans[i].ManualID = manualID
		}
		if err := s.spanRepo.InsertBatch(ctx, spans, position); err != nil {
			return err
		}
		position += len(spans)
		stats.Spans += len(spans)

		s.collectFrontMatter(&frontMatter, spans)

		chunks := s.chunks.Build(ctx, manualID, spans)
		chunker.BackfillSpanIDs(chunks, spans)
		now := time.Now().UTC()
		for i := range chunks {
			chunks[i].ID = s.uuidGen.NewString()
			chunks[i].OwnerID = manual.OwnerID
			chunks[i].CreatedAt = now
		}
		if err := s.chunkRepo.InsertChunks(ctx, chunks); err != nil {
			return err
		}
		stats.Chunks += len(chunks)

		figures = append(figures, s.detectBatch(ctx, manualID, spans, imageOps)...)
		return nil
	}

	result, err := s.extractor.Extract(ctx, data, flush)
	if err != nil {
		s.markFailed(ctx, manualID)
		return nil, err
	}

	stats.TotalPages = result.TotalPages
	stats.SkippedPages = result.SkippedPages

	sections := s.segmenter.Segment(ctx, frontMatter.String(), result.TotalPages)
	now := time.Now().UTC()
	for i := range sections {
		sections[i].ID = s.uuidGen.NewString()
		sections[i].ManualID = manualID
		sections[i].CreatedAt = now
	}
	if err := s.sectionRepo.ReplaceSections(ctx, manualID, sections); err != nil {
		s.markFailed(ctx, manualID)
		return nil, err
	}
	stats.Sections = len(sections)

	if err := s.figureRepo.ReplaceFigures(ctx, manualID, figures); err != nil {
		s.markFailed(ctx, manualID)
		return nil, err
	}
	for _, f := range figures {
		if f.Kind == domain.FigureKindTable {
			stats.Tables++
		} else {
			stats.Figures++
		}
	}

	if err := s.manualRepo.MarkProcessed(ctx, manualID, result.TotalPages, HashContent(data)); err != nil {
		return nil, err
	}

	return stats, nil
}

// purgeDerived deletes all derived rows for the manual in one
// transaction so re-ingestion never mixes old and new data.
func (s *IngestionService) purgeDerived(ctx context.Context, manualID string) error {
	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().DeleteByManual(ctx, manualID); err != nil {
			return err
		}
		if err := repos.Spans().DeleteByManual(ctx, manualID); err != nil {
			return err
		}
		if err := repos.Sections().ReplaceSections(ctx, manualID, nil); err != nil {
			return err
		}
		return repos.Figures().ReplaceFigures(ctx, manualID, nil)
	})
}

func (s *IngestionService) collectFrontMatter(sb *strings.Builder, spans []domain.Span) {
	for _, span := range spans {
		if sb.Len() >= s.frontMatterMax {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		remaining := s.frontMatterMax - sb.Len()
		text := span.Text
		if len(text) > remaining {
			text = text[:remaining]
		}
		sb.WriteString(text)
	}
}

func (s *IngestionService) detectBatch(ctx context.Context, manualID string, spans []domain.Span, imageOps map[int]int) []domain.Figure {
	byPage := make(map[int][]domain.Span)
	pages := make([]int, 0)
	for _, span := range spans {
		if _, ok := byPage[span.Page]; !ok {
			pages = append(pages, span.Page)
		}
		byPage[span.Page] = append(byPage[span.Page], span)
	}
	for page := range imageOps {
		if _, ok := byPage[page]; !ok {
			pages = append(pages, page)
		}
	}
	sort.Ints(pages)

	now := time.Now().UTC()
	var figures []domain.Figure
	for _, page := range pages {
		for _, f := range s.detector.DetectPage(ctx, page, byPage[page], imageOps[page]) {
			f.ID = s.uuidGen.NewString()
			f.ManualID = manualID
			f.CreatedAt = now
			figures = append(figures, f)
		}
	}
	return figures
}

func (s *IngestionService) markFailed(ctx context.Context, manualID string) {
	_ = s.manualRepo.UpdateStatus(ctx, manualID, domain.ManualStatusFailed)
}
