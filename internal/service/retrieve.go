package service

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/telemetry"
)

const (
	// DefaultMaxSections caps how many section hits tier-2 retrieval returns.
	DefaultMaxSections = 3
	// DefaultChunkTopK caps how many chunk hits the fallback tier returns.
	DefaultChunkTopK = 5
	// excerptMaxChars bounds the excerpt rendered into the prompt per hit.
	excerptMaxChars = 1500
	// significantTermLen is the minimum length of a query term used for
	// section-name keyword matching.
	significantTermLen = 3
)

// HitType tags a retrieval hit with its source granularity.
type HitType string

const (
	HitTypeSection HitType = "section"
	HitTypeChunk   HitType = "chunk"
)

// RetrievalHit is one ranked piece of grounding context. SourceID is
// the underlying section or chunk row.
type RetrievalHit struct {
	Type     HitType
	SourceID string
	Manual   *domain.Manual
	Pages    []int
	Excerpt  string
	Spans    []domain.Span
	Figures  []domain.Figure
	Score    float64 // chunk hits only
}

// RetrievalResult carries the ranked hits plus the vehicle context
// that scoped them.
type RetrievalResult struct {
	Hits    []RetrievalHit
	Vehicle domain.VehicleContext
}

// VehicleExtractor pulls {year, make, model} out of a free-text query.
type VehicleExtractor interface {
	ExtractVehicleContext(ctx context.Context, query string) (domain.VehicleContext, error)
}

// QueryEmbedder embeds the query for vector-similarity search.
type QueryEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// RetrievalService answers "what grounds this query": tier 1 extracts
// vehicle context, tier 2 tries section-scoped lookup, tier 3 falls
// back to chunk-level search. The first tier that produces hits wins.
type RetrievalService struct {
	manualRepo  ManualRepositoryInterface
	sectionRepo SectionRepositoryInterface
	spanRepo    SpanRepositoryInterface
	chunkRepo   ChunkRepositoryInterface
	figureRepo  FigureRepositoryInterface
	vehicle     VehicleExtractor
	embedder    QueryEmbedder
}

// RetrievalDeps bundles the service's collaborators. Vehicle and
// Embedder may be nil; retrieval then skips vehicle scoping and uses
// lexical search only.
type RetrievalDeps struct {
	ManualRepo  ManualRepositoryInterface
	SectionRepo SectionRepositoryInterface
	SpanRepo    SpanRepositoryInterface
	ChunkRepo   ChunkRepositoryInterface
	FigureRepo  FigureRepositoryInterface
	Vehicle     VehicleExtractor
	Embedder    QueryEmbedder
}

func NewRetrievalService(deps RetrievalDeps) *RetrievalService {
	return &RetrievalService{
		manualRepo:  deps.ManualRepo,
		sectionRepo: deps.SectionRepo,
		spanRepo:    deps.SpanRepo,
		chunkRepo:   deps.ChunkRepo,
		figureRepo:  deps.FigureRepo,
		vehicle:     deps.Vehicle,
		embedder:    deps.Embedder,
	}
}

// Retrieve runs the tiered lookup for one query. Store failures
// surface as RetrievalUnavailable so the caller can distinguish "no
// grounding found" from "could not even attempt grounding".
func (s *RetrievalService) Retrieve(ctx context.Context, ownerID, query, manualID string, maxSections int) (*RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		ManualID:  manualID,
		Operation: "retrieve",
	})
	defer span.End()

	if maxSections <= 0 {
		maxSections = DefaultMaxSections
	}

	result := &RetrievalResult{}
	result.Vehicle = s.extractVehicle(ctx, query)

	scoped, err := s.scopeManuals(ctx, ownerID, manualID, result.Vehicle)
	if err != nil {
		return nil, err
	}

	if len(scoped) > 0 && (manualID != "" || !result.Vehicle.IsEmpty()) {
		hits, err := s.sectionTier(ctx, query, scoped, maxSections)
		if err != nil {
			return nil, err
		}
		result.Hits = hits
	}

	if len(result.Hits) == 0 {
		hits, err := s.chunkTier(ctx, ownerID, query, scoped)
		if err != nil {
			return nil, err
		}
		result.Hits = hits
	}

	return result, nil
}

func (s *RetrievalService) extractVehicle(ctx context.Context, query string) domain.VehicleContext {
	if s.vehicle == nil {
		return domain.VehicleContext{}
	}
	vehicle, err := s.vehicle.ExtractVehicleContext(ctx, query)
	if err != nil {
		log.Printf("retrieve: vehicle extraction failed, proceeding unscoped: %v", err)
		return domain.VehicleContext{}
	}
	return vehicle
}

// scopeManuals resolves the candidate manual set: the explicit manual
// when given, otherwise the owner's manuals matching the vehicle
// context, otherwise nothing (chunk search then covers all manuals).
func (s *RetrievalService) scopeManuals(ctx context.Context, ownerID, manualID string, vehicle domain.VehicleContext) ([]*domain.Manual, error) {
	if manualID != "" {
		manual, err := s.manualRepo.GetByID(ctx, manualID)
		if err != nil {
			if err == domain.ErrManualNotFound {
				return nil, err
			}
			return nil, retrievalUnavailable(err)
		}
		if manual.OwnerID != ownerID {
			return nil, domain.ErrForbidden
		}
		return []*domain.Manual{manual}, nil
	}

	if vehicle.IsEmpty() {
		return nil, nil
	}

	manuals, err := s.manualRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, retrievalUnavailable(err)
	}

	var matched []*domain.Manual
	for _, m := range manuals {
		if matchesVehicle(m, vehicle) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// matchesVehicle disqualifies a manual only on explicit mismatch; a
// manual missing a metadata field stays in scope.
func matchesVehicle(m *domain.Manual, v domain.VehicleContext) bool {
	if v.Year != 0 && m.Year != 0 && v.Year != m.Year {
		return false
	}
	if v.Make != "" && m.Make != "" && !strings.EqualFold(v.Make, m.Make) {
		return false
	}
	if v.Model != "" && m.Model != "" && !strings.EqualFold(v.Model, m.Model) {
		return false
	}
	return true
}

// sectionTier matches query keywords against section names within the
// scoped manuals and expands each matched section into its spans and
// figures.
func (s *RetrievalService) sectionTier(ctx context.Context, query string, scoped []*domain.Manual, maxSections int) ([]RetrievalHit, error) {
	byID := make(map[string]*domain.Manual, len(scoped))
	ids := make([]string, 0, len(scoped))
	for _, m := range scoped {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	sections, err := s.sectionRepo.ListByManuals(ctx, ids)
	if err != nil {
		return nil, retrievalUnavailable(err)
	}

	terms := significantTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		section domain.Section
		overlap int
	}
	var matched []scored
	for _, sec := range sections {
		overlap := keywordOverlap(sec.Name, terms)
		if overlap > 0 {
			matched = append(matched, scored{section: sec, overlap: overlap})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].overlap > matched[j].overlap
	})
	if len(matched) > maxSections {
		matched = matched[:maxSections]
	}

	var hits []RetrievalHit
	for _, m := range matched {
		hit, err := s.expandSection(ctx, byID[m.section.ManualID], m.section)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *RetrievalService) expandSection(ctx context.Context, manual *domain.Manual, section domain.Section) (RetrievalHit, error) {
	pages := make([]int, 0, section.PageCount)
	for p := section.FirstPage; p <= section.LastPage(); p++ {
		pages = append(pages, p)
	}

	spans, err := s.spanRepo.ListByManualPages(ctx, section.ManualID, pages)
	if err != nil {
		return RetrievalHit{}, retrievalUnavailable(err)
	}
	figures, err := s.figureRepo.ListByManualPages(ctx, section.ManualID, pages)
	if err != nil {
		return RetrievalHit{}, retrievalUnavailable(err)
	}

	texts := make([]string, 0, len(spans))
	for _, span := range spans {
		texts = append(texts, span.Text)
	}
	excerpt := strings.Join(texts, " ")
	if excerpt == "" {
		excerpt = section.Name
	}
	if len(excerpt) > excerptMaxChars {
		excerpt = excerpt[:excerptMaxChars]
	}

	return RetrievalHit{
		Type:     HitTypeSection,
		SourceID: section.ID,
		Manual:   manual,
		Pages:    pages,
		Excerpt:  excerpt,
		Spans:    spans,
		Figures:  figures,
	}, nil
}

// chunkTier runs vector search when an embedder is configured, lexical
// full-text search otherwise. An embedding failure degrades to
// lexical rather than failing the query.
func (s *RetrievalService) chunkTier(ctx context.Context, ownerID, query string, scoped []*domain.Manual) ([]RetrievalHit, error) {
	manualIDs := make([]string, 0, len(scoped))
	byID := make(map[string]*domain.Manual, len(scoped))
	for _, m := range scoped {
		manualIDs = append(manualIDs, m.ID)
		byID[m.ID] = m
	}

	chunkHits, err := s.searchChunks(ctx, ownerID, query, manualIDs)
	if err != nil {
		return nil, err
	}

	var hits []RetrievalHit
	for _, ch := range chunkHits {
		manual := byID[ch.Chunk.ManualID]
		if manual == nil {
			manual, err = s.manualRepo.GetByID(ctx, ch.Chunk.ManualID)
			if err != nil {
				return nil, retrievalUnavailable(err)
			}
			byID[manual.ID] = manual
		}

		spans, err := s.spanRepo.GetByIDs(ctx, ch.Chunk.SpanIDs)
		if err != nil {
			return nil, retrievalUnavailable(err)
		}
		figures, err := s.figureRepo.ListByManualPages(ctx, ch.Chunk.ManualID, ch.Chunk.Metadata.Pages)
		if err != nil {
			return nil, retrievalUnavailable(err)
		}

		excerpt := ch.Chunk.Content
		if len(excerpt) > excerptMaxChars {
			excerpt = excerpt[:excerptMaxChars]
		}

		hits = append(hits, RetrievalHit{
			Type:     HitTypeChunk,
			SourceID: ch.Chunk.ID,
			Manual:   manual,
			Pages:    ch.Chunk.Metadata.Pages,
			Excerpt:  excerpt,
			Spans:    spans,
			Figures:  figures,
			Score:    ch.Score,
		})
	}
	return hits, nil
}

func (s *RetrievalService) searchChunks(ctx context.Context, ownerID, query string, manualIDs []string) ([]*ChunkHit, error) {
	if s.embedder != nil {
		embedding, err := s.embedder.GenerateEmbedding(ctx, query)
		if err != nil {
			log.Printf("retrieve: query embedding failed, falling back to lexical search: %v", err)
		} else {
			hits, err := s.chunkRepo.SearchVector(ctx, ownerID, manualIDs, embedding, DefaultChunkTopK)
			if err != nil {
				return nil, retrievalUnavailable(err)
			}
			return hits, nil
		}
	}

	hits, err := s.chunkRepo.SearchLexical(ctx, ownerID, manualIDs, query, DefaultChunkTopK)
	if err != nil {
		return nil, retrievalUnavailable(err)
	}
	return hits, nil
}

// significantTerms lowercases the query and keeps terms longer than
// three characters.
func significantTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var terms []string
	for _, f := range fields {
		if len(f) > significantTermLen {
			terms = append(terms, f)
		}
	}
	return terms
}

func keywordOverlap(name string, terms []string) int {
	lower := strings.ToLower(name)
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

func retrievalUnavailable(err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeRetrievalUnavailable, "retrieval store unreachable", err)
}
