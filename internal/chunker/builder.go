// Package chunker groups extracted spans into bounded retrievable
// units. Grouping is positional, not semantic: spans are windowed per
// page so chunk size stays predictable without boundary detection.
package chunker

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const (
	// DefaultSpansPerChunk is the fixed window length per page.
	DefaultSpansPerChunk = 15

	// maxContentChars is the hard ceiling on chunk content. Windows
	// rarely reach it; pathological span runs are truncated.
	maxContentChars = 6000
)

// Embedder is the optional vector-embedding capability. Chunks whose
// embedding call fails are persisted without one and remain reachable
// through lexical search only.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Builder turns a manual's ordered span list into chunks.
type Builder struct {
	SpansPerChunk int
	embedder      Embedder
}

// New creates a Builder without embedding support.
func New() *Builder {
	return &Builder{SpansPerChunk: DefaultSpansPerChunk}
}

// NewWithEmbedder creates a Builder that requests an embedding per chunk.
func NewWithEmbedder(embedder Embedder) *Builder {
	return &Builder{SpansPerChunk: DefaultSpansPerChunk, embedder: embedder}
}

// Build groups spans by page, splits each page into fixed-size
// windows, and concatenates window texts with single spaces. Chunk IDs
// and owner references are filled in by the caller.
func (b *Builder) Build(ctx context.Context, manualID string, spans []domain.Span) []domain.Chunk {
	windowSize := b.SpansPerChunk
	if windowSize <= 0 {
		windowSize = DefaultSpansPerChunk
	}

	byPage := make(map[int][]domain.Span)
	pages := make([]int, 0)
	for _, span := range spans {
		if _, ok := byPage[span.Page]; !ok {
			pages = append(pages, span.Page)
		}
		byPage[span.Page] = append(byPage[span.Page], span)
	}
	sort.Ints(pages)

	var chunks []domain.Chunk
	for _, page := range pages {
		pageSpans := byPage[page]
		for start := 0; start < len(pageSpans); start += windowSize {
			end := start + windowSize
			if end > len(pageSpans) {
				end = len(pageSpans)
			}
			chunks = append(chunks, b.buildChunk(ctx, manualID, pageSpans[start:end]))
		}
	}

	return chunks
}

func (b *Builder) buildChunk(ctx context.Context, manualID string, spans []domain.Span) domain.Chunk {
	texts := make([]string, 0, len(spans))
	pageSet := make(map[int]bool)
	for _, span := range spans {
		texts = append(texts, span.Text)
		pageSet[span.Page] = true
	}

	content := strings.Join(texts, " ")
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	pages := make([]int, 0, len(pageSet))
	for page := range pageSet {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	chunk := domain.Chunk{
		ManualID: manualID,
		Content:  content,
		Metadata: domain.ChunkMetadata{
			Pages:     pages,
			CharCount: len(content),
		},
	}

	if b.embedder != nil {
		embedding, err := b.embedder.GenerateEmbedding(ctx, content)
		if err != nil {
			log.Printf("chunker: embedding failed for pages %v, chunk stays lexical-only: %v", pages, err)
		} else {
			chunk.Embedding = embedding
		}
	}

	return chunk
}

// BackfillSpanIDs sets each chunk's span-ID list to the persisted span
// IDs falling on the chunk's covered pages. Called after spans exist
// in the store so the IDs are stable.
func BackfillSpanIDs(chunks []domain.Chunk, persisted []domain.Span) {
	byPage := make(map[int][]string)
	for _, span := range persisted {
		byPage[span.Page] = append(byPage[span.Page], span.ID)
	}

	for i := range chunks {
		var ids []string
		for _, page := range chunks[i].Metadata.Pages {
			ids = append(ids, byPage[page]...)
		}
		chunks[i].SpanIDs = ids
	}
}
