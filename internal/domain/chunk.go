package domain

import (
	"fmt"
	"time"
)

// ChunkMetadata is the fixed-shape metadata carried by every chunk.
type ChunkMetadata struct {
	Pages     []int `json:"pages"`
	CharCount int   `json:"char_count"`
}

// Chunk is a bounded group of spans treated as one retrievable unit.
// Chunks without an embedding stay reachable through lexical search
// but are excluded from vector-similarity queries. Never mutated;
// replaced wholesale on re-processing.
type Chunk struct {
	ID        string
	ManualID  string
	OwnerID   string
	Content   string
	Embedding []float32
	SpanIDs   []string
	Metadata  ChunkMetadata
	CreatedAt time.Time
}

// ValidateChunk validates a Chunk against its manual's page range.
func ValidateChunk(c *Chunk, totalPages int) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.ManualID == "" {
		return fmt.Errorf("chunk ManualID is required")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	for _, page := range c.Metadata.Pages {
		if page < 1 || page > totalPages {
			return fmt.Errorf("chunk page %d outside manual range [1, %d]", page, totalPages)
		}
	}

	return nil
}
