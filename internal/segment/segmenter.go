// Package segment builds a coarse outline of a manual from its front
// matter. The segmenter never fails outright: when the
// structure-extraction capability is unavailable, errors, or returns
// nothing usable, it falls back to a deterministic partition.
package segment

import (
	"context"
	"log"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

// DefaultFrontMatterBudget caps how much front-matter text is sent to
// the structure-extraction capability.
const DefaultFrontMatterBudget = 8000

// defaultChapters are the generic partitions used when structure
// extraction is unavailable or low-confidence. Standard repair-manual
// chapter names, in reading order.
var defaultChapters = []string{
	"General Information",
	"Maintenance Schedule",
	"Engine",
	"Transmission and Drivetrain",
	"Brakes and Suspension",
	"Electrical System",
	"Body and Interior",
}

// OutlineEntry is one extracted section candidate.
type OutlineEntry struct {
	Name         string `json:"name"`
	FirstPage    int    `json:"first_page"`
	PageCount    int    `json:"page_count"`
	HeadingLevel int    `json:"heading_level"`
}

// OutlineExtractor is the structure-extraction capability.
type OutlineExtractor interface {
	ExtractOutline(ctx context.Context, frontMatter string, totalPages int) ([]OutlineEntry, error)
}

// Segmenter produces the ordered section list for a manual.
type Segmenter struct {
	extractor        OutlineExtractor
	frontMatterLimit int
}

// New creates a Segmenter. extractor may be nil, in which case every
// manual gets the deterministic fallback partition.
func New(extractor OutlineExtractor) *Segmenter {
	return &Segmenter{extractor: extractor, frontMatterLimit: DefaultFrontMatterBudget}
}

// Segment returns at least one section for any manual with
// totalPages >= 1. Entries violating the section invariants are
// dropped; if nothing valid remains the fallback partition is used.
func (s *Segmenter) Segment(ctx context.Context, frontMatter string, totalPages int) []domain.Section {
	if totalPages < 1 {
		return nil
	}

	if s.extractor != nil {
		if sections := s.extractOutline(ctx, frontMatter, totalPages); len(sections) > 0 {
			return sections
		}
	}

	return FallbackSections(totalPages)
}

func (s *Segmenter) extractOutline(ctx context.Context, frontMatter string, totalPages int) []domain.Section {
	limit := s.frontMatterLimit
	if limit <= 0 {
		limit = DefaultFrontMatterBudget
	}
	if len(frontMatter) > limit {
		frontMatter = frontMatter[:limit]
	}

	entries, err := s.extractor.ExtractOutline(ctx, frontMatter, totalPages)
	if err != nil {
		log.Printf("segment: outline extraction failed, using fallback partition: %v", err)
		return nil
	}

	sections := make([]domain.Section, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "" || entry.FirstPage < 1 || entry.PageCount < 1 ||
			entry.FirstPage+entry.PageCount-1 > totalPages {
			log.Printf("segment: dropping invalid outline entry %q (first_page=%d, page_count=%d, total=%d)",
				entry.Name, entry.FirstPage, entry.PageCount, totalPages)
			continue
		}
		sections = append(sections, domain.Section{
			Name:         entry.Name,
			FirstPage:    entry.FirstPage,
			PageCount:    entry.PageCount,
			HeadingLevel: clampHeadingLevel(entry.HeadingLevel),
		})
	}

	return sections
}

// FallbackSections partitions the document into up to seven equal-ish
// named chapters. For very short manuals fewer chapters are produced,
// but never zero for totalPages >= 1.
func FallbackSections(totalPages int) []domain.Section {
	if totalPages < 1 {
		return nil
	}

	count := len(defaultChapters)
	if totalPages < count {
		count = totalPages
	}

	base := totalPages / count
	remainder := totalPages % count

	sections := make([]domain.Section, 0, count)
	page := 1
	for i := 0; i < count; i++ {
		length := base
		if i < remainder {
			length++
		}
		sections = append(sections, domain.Section{
			Name:         defaultChapters[i],
			FirstPage:    page,
			PageCount:    length,
			HeadingLevel: 1,
		})
		page += length
	}

	return sections
}

func clampHeadingLevel(level int) int {
	if level < domain.MinHeadingLevel {
		return domain.MinHeadingLevel
	}
	if level > domain.MaxHeadingLevel {
		return domain.MaxHeadingLevel
	}
	return level
}
