// Package detect locates figure and table candidates on manual pages.
// Detection is best-effort: failures are non-fatal and an empty result
// for a page is valid.
package detect

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

var (
	figurePattern = regexp.MustCompile(`(?i)\b(fig(?:ure)?\.?|diagram|schematic|illustration)\s*([0-9]+(?:[.\-][0-9]+)*)?`)
	tablePattern  = regexp.MustCompile(`(?i)\b(table)\s*([0-9]+(?:[.\-][0-9]+)*)`)
)

// Caption is one enriched caption entry returned by the
// structure-extraction capability.
type Caption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// CaptionExtractor enriches caption guesses from raw page text. When
// the capability is unavailable or fails, the detector falls back to
// its regex-derived captions.
type CaptionExtractor interface {
	ExtractCaptions(ctx context.Context, pageText string) ([]Caption, error)
}

// Detector scans page spans for figure and table candidates.
type Detector struct {
	enricher CaptionExtractor
}

// New creates a Detector without caption enrichment.
func New() *Detector {
	return &Detector{}
}

// NewWithEnricher creates a Detector that asks the given capability to
// improve caption text.
func NewWithEnricher(enricher CaptionExtractor) *Detector {
	return &Detector{enricher: enricher}
}

// DetectPage returns figure/table candidates for one page. Candidates
// take a placeholder bounding box from the caption span; imageOps is
// the count of embedded image paint operations on the page and serves
// as corroborating evidence when no caption matched.
func (d *Detector) DetectPage(ctx context.Context, page int, spans []domain.Span, imageOps int) []domain.Figure {
	figures := d.scanCaptions(page, spans)

	// A page that paints images but carries no caption still likely
	// shows a diagram. Emit a single unlabeled candidate so retrieval
	// can surface it.
	if len(figures) == 0 && imageOps > 0 {
		figures = append(figures, domain.Figure{
			Page:    page,
			Index:   1,
			Caption: "Untitled diagram",
			Kind:    domain.FigureKindFigure,
		})
	}

	if d.enricher != nil && len(figures) > 0 {
		figures = d.enrich(ctx, page, spans, figures)
	}

	return figures
}

// scanCaptions pattern-matches caption-style references span by span,
// deduplicating by normalised label.
func (d *Detector) scanCaptions(page int, spans []domain.Span) []domain.Figure {
	var figures []domain.Figure
	seen := make(map[string]bool)
	nextIndex := 1

	add := func(span domain.Span, label string, kind domain.FigureKind) {
		key := normalizeLabel(label)
		if seen[key] {
			return
		}
		seen[key] = true
		figures = append(figures, domain.Figure{
			Page:    page,
			Index:   nextIndex,
			BBox:    span.BBox,
			Caption: collapseWhitespace(span.Text),
			Kind:    kind,
		})
		nextIndex++
	}

	for _, span := range spans {
		if m := figurePattern.FindStringSubmatch(span.Text); m != nil {
			label := m[1] + " " + m[2]
			if m[2] == "" {
				// Unnumbered captions all share the same keyword, so
				// dedup on the full caption text instead.
				label = collapseWhitespace(span.Text)
			}
			add(span, label, domain.FigureKindFigure)
			continue
		}
		if m := tablePattern.FindStringSubmatch(span.Text); m != nil {
			add(span, m[1]+" "+m[2], domain.FigureKindTable)
		}
	}

	return figures
}

// enrich asks the capability for typed captions and merges them onto
// the regex candidates by label. Failure keeps the regex captions.
func (d *Detector) enrich(ctx context.Context, page int, spans []domain.Span, figures []domain.Figure) []domain.Figure {
	texts := make([]string, 0, len(spans))
	for _, span := range spans {
		texts = append(texts, span.Text)
	}

	captions, err := d.enricher.ExtractCaptions(ctx, strings.Join(texts, " "))
	if err != nil {
		log.Printf("detect: caption enrichment failed for page %d, keeping regex captions: %v", page, err)
		return figures
	}

	for i := range figures {
		key := normalizeLabel(figures[i].Caption)
		for _, c := range captions {
			if c.Description == "" {
				continue
			}
			if strings.Contains(key, normalizeLabel(c.Label)) || strings.Contains(normalizeLabel(c.Label), key) {
				figures[i].Caption = c.Description
				if strings.EqualFold(c.Type, string(domain.FigureKindTable)) {
					figures[i].Kind = domain.FigureKindTable
				}
				break
			}
		}
	}

	return figures
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
