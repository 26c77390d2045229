package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const snippetMaxChars = 200

// NoContextBlock is rendered into the prompt when retrieval produced
// nothing, so the model answers without fabricating grounding.
const NoContextBlock = "No relevant excerpts were found in the uploaded manuals for this question. " +
	"Answer from general automotive knowledge and say that the manuals did not cover it."

// AssetURLResolver turns a stored asset path into a fetchable URL.
// Resolution failures degrade to a record without a figure URL.
type AssetURLResolver interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// CitationAssembler converts retrieval hits into a prompt context
// block plus a label -> record map. Labels are a pure function of hit
// order: chunk and section hits become c1, c2, ... and each figure
// under hit i becomes figi_j. The same hit list always yields the same
// labels.
type CitationAssembler struct {
	assets AssetURLResolver
}

// NewCitationAssembler creates an assembler. assets may be nil; figure
// records then carry no URL.
func NewCitationAssembler(assets AssetURLResolver) *CitationAssembler {
	return &CitationAssembler{assets: assets}
}

// Assemble renders the hits into prompt blocks and builds the citation
// map the response will carry.
func (a *CitationAssembler) Assemble(ctx context.Context, hits []RetrievalHit) (string, map[string]domain.CitationRecord) {
	citations := make(map[string]domain.CitationRecord)
	if len(hits) == 0 {
		return NoContextBlock, citations
	}

	var blocks []string
	for i, hit := range hits {
		label := fmt.Sprintf("c%d", i+1)
		citations[label] = a.hitRecord(hit)
		blocks = append(blocks, a.renderHit(ctx, label, i+1, hit, citations))
	}

	return strings.Join(blocks, "\n\n"), citations
}

func (a *CitationAssembler) hitRecord(hit RetrievalHit) domain.CitationRecord {
	record := domain.CitationRecord{
		ID:          hit.SourceID,
		ManualID:    hit.Manual.ID,
		ManualTitle: hit.Manual.Title,
		Snippet:     truncate(hit.Excerpt, snippetMaxChars),
	}
	if len(hit.Pages) > 0 {
		record.Page = hit.Pages[0]
	}
	if len(hit.Spans) > 0 {
		bbox := hit.Spans[0].BBox
		record.Page = hit.Spans[0].Page
		record.BBox = &bbox
	}
	return record
}

func (a *CitationAssembler) renderHit(ctx context.Context, label string, hitIndex int, hit RetrievalHit, citations map[string]domain.CitationRecord) string {
	var sb strings.Builder

	header := fmt.Sprintf("[%s] %s", label, hit.Manual.Title)
	vehicle := domain.VehicleContext{Year: hit.Manual.Year, Make: hit.Manual.Make, Model: hit.Manual.Model}
	if !vehicle.IsEmpty() {
		header += fmt.Sprintf(" (%s)", vehicle.String())
	}
	header += fmt.Sprintf(", %s", formatPages(hit.Pages))
	sb.WriteString(header)
	sb.WriteByte('\n')
	sb.WriteString(hit.Excerpt)

	for j, figure := range hit.Figures {
		figLabel := fmt.Sprintf("fig%d_%d", hitIndex, j+1)
		citations[figLabel] = a.figureRecord(ctx, hit, figure)
		caption := figure.Caption
		if caption == "" {
			caption = "untitled diagram"
		}
		sb.WriteString(fmt.Sprintf("\nThis source includes %q on page %d: use {{%s}} in your answer to display it.",
			caption, figure.Page, figLabel))
	}

	return sb.String()
}

func (a *CitationAssembler) figureRecord(ctx context.Context, hit RetrievalHit, figure domain.Figure) domain.CitationRecord {
	record := domain.CitationRecord{
		ID:          figure.ID,
		ManualID:    figure.ManualID,
		ManualTitle: hit.Manual.Title,
		Page:        figure.Page,
		Snippet:     figure.Caption,
		IsFigure:    true,
	}
	if !figure.BBox.IsZero() {
		bbox := figure.BBox
		record.BBox = &bbox
	}
	if a.assets != nil && figure.AssetPath != "" {
		url, err := a.assets.GenerateDownloadURL(ctx, figure.AssetPath)
		if err != nil {
			log.Printf("citation: asset URL resolution failed for %s: %v", figure.AssetPath, err)
		} else {
			record.FigureURL = url
		}
	}
	return record
}

func formatPages(pages []int) string {
	if len(pages) == 0 {
		return "page unknown"
	}
	sorted := append([]int(nil), pages...)
	sort.Ints(sorted)
	if len(sorted) == 1 {
		return fmt.Sprintf("page %d", sorted[0])
	}
	return fmt.Sprintf("pages %d-%d", sorted[0], sorted[len(sorted)-1])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
