package pdfextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

const (
	// DefaultBatchSize bounds how many pages of spans are held in
	// memory before being flushed to the caller.
	DefaultBatchSize = 10

	// Fallback page geometry (US Letter, PDF points) for pages whose
	// MediaBox is inherited and not reachable from the page dict.
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Result summarises one extraction pass. PageImages counts embedded
// image paint resources per page, used downstream as corroborating
// evidence of real figures.
type Result struct {
	TotalPages   int
	SpanCount    int
	SkippedPages []int
	PageImages   map[int]int
}

// Partial reports whether some pages could not be read.
func (r *Result) Partial() bool {
	return len(r.SkippedPages) > 0
}

// FlushFunc receives one batch of spans together with the count of
// embedded image operators per page in the batch. Spans carry page
// numbers, bounding boxes, and font metadata; IDs and manual
// references are the caller's concern.
type FlushFunc func(ctx context.Context, spans []domain.Span, imageOps map[int]int) error

// Extractor reads a PDF byte stream into per-page text spans. Pages
// are processed in bounded batches so peak memory is proportional to a
// batch, not to document size.
type Extractor struct {
	BatchSize int
}

// New creates an Extractor with the default batch size.
func New() *Extractor {
	return &Extractor{BatchSize: DefaultBatchSize}
}

// Extract walks every page of the document, emitting span batches via
// flush. A single unreadable page is logged and skipped; a wholly
// unreadable file returns a typed domain error.
func (e *Extractor) Extract(ctx context.Context, data []byte, flush FlushFunc) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, classifyOpenError(err)
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := &Result{TotalPages: reader.NumPage(), PageImages: make(map[int]int)}
	if result.TotalPages == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "document has no pages", nil)
	}

	batch := make([]domain.Span, 0, 64)
	batchImages := make(map[int]int)
	pagesInBatch := 0

	for pageNum := 1; pageNum <= result.TotalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spans, imageOps, err := e.extractPage(reader, pageNum)
		if err != nil {
			log.Printf("pdfextract: skipping unreadable page %d: %v", pageNum, err)
			result.SkippedPages = append(result.SkippedPages, pageNum)
			continue
		}
		if imageOps > 0 {
			result.PageImages[pageNum] = imageOps
			batchImages[pageNum] = imageOps
		}

		batch = append(batch, spans...)
		result.SpanCount += len(spans)
		pagesInBatch++

		if pagesInBatch >= batchSize {
			if err := flush(ctx, batch, batchImages); err != nil {
				return nil, err
			}
			batch = batch[:0]
			batchImages = make(map[int]int)
			pagesInBatch = 0
		}
	}

	if len(batch) > 0 || pagesInBatch > 0 {
		if err := flush(ctx, batch, batchImages); err != nil {
			return nil, err
		}
	}

	if len(result.SkippedPages) == result.TotalPages {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "no page could be read", nil)
	}

	return result, nil
}

// extractPage reads one page's text runs. The underlying parser panics
// on some malformed content streams, so the read is isolated here.
func (e *Extractor) extractPage(reader *pdf.Reader, pageNum int) (spans []domain.Span, imageOps int, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = fmt.Errorf("page content parse panic: %v", r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, 0, errors.New("page object is null")
	}

	width, height := pageGeometry(page)
	content := page.Content()
	spans = groupRuns(content.Text, pageNum, width, height)
	imageOps = countImageXObjects(page)
	return spans, imageOps, nil
}

// countImageXObjects inspects the page's resource dictionary for image
// XObjects. Best effort: a malformed resource tree counts as zero.
func countImageXObjects(page pdf.Page) int {
	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.IsNull() {
		return 0
	}

	count := 0
	for _, name := range xobjects.Keys() {
		if xobjects.Key(name).Key("Subtype").Name() == "Image" {
			count++
		}
	}
	return count
}

// pageGeometry resolves the page's MediaBox, falling back to US Letter
// when the box is inherited beyond the page dictionary.
func pageGeometry(page pdf.Page) (width, height float64) {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return defaultPageWidth, defaultPageHeight
	}

	x0 := box.Index(0).Float64()
	y0 := box.Index(1).Float64()
	x1 := box.Index(2).Float64()
	y1 := box.Index(3).Float64()

	width = x1 - x0
	height = y1 - y0
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}

// Run-break thresholds, in multiples of the current font size.
const (
	lineTolerance = 0.5
	gapTolerance  = 1.0
)

// groupRuns folds the parser's per-glyph text elements into text runs:
// consecutive elements on the same baseline, in the same font, with no
// large horizontal gap. Whitespace-only runs are dropped. Coordinates
// stay in PDF space (origin bottom-left).
func groupRuns(texts []pdf.Text, pageNum int, pageWidth, pageHeight float64) []domain.Span {
	var spans []domain.Span
	var sb strings.Builder
	var cur *domain.Span
	var lastX, lastW float64

	emit := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(sb.String())
		if text != "" {
			cur.Text = text
			spans = append(spans, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}

		sameRun := cur != nil &&
			t.Font == cur.FontName &&
			t.FontSize == cur.FontSize &&
			abs(t.Y-cur.BBox.Y0) <= lineTolerance*maxf(t.FontSize, 1) &&
			t.X-(lastX+lastW) <= gapTolerance*maxf(t.FontSize, 1)

		if !sameRun {
			emit()
			cur = &domain.Span{
				Page:       pageNum,
				PageWidth:  pageWidth,
				PageHeight: pageHeight,
				FontName:   t.Font,
				FontSize:   t.FontSize,
				BBox: domain.BBox{
					X0: t.X,
					Y0: t.Y,
					X1: t.X + t.W,
					Y1: t.Y + t.FontSize,
				},
			}
		}

		sb.WriteString(t.S)
		if right := t.X + t.W; right > cur.BBox.X1 {
			cur.BBox.X1 = right
		}
		lastX, lastW = t.X, t.W
	}
	emit()

	return spans
}

func classifyOpenError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password") || strings.Contains(msg, "encrypted"):
		return domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "document is password protected", err)
	case errors.Is(err, io.ErrUnexpectedEOF) || strings.Contains(msg, "eof") || strings.Contains(msg, "trailer"):
		return domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "document is truncated", err)
	default:
		return domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "document could not be read", err)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
