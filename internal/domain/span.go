package domain

// Span is one text run on one page, immutable once created. Bounding
// boxes are stored in raw PDF space together with the page geometry so
// the display transform stays reproducible (see BBox.ToDisplay).
type Span struct {
	ID         string
	ManualID   string
	Page       int // 1-indexed
	BBox       BBox
	PageWidth  float64
	PageHeight float64
	Text       string
	FontName   string
	FontSize   float64
}
