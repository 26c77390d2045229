package domain

// BBox is an axis-aligned bounding box in PDF page coordinate space,
// origin bottom-left. Spans and figures always store PDF-space
// coordinates; the flip to a top-left-origin display space happens at
// render time via ToDisplay, never at storage time.
type BBox struct {
	X0 float64 `json:"x1"`
	Y0 float64 `json:"y1"`
	X1 float64 `json:"x2"`
	Y1 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// IsZero reports whether the box has no extent and no position.
func (b BBox) IsZero() bool {
	return b.X0 == 0 && b.Y0 == 0 && b.X1 == 0 && b.Y1 == 0
}

// ToDisplay converts the box to a top-left-origin coordinate space for
// overlay on a rendered page of the given height.
func (b BBox) ToDisplay(pageHeight float64) BBox {
	return BBox{
		X0: b.X0,
		Y0: pageHeight - b.Y1,
		X1: b.X1,
		Y1: pageHeight - b.Y0,
	}
}

// FromDisplay converts a top-left-origin box back to PDF space. It is
// the inverse of ToDisplay for the same page height.
func FromDisplay(b BBox, pageHeight float64) BBox {
	return BBox{
		X0: b.X0,
		Y0: pageHeight - b.Y1,
		X1: b.X1,
		Y1: pageHeight - b.Y0,
	}
}
