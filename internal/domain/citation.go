package domain

import (
	"fmt"
	"net/url"
)

// CitationRecord maps a short label (c1, fig2_1, ...) to the retrieval
// hit it represents. Records are ephemeral: created fresh per query,
// never persisted, and valid for one request/response cycle. The same
// label appears in the model-visible prompt and in the response payload
// so the two must agree.
type CitationRecord struct {
	ID          string `json:"id"`
	ManualID    string `json:"manualId"`
	ManualTitle string `json:"manualTitle"`
	Page        int    `json:"page"`
	BBox        *BBox  `json:"bbox,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	IsFigure    bool   `json:"isFigure,omitempty"`
	FigureURL   string `json:"figureUrl,omitempty"`
}

// DeepLink builds the viewer URL for the record's page and, when a
// bounding box is present, the region to highlight. Coordinates are
// raw PDF-space; the viewer inverts the vertical axis when overlaying.
func (r CitationRecord) DeepLink() string {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", r.Page))
	if r.BBox != nil && !r.BBox.IsZero() {
		q.Set("x1", fmt.Sprintf("%g", r.BBox.X0))
		q.Set("y1", fmt.Sprintf("%g", r.BBox.Y0))
		q.Set("x2", fmt.Sprintf("%g", r.BBox.X1))
		q.Set("y2", fmt.Sprintf("%g", r.BBox.Y1))
	}
	return fmt.Sprintf("/manuals/%s/view?%s", r.ManualID, q.Encode())
}
