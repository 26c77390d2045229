package domain

import (
	"fmt"
	"time"
)

// FigureKind distinguishes figures from tables on the shared path.
type FigureKind string

const (
	FigureKindFigure FigureKind = "figure"
	FigureKindTable  FigureKind = "table"
)

// Figure is a detected visual element on a page. (ManualID, Page,
// Index) is unique. Detection is best-effort; an empty figure list for
// a manual is valid.
type Figure struct {
	ID        string
	ManualID  string
	Page      int
	Index     int // unique per page, 1-indexed
	BBox      BBox
	Caption   string
	Kind      FigureKind
	AssetPath string
	CreatedAt time.Time
}

// ValidateFigure validates a Figure instance
func ValidateFigure(f *Figure) error {
	if f == nil {
		return fmt.Errorf("figure cannot be nil")
	}

	if f.ID == "" {
		return fmt.Errorf("figure ID is required")
	}

	if f.ManualID == "" {
		return fmt.Errorf("figure ManualID is required")
	}

	if f.Page < 1 {
		return fmt.Errorf("figure Page must be >= 1, got %d", f.Page)
	}

	if f.Index < 1 {
		return fmt.Errorf("figure Index must be >= 1, got %d", f.Index)
	}

	if f.Kind != FigureKindFigure && f.Kind != FigureKindTable {
		return fmt.Errorf("figure Kind is invalid: %s", f.Kind)
	}

	return nil
}
