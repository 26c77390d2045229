package domain

import (
	"fmt"
	"time"
)

const (
	// MinHeadingLevel and MaxHeadingLevel bound section nesting depth.
	MinHeadingLevel = 1
	MaxHeadingLevel = 6
)

// Section is a named page range representing document structure.
// ParentID is optional and self-referential for nesting.
type Section struct {
	ID           string
	ManualID     string
	Name         string
	FirstPage    int
	PageCount    int
	HeadingLevel int
	ParentID     string
	CreatedAt    time.Time
}

// NewSection creates a new Section instance
func NewSection(id, manualID, name string, firstPage, pageCount, headingLevel int, createdAt time.Time) *Section {
	return &Section{
		ID:           id,
		ManualID:     manualID,
		Name:         name,
		FirstPage:    firstPage,
		PageCount:    pageCount,
		HeadingLevel: headingLevel,
		CreatedAt:    createdAt,
	}
}

// LastPage returns the last page covered by the section.
func (s *Section) LastPage() int {
	return s.FirstPage + s.PageCount - 1
}

// ValidateSection validates a Section against its manual's page count.
func ValidateSection(s *Section, totalPages int) error {
	if s == nil {
		return fmt.Errorf("section cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("section ID is required")
	}

	if s.ManualID == "" {
		return fmt.Errorf("section ManualID is required")
	}

	if s.Name == "" {
		return fmt.Errorf("section Name is required")
	}

	if s.FirstPage < 1 {
		return fmt.Errorf("section FirstPage must be >= 1, got %d", s.FirstPage)
	}

	if s.PageCount < 1 {
		return fmt.Errorf("section PageCount must be >= 1, got %d", s.PageCount)
	}

	if s.LastPage() > totalPages {
		return fmt.Errorf("section ends on page %d, past manual's %d pages", s.LastPage(), totalPages)
	}

	if s.HeadingLevel < MinHeadingLevel || s.HeadingLevel > MaxHeadingLevel {
		return fmt.Errorf("section HeadingLevel must be in [%d, %d], got %d", MinHeadingLevel, MaxHeadingLevel, s.HeadingLevel)
	}

	return nil
}
