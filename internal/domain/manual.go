package domain

import (
	"fmt"
	"time"
)

// ManualStatus represents the processing state of a manual
type ManualStatus string

const (
	ManualStatusUnprocessed ManualStatus = "unprocessed"
	ManualStatusProcessed   ManualStatus = "processed"
	ManualStatusFailed      ManualStatus = "failed"
)

// Manual represents one uploaded repair manual. All derived rows
// (spans, chunks, sections, figures) cascade-delete with it.
type Manual struct {
	ID          string
	OwnerID     string
	Title       string
	Year        int
	Make        string
	Model       string
	VehicleType string
	FilePath    string
	ContentHash string
	PageCount   int
	Status      ManualStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewManual creates a new Manual instance in the unprocessed state
func NewManual(id, ownerID, title string, year int, make, model, vehicleType, filePath string, createdAt time.Time) *Manual {
	return &Manual{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Year:        year,
		Make:        make,
		Model:       model,
		VehicleType: vehicleType,
		FilePath:    filePath,
		Status:      ManualStatusUnprocessed,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// ValidateManual validates a Manual instance
func ValidateManual(m *Manual) error {
	if m == nil {
		return fmt.Errorf("manual cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("manual ID is required")
	}

	if m.OwnerID == "" {
		return fmt.Errorf("manual OwnerID is required")
	}

	if m.Title == "" {
		return fmt.Errorf("manual Title is required")
	}

	if m.FilePath == "" {
		return fmt.Errorf("manual FilePath is required")
	}

	if !isValidManualStatus(m.Status) {
		return fmt.Errorf("manual Status is invalid: %s", m.Status)
	}

	return nil
}

// isValidManualStatus checks if a ManualStatus is valid
func isValidManualStatus(s ManualStatus) bool {
	switch s {
	case ManualStatusUnprocessed, ManualStatusProcessed, ManualStatusFailed:
		return true
	}
	return false
}
