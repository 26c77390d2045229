package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/pagination"
)

// ObjectStore is the boundary to raw file storage. Manual bytes and
// extracted figure assets live behind it, keyed by opaque paths.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	FetchObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// CreateManualInput carries the upload form fields for a new manual.
type CreateManualInput struct {
	Title       string
	Year        int
	Make        string
	Model       string
	VehicleType string
}

// ManualService handles manual lifecycle: upload, lookup, deletion.
type ManualService struct {
	manualRepo ManualRepositoryInterface
	store      ObjectStore
	uuidGen    UUIDGenerator
}

func NewManualService(manualRepo ManualRepositoryInterface, store ObjectStore) *ManualService {
	return &ManualService{
		manualRepo: manualRepo,
		store:      store,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

func NewManualServiceWithUUIDGen(manualRepo ManualRepositoryInterface, store ObjectStore, uuidGen UUIDGenerator) *ManualService {
	return &ManualService{
		manualRepo: manualRepo,
		store:      store,
		uuidGen:    uuidGen,
	}
}

// CreateManual stores the uploaded file and registers the manual in
// the unprocessed state. Uploading byte-identical content twice
// returns the existing manual instead of creating a duplicate.
func (s *ManualService) CreateManual(ctx context.Context, ownerID string, input CreateManualInput, file []byte) (*domain.Manual, error) {
	if ownerID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}
	if input.Title == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "manual title is required")
	}
	if len(file) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "manual file is required")
	}

	hash := HashContent(file)

	existing, err := s.manualRepo.GetByContentHash(ctx, ownerID, hash)
	if err == nil {
		return existing, nil
	}
	if err != domain.ErrManualNotFound {
		return nil, err
	}

	id := s.uuidGen.NewString()
	key := fmt.Sprintf("manuals/%s/%s.pdf", ownerID, id)
	if err := s.store.PutObject(ctx, key, file, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store manual file: %w", err)
	}

	manual := domain.NewManual(id, ownerID, input.Title, input.Year, input.Make, input.Model, input.VehicleType, key, time.Now().UTC())
	manual.ContentHash = hash

	if err := domain.ValidateManual(manual); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid manual", err)
	}

	if err := s.manualRepo.Create(ctx, manual); err != nil {
		return nil, err
	}

	return manual, nil
}

// GetManual returns an owner's manual. Ownership mismatches surface as
// Forbidden with no row data attached.
func (s *ManualService) GetManual(ctx context.Context, ownerID, id string) (*domain.Manual, error) {
	manual, err := s.manualRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if manual.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return manual, nil
}

func (s *ManualService) ListManuals(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*ManualPageResult, error) {
	if ownerID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}
	return s.manualRepo.ListByOwnerWithCursor(ctx, ownerID, cursor, limit)
}

// DeleteManual removes the manual row (derived rows cascade) and then
// the stored file. A failed file delete does not resurrect the row.
func (s *ManualService) DeleteManual(ctx context.Context, ownerID, id string) error {
	manual, err := s.GetManual(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.manualRepo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.store.DeleteObject(ctx, manual.FilePath)
	return nil
}

// HashContent returns the hex-encoded SHA-256 of the file bytes.
func HashContent(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
