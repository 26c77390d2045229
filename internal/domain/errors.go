package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"

	// Ingestion-time error codes
	ErrCodeUnreadableDocument    = "UNREADABLE_DOCUMENT"
	ErrCodePartialExtraction     = "PARTIAL_EXTRACTION"
	ErrCodeCapabilityUnavailable = "CAPABILITY_UNAVAILABLE"

	// Query-time error codes
	ErrCodeRetrievalUnavailable     = "RETRIEVAL_UNAVAILABLE"
	ErrCodeGenerationRateLimited    = "GENERATION_RATE_LIMITED"
	ErrCodeGenerationQuotaExhausted = "GENERATION_QUOTA_EXHAUSTED"
)

// Not found errors
var (
	ErrManualNotFound  = NewDomainError(ErrCodeNotFound, "manual not found")
	ErrSectionNotFound = NewDomainError(ErrCodeNotFound, "section not found")
	ErrAPIKeyNotFound  = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrForbidden     = NewDomainError(ErrCodeForbidden, "manual belongs to a different owner")
)

// Ingestion errors
var (
	ErrUnreadableDocument = NewDomainError(ErrCodeUnreadableDocument, "document could not be read")
	ErrDocumentEncrypted  = NewDomainError(ErrCodeUnreadableDocument, "document is password protected")
	ErrDocumentTruncated  = NewDomainError(ErrCodeUnreadableDocument, "document is truncated")
	ErrManualNotProcessed = NewDomainError(ErrCodeValidation, "manual has not been processed yet")
)

// Capability errors: the structure-extraction or embedding service is
// down or unconfigured. Callers fall back to deterministic defaults.
var (
	ErrCapabilityUnavailable = NewDomainError(ErrCodeCapabilityUnavailable, "extraction capability unavailable")
)

// Query-time errors
var (
	ErrRetrievalUnavailable     = NewDomainError(ErrCodeRetrievalUnavailable, "retrieval store unreachable")
	ErrGenerationRateLimited    = NewDomainError(ErrCodeGenerationRateLimited, "generation capability rate limited")
	ErrGenerationQuotaExhausted = NewDomainError(ErrCodeGenerationQuotaExhausted, "generation quota exhausted")
)
