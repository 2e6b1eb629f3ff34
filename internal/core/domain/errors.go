package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountExists         = errors.New("account already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrForbidden             = errors.New("access forbidden")
	ErrPatientRecordNotFound = errors.New("patient record not found")
	ErrPrescriptionNotFound  = errors.New("prescription not found")
	ErrUnsupportedImage      = errors.New("unsupported image type")
	ErrExtractorUnavailable  = errors.New("text extraction service unavailable")
	ErrQueueFull             = errors.New("processing queue is full")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ExtractionError is returned when text cannot be extracted from an image.
// Err is ErrExtractorUnavailable when the engine itself could not be reached.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "text extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }
