package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the application and transport layers.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrDecode      = errors.New("image decode failed")
	ErrPersistence = errors.New("persistence failed")

	// ErrUnsupportedMediaType is a validation error raised for non-image uploads.
	ErrUnsupportedMediaType = fmt.Errorf("%w: unsupported media type", ErrValidation)
)

// Validationf wraps ErrValidation with a user-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
