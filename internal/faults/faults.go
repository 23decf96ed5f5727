// Package faults defines the error kinds reported to tool callers and their
// JSON-safe form.
package faults

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel error kinds. Wrap them with fmt.Errorf("%w: ...") so Classify can
// recover the kind.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation failed")
	ErrExternalLibrary  = errors.New("modeling library rejected the operation")
	ErrIO               = errors.New("i/o failure")
)

// Report types as they appear in tool responses.
const (
	TypeNotFound         = "NotFoundError"
	TypeInvalidReference = "InvalidReferenceError"
	TypeValidation       = "ValidationError"
	TypeExternalLibrary  = "ExternalLibraryError"
	TypeIO               = "IOError"
	TypeInternal         = "InternalError"
)

// Report is the error payload of a failed tool call.
type Report struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (r Report) Error() string { return r.Type + ": " + r.Message }

// Classify maps err onto a report type. Unrecognized errors are internal.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return TypeNotFound
	case errors.Is(err, ErrInvalidReference):
		return TypeInvalidReference
	case errors.Is(err, ErrValidation):
		return TypeValidation
	case errors.Is(err, ErrExternalLibrary):
		return TypeExternalLibrary
	case errors.Is(err, ErrIO), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return TypeIO
	}
	return TypeInternal
}

// NewReport builds the report for err.
func NewReport(err error) Report {
	var r Report
	if errors.As(err, &r) {
		return r
	}
	return Report{Type: Classify(err), Message: err.Error()}
}

// NotFound returns an ErrNotFound wrapping error.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidReference returns an ErrInvalidReference wrapping error.
func InvalidReference(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReference, fmt.Sprintf(format, args...))
}

// Validation returns an ErrValidation wrapping error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// External wraps an error from the modeling library.
func External(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrExternalLibrary, err)
}

// IO wraps a file system error.
func IO(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
