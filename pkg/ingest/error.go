// pkg/ingest/error.go
package ingest

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor Excel
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrFileTooLarge is returned when a file exceeds the upload limit
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)

// ErrorCategory classifies ingestion failures
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryFormat
	ErrorCategorySize
	ErrorCategoryRead
	ErrorCategoryDecode
	ErrorCategoryCancelled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryFormat:
		return "Format"
	case ErrorCategorySize:
		return "Size"
	case ErrorCategoryRead:
		return "Read"
	case ErrorCategoryDecode:
		return "Decode"
	case ErrorCategoryCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// Error is an ingestion failure with a message fit for the user
type Error struct {
	Category ErrorCategory
	File     string
	Display  string // Shown to the user as-is
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s: %s", e.Category, e.File, e.Display)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(category ErrorCategory, file string, err error) *Error {
	return &Error{
		Category: category,
		File:     file,
		Display:  displayMessage(category),
		Err:      err,
	}
}

func displayMessage(category ErrorCategory) string {
	switch category {
	case ErrorCategoryFormat:
		return "Unsupported file format. Please use CSV or Excel files."
	case ErrorCategorySize:
		return "File is too large."
	case ErrorCategoryRead:
		return "Could not read file."
	case ErrorCategoryDecode:
		return "Error processing file."
	case ErrorCategoryCancelled:
		return "Upload cancelled."
	default:
		return "Upload failed."
	}
}

// categorize maps a read failure to its category
func categorize(err error) ErrorCategory {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryCancelled
	case errors.Is(err, ErrFileTooLarge):
		return ErrorCategorySize
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrorCategoryFormat
	default:
		return ErrorCategoryRead
	}
}
