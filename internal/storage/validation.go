package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidReport = errors.New("invalid report")
	ErrInvalidLimit  = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSavedReport validates a journal entry before it is stored.
func validateSavedReport(saved report.SavedReport) error {
	if strings.TrimSpace(saved.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReport)
	}
	if strings.TrimSpace(saved.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidReport)
	}
	if strings.TrimSpace(saved.Path) == "" {
		return fmt.Errorf("%w: missing path", ErrInvalidReport)
	}
	if saved.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidReport)
	}
	if saved.Rows < 0 {
		return fmt.Errorf("%w: negative row count", ErrInvalidReport)
	}
	return nil
}
