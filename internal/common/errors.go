// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Source errors.
	ErrNotFound         = errors.New("not found")
	ErrUnreadableSource = errors.New("source is empty or unreadable")

	// Caller errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// Remote lookup errors.
	ErrRemoteLookup = errors.New("remote lookup failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// InvalidArgument wraps ErrInvalidArgument with the offending parameter and value.
func InvalidArgument(param string, value any, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidArgument, param, fmt.Sprint(value), cause)
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidArgument, param, fmt.Sprint(value))
}
