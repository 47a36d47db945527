package errvalues

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrStore            = errors.New("store error")
	// ErrPartialWrite marks a multi-step write whose outcome is unknown:
	// the transaction failed and could not be rolled back cleanly.
	ErrPartialWrite = errors.New("partial write")

	ErrConflict       = errors.New("conflict")
	ErrSelfReference  = errors.New("cannot reference yourself")
	ErrAlreadyFriends = fmt.Errorf("already friends: %w", ErrConflict)
	ErrEarliestRecord = fmt.Errorf("earliest record cannot be deleted: %w", ErrConflict)
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Store wraps a record store failure so callers can match it with ErrStore
// while the driver error stays reachable through errors.As.
func Store(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
