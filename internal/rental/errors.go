package rental

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOccupant is returned when a house has no tenant to bill.
	ErrNoOccupant = errors.New("house has no occupant")

	// ErrForbidden is returned when the principal's role does not allow the
	// operation.
	ErrForbidden = errors.New("operation not permitted for role")
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
