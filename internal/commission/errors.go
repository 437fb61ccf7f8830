package commission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RaniyaAK/arts/internal/validation"
)

var (
	ErrNotFound      = errors.New("commission not found")
	ErrNotAuthorized = errors.New("not authorized for this commission")
	ErrStateConflict = errors.New("commission state conflict")
	ErrInvalidStage  = errors.New("operation not permitted at this stage")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrAlreadyPaid   = errors.New("already paid")
	ErrNotSet        = errors.New("amount not set")
	ErrInvariant     = errors.New("commission invariant violated")
)

// ValidationError is malformed input, reported per field. It matches ErrValidation.
type ValidationError = validation.Error

var ErrValidation = validation.ErrInvalid

// StateConflictError is returned when the current status does not satisfy a transition's precondition.
type StateConflictError struct {
	Current  Status
	Required []Status
	Detail   string
}

func (e *StateConflictError) Error() string {
	required := make([]string, len(e.Required))
	for i, s := range e.Required {
		required[i] = string(s)
	}

	msg := fmt.Sprintf("commission is %s, requires %s", e.Current, strings.Join(required, " or "))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}

	return msg
}

func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

func conflict(current Status, required ...Status) *StateConflictError {
	return &StateConflictError{Current: current, Required: required}
}

func invariant(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvariant, detail)
}
