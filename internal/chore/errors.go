package chore

import (
	"errors"
	"fmt"

	"github.com/dukerupert/choremane/internal/model"
)

var (
	// ErrValidation wraps every rejected request field.
	ErrValidation = errors.New("validation failed")

	ErrNotFound              = errors.New("chore not found")
	ErrAlreadyCompletedToday = errors.New("chore already completed today")

	ErrActorRequired   = fmt.Errorf("%w: done_by is required", ErrValidation)
	ErrNameRequired    = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidInterval = fmt.Errorf("%w: interval_days must be greater than zero", ErrValidation)
	ErrDueDateRequired = fmt.Errorf("%w: due_date is required", ErrValidation)
	ErrOwnerRequired   = fmt.Errorf("%w: private chores need an owner", ErrValidation)
	ErrNothingToImport = fmt.Errorf("%w: no chores data found in the import file", ErrValidation)
)

// AlreadyCompletedError carries the existing completion date so clients can
// show when the chore was done.
type AlreadyCompletedError struct {
	LastDone model.Date
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("chore already completed today (%s)", e.LastDone)
}

func (e *AlreadyCompletedError) Unwrap() error { return ErrAlreadyCompletedToday }
