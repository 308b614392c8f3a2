package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication: a presented HMAC signature did not match. Nothing
	// was mutated.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConflict: a reconciliation attribute is already claimed by another
	// contact in the same account. Never auto-merged.
	ErrConflict = errors.New("attribute conflict")

	// ErrNotFound: unknown website token, conversation or contact session.
	ErrNotFound = errors.New("not found")

	// ErrMailNotConfigured: outbound mail is not set up for this deployment.
	// A valid state, not a failure; composers treat it as a silent no-op.
	ErrMailNotConfigured = errors.New("mail transport not configured")
)

// ConflictError names the colliding attribute so callers can report which
// field lost the uniqueness race.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s has already been taken", e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
