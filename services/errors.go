// services/errors.go - Error taxonomy shared by all services.
//
// Every error here is an expected, recoverable outcome: handlers translate
// them into status codes and user-facing messages. Sentinel errors are meant
// to be matched with errors.Is; the struct errors with errors.As when the
// caller needs the concrete numbers.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("not allowed")
	ErrInvalidState  = errors.New("invalid state")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("invalid request")
)

// InsufficientBalanceError reports a debit that would go negative, with the
// numbers the client needs to render actionable messaging.
type InsufficientBalanceError struct {
	Resource  string
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s: need %d, have %d (missing %d)",
		e.Resource, e.Required, e.Available, e.Required-e.Available)
}

// ExpiredError reports an operation on a redemption request past its
// deadline. The stored request has already been transitioned to EXPIRED by
// the time this error is returned.
type ExpiredError struct {
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("request expired at %s", e.ExpiresAt.Format(time.RFC3339))
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
