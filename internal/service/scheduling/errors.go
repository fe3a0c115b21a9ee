package scheduling

import "errors"

// Business-rule outcomes. Each is deterministic for a given input; only
// storage failures (anything not listed here) are worth retrying.
var (
	ErrNotFound            = errors.New("appointment not found")
	ErrUnauthorized        = errors.New("appointment belongs to another requester")
	ErrInvalidProvider     = errors.New("provider does not exist")
	ErrInvalidRequester    = errors.New("requester does not exist")
	ErrProviderUnavailable = errors.New("provider is not available at the requested time")
	ErrConflict            = errors.New("requested time conflicts with another appointment")
	ErrNotReschedulable    = errors.New("only scheduled appointments can be rescheduled")
	ErrNotCancellable      = errors.New("only scheduled appointments can be cancelled")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrStartNotFuture      = errors.New("start time must be in the future")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}
