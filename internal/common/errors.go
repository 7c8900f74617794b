// Package common defines sentinel errors and shared constants used across the
// back office. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Intake errors.
	ErrNotSummons    = errors.New("document is not a summons")
	ErrNotAwaiting   = errors.New("document is not awaiting confirmation")
	ErrNothingParsed = errors.New("summons yielded no usable data")

	// Integration errors.
	ErrMissingCredentials = errors.New("inpol credentials are not configured")
	ErrUnexpectedPayload  = errors.New("unexpected payload")
)
