package store

import "errors"

// Operation outcomes handlers map onto HTTP statuses. All of them are
// recoverable: a rejected operation leaves prior state untouched.
var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInvalidTransition = errors.New("invalid transition") // 409
)
