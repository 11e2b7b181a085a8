package interviews

import "errors"

var (
	ErrNotFound = errors.New("interview not found")
	// ErrInvalidInput wraps field-level validation failures.
	ErrInvalidInput = errors.New("invalid interview")
)
