package types

import "errors"

// Client errors. Neither touches the store.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation error")
)

// Store errors.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreWrite       = errors.New("store write failed")
	ErrStoreRead        = errors.New("store read failed")
)

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation)
}
