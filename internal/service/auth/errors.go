package auth

import "errors"

// Token failures. The API answers all of them with 401 and only tells an
// expired token apart from the rest.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrInvalidSecret is returned at startup for a signing secret shorter
	// than 32 bytes.
	ErrInvalidSecret = errors.New("jwt secret must be at least 32 characters")
)
