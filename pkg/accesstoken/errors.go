package accesstoken

import "errors"

var (
	// ErrUnauthenticated is the single error surfaced for every
	// authentication failure, whatever the underlying cause.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMalformedCredential is returned by ParseCredential when the bearer
	// value is not a two-part id|secret pair. The middleware normalizes it
	// to ErrUnauthenticated before it reaches a response.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrNoIdentityInContext is returned when no authenticated identity is
	// present in the request context.
	ErrNoIdentityInContext = errors.New("no identity in context")
)
