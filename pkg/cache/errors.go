package cache

import "errors"

var (
	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrUnavailable wraps failures reaching a remote backend.
	ErrUnavailable = errors.New("cache unavailable")
)
