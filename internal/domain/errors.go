package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters fail validation
	// before any I/O is attempted.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSourceUnavailable is returned when a source client has no credentials
	// configured and cannot be used at all.
	ErrSourceUnavailable = errors.New("source client not configured")

	// ErrSourceFailure is returned for any per-call upstream failure: timeout,
	// authentication, rate limit, or a malformed payload.
	ErrSourceFailure = errors.New("source request failed")

	// ErrCacheMiss is returned when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNoExpiry is returned by TTLRemaining when the key exists but carries
	// no expiration.
	ErrNoExpiry = errors.New("key has no expiry")
)
