package providers

import "errors"

var (
	// ErrNotConfigured means the provider has no API key. It is fatal for the
	// affected provider only; the chain still attempts the others.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrRateLimited maps HTTP 429 responses.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable covers transport failures, timeouts, and 5xx responses.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrInvalidResponse means the provider answered but the body could not
	// be used (malformed JSON, empty choices).
	ErrInvalidResponse = errors.New("invalid provider response")
)
