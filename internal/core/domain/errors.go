package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist on any source.
	ErrNotFound = errors.New("not found")

	// ErrUnknownFinder indicates a finder name that was never registered.
	ErrUnknownFinder = errors.New("unknown finder")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfigKey indicates a reserved or undeclared configuration key.
	// Headers and cookies have dedicated setters and cannot be set as
	// plain settings.
	ErrInvalidConfigKey = errors.New("invalid config key")

	// ErrUnsupported indicates a capability the source fundamentally
	// cannot provide (for example comments on a gallery-only platform).
	ErrUnsupported = errors.New("unsupported operation")

	// ErrMissingField indicates a required field was absent when importing
	// a serialized record. The wrapping error names the missing key.
	ErrMissingField = errors.New("missing required field")

	// ErrFetchCancelled indicates a bulk fetch was cancelled before the
	// record's data could be retrieved.
	ErrFetchCancelled = errors.New("fetch cancelled")
)
