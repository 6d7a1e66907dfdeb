package storage

import "errors"

// Destination write errors. There is no cross-destination atomicity: each
// write succeeds or fails on its own, and callers classify failures with
// errors.Is.
var (
	// ErrUnavailable indicates the underlying connection is down for this
	// write. Retryable: it drives the connect loop and is tolerated
	// per-iteration during streaming.
	ErrUnavailable = errors.New("destination unavailable")

	// ErrWriteRejected indicates malformed input. Non-retryable: the write is
	// logged and skipped.
	ErrWriteRejected = errors.New("write rejected: malformed input")

	// ErrNotFound is returned by read operations when a requested row does
	// not exist.
	ErrNotFound = errors.New("not found")
)
