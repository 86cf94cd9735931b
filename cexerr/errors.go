// Package cexerr defines the error kinds shared across the engine's
// subsystems. Every subsystem validates its own preconditions and returns
// one of these sentinels (wrapped with context via fmt.Errorf's %w), so
// callers can classify a failure with errors.Is regardless of which
// component produced it.
package cexerr

import "errors"

var (
	// ErrInvalidKeyMaterial is returned for a wrong key/nonce/info size,
	// or a nonce reused at re-init with the same key.
	ErrInvalidKeyMaterial = errors.New("cex: invalid key material")

	// ErrInvalidState is returned when an operation is called in the
	// wrong lifecycle phase (transform before init, AAD after plaintext,
	// finalize before init, verify while encrypting, destroy while active).
	ErrInvalidState = errors.New("cex: invalid state for operation")

	// ErrInvalidParameter is returned when a parallel degree, tag
	// length, round count, or buffer size falls outside its legal range.
	ErrInvalidParameter = errors.New("cex: invalid parameter")

	// ErrProviderUnavailable is returned when an entropy source is not
	// functional (e.g. the jitter timer resolution is too coarse).
	ErrProviderUnavailable = errors.New("cex: entropy provider unavailable")

	// ErrShortBuffer is returned when an output slice is smaller than
	// the caller-requested amount of data.
	ErrShortBuffer = errors.New("cex: output buffer too short")
)
