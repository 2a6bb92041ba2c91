// Package errs defines the typed error sentinels shared across the
// reconciliation pipeline so callers can distinguish retryable transport
// failures from fatal ones without string matching.
package errs

import "errors"

var (
	// ErrTransportRetryable marks an error as a candidate for backoff retry
	// (HTTP 429/503, connection reset, timeout).
	ErrTransportRetryable = errors.New("transport error: retryable")

	// ErrTransportFatal marks a non-retryable HTTP response (4xx other than
	// 429) or a malformed response body.
	ErrTransportFatal = errors.New("transport error: fatal")

	// ErrNotFound names a lookup that completed successfully but found
	// nothing. The store, catalogue and debrid clients do not return it;
	// they report that case as a false ok value.
	ErrNotFound = errors.New("not found")

	// ErrIdentificationUnresolved marks a torrent that neither classifier
	// path (movie or show) could identify against the catalogue.
	ErrIdentificationUnresolved = errors.New("identification unresolved")

	// ErrResolutionLost marks a torrent that lost a duplicate contest and
	// was archived rather than linked.
	ErrResolutionLost = errors.New("resolution lost")

	// ErrRepairExhausted marks a torrent whose repair attempts have been
	// exhausted; the caller should proceed to delete it.
	ErrRepairExhausted = errors.New("repair attempts exhausted")
)

// Retryable reports whether err (or anything it wraps) is a transport error
// that should be retried with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransportRetryable)
}
