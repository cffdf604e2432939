package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DocumentStore is the contract for a remote JSON document store with
// optimistic concurrency. Implementations return opaque version tokens that
// callers must echo back on the next Put for the same path.
type DocumentStore interface {
	// Get returns the raw JSON payload of the document at path together
	// with its current version token.
	Get(ctx context.Context, path string) (data []byte, token string, err error)

	// Put writes data to path. An empty token means "create only" and
	// fails with ErrConflict if the document already exists. A non-empty
	// token performs a compare-and-swap against the remote's current
	// token. On success the new token is returned.
	Put(ctx context.Context, path string, data []byte, token string) (newToken string, err error)
}

// Sentinel errors classifying terminal store failures. Use errors.Is.
var (
	// ErrNotFound means the document does not exist. Callers treat this
	// as "empty document, no version token".
	ErrNotFound = errors.New("document not found")

	// ErrUnauthorized means the credentials were rejected. Fatal for the
	// session; never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict means the compare-and-swap failed: the remote document
	// changed since the supplied token was obtained. The caller must
	// reload and retry.
	ErrConflict = errors.New("version conflict")

	// ErrCorrupt means the remote payload could not be decoded as JSON.
	ErrCorrupt = errors.New("corrupt document")
)

// TransientError wraps a failure that is worth retrying: network errors,
// 5xx responses and rate limiting. RetryAfter carries the server-suggested
// delay when one was provided (rate-limit responses); zero means none.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("transient store error (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable error with no suggested delay.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// RateLimited wraps err as a retryable error carrying the server-suggested
// delay.
func RateLimited(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
