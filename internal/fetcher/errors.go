package fetcher

import "fmt"

// TransientError is returned when a fetch still fails after the retry
// budget is exhausted. It wraps the last network-level error observed
// (connection failure or timeout). The caller should treat it as a
// pipeline-level failure for that site: no record is produced.
type TransientError struct {
	// URL is the request URL that failed.
	URL string

	// Attempts is the number of attempts made before giving up.
	Attempts int

	// Err is the last underlying network error.
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// RemoteError is returned when the server responded successfully with a
// non-2xx status code. Unlike transient network failures, these are not
// retried: a 404 or 500 delivered over a healthy connection is the
// server's answer, and repeating the request will not change it.
type RemoteError struct {
	// URL is the request URL.
	URL string

	// StatusCode is the HTTP status code returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("fetch %s: remote returned HTTP %d", e.URL, e.StatusCode)
}
