// Package fetcher provides the resilient HTTP layer for product page
// retrieval.
//
// A Fetcher wraps one shared http.Client whose connection pool is reused
// by every concurrent site pipeline in a run, and applies a bounded
// retry policy: transient network failures (connection errors, timeouts)
// are retried with exponential backoff, while HTTP error statuses are
// surfaced immediately without retry. The two failure classes are
// distinguished by the TransientError and RemoteError types.
package fetcher
