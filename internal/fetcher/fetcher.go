package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/net/html/charset"
)

// Default fetcher settings. These mirror typical browser behavior for
// plain product-page requests; all of them can be overridden via options.
const (
	// DefaultMaxAttempts is the total number of attempts per URL,
	// including the first one.
	DefaultMaxAttempts = 3

	// DefaultBackoffBase is the delay before the first retry. Each
	// subsequent retry doubles the delay.
	DefaultBackoffBase = 1 * time.Second

	// DefaultBackoffCap is the upper bound on the retry delay.
	DefaultBackoffCap = 10 * time.Second

	// DefaultMaxBodySize limits the response body to 10MB. Product pages
	// are far smaller; the cap prevents memory exhaustion from
	// misbehaving servers.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent is used when the caller does not supply one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// ErrClosed is returned by Fetch after Close has been called.
var ErrClosed = errors.New("fetcher is closed")

// Fetcher performs HTTP GET requests against product pages with bounded
// retry and exponential backoff. A single Fetcher owns one shared
// http.Client (and therefore one connection pool) that is reused across
// all fetches in a run; it is safe for concurrent use by multiple
// in-flight pipelines.
//
// Retry policy: only transient failures (connection errors, timeouts)
// are retried, up to the configured attempt count, with delays of
// base, 2*base, 4*base... capped at the configured maximum. A response
// carrying a non-2xx status is never retried; it surfaces immediately
// as a *RemoteError.
type Fetcher struct {
	// client is the shared HTTP client. Its Timeout bounds each
	// individual attempt.
	client *http.Client

	// userAgent is sent on every request. Resolved once at construction
	// by the caller (no hidden per-request rotation).
	userAgent string

	// headers are additional headers applied to every request.
	headers map[string]string

	// maxAttempts is the total attempt budget per URL.
	maxAttempts int

	// backoffBase and backoffCap bound the exponential retry delay.
	backoffBase time.Duration
	backoffCap  time.Duration

	// maxBodySize caps how many bytes of the response body are read.
	maxBodySize int64

	// logger records per-fetch observability events.
	logger *slog.Logger

	// closed flips once when Close is called; further fetches fail fast.
	closed atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders sets additional headers applied to every request, such as
// Accept-Language or per-site cookies from the configuration file.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxAttempts sets the total attempt budget per URL (first attempt
// included). Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.maxAttempts = n
		}
	}
}

// WithBackoff overrides the exponential backoff base delay and cap.
// Tests use tiny values here to avoid real sleeps.
func WithBackoff(base, limit time.Duration) Option {
	return func(f *Fetcher) {
		if base > 0 {
			f.backoffBase = base
		}
		if limit > 0 {
			f.backoffCap = limit
		}
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHTTPClient replaces the internally built http.Client. The caller
// keeps responsibility for the client's transport configuration; the
// fetcher still applies its own Timeout if the client has none.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets the logger used for fetch observability records.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher whose individual attempts are bounded by timeout.
// proxyURL, if non-empty, routes all requests through the given HTTP or
// SOCKS proxy.
func New(timeout time.Duration, proxyURL string, opts ...Option) (*Fetcher, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent:   DefaultUserAgent,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		backoffCap:  DefaultBackoffCap,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.client.Timeout == 0 && timeout > 0 {
		f.client.Timeout = timeout
	}

	return f, nil
}

// Fetch retrieves the page body at targetURL as decoded text.
//
// Transient failures are retried per the fetcher's policy; after the
// attempt budget is spent the last failure propagates as a
// *TransientError. A non-2xx response surfaces immediately as a
// *RemoteError without retrying. Context cancellation aborts both
// in-flight requests and backoff sleeps.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	return f.FetchWithHeaders(ctx, targetURL, nil)
}

// FetchWithHeaders is Fetch with extra headers for this request only,
// applied after the fetcher's own headers. Callers sharing one fetcher
// across several shops use this to attach per-site cookies without
// leaking them to the next request.
func (f *Fetcher) FetchWithHeaders(ctx context.Context, targetURL string, headers map[string]string) (string, error) {
	if f.closed.Load() {
		return "", ErrClosed
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, err := f.do(ctx, targetURL, headers)
		if err == nil {
			return body, nil
		}

		// Error statuses are the server's answer; do not retry them.
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			return "", err
		}

		lastErr = err
		if attempt == f.maxAttempts {
			break
		}

		delay := f.backoffDelay(attempt)
		f.logger.Debug("transient fetch failure, backing off",
			"url", targetURL,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", &TransientError{URL: targetURL, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	return "", &TransientError{URL: targetURL, Attempts: f.maxAttempts, Err: lastErr}
}

// do performs a single GET attempt.
func (f *Fetcher) do(ctx context.Context, targetURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,it;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return "", &RemoteError{URL: targetURL, StatusCode: resp.StatusCode}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return "", err
	}

	f.logger.Info("fetched",
		"url", targetURL,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	return body, nil
}

// readBody reads the response body up to the size cap, decoding it to
// UTF-8 based on the declared Content-Type charset. Italian shops still
// occasionally serve ISO-8859-1 pages.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize+1)

	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("charset detection: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return "", fmt.Errorf("response body exceeds limit of %d bytes", f.maxBodySize)
	}

	return string(body), nil
}

// backoffDelay returns the delay before the retry following the given
// attempt number: base, 2*base, 4*base... capped at backoffCap.
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.backoffBase << (attempt - 1)
	if delay > f.backoffCap || delay <= 0 {
		return f.backoffCap
	}
	return delay
}

// Close releases the fetcher's connection pool. It is idempotent;
// fetches issued after Close fail with ErrClosed.
func (f *Fetcher) Close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	f.client.CloseIdleConnections()
}
