// Package log provides slog handler construction for pricewatch.
//
// Site configurations may carry credentialed request headers (Cookie,
// Authorization) and proxy URLs may embed userinfo. The handlers in this
// package mask those values before they reach the log output, so a
// verbose run can be shared without leaking credentials.
package log
