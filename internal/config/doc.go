// Package config provides configuration for pricewatch: run-level
// options (timeouts, retry budget, pacing, output locations) and the
// per-site configuration file mapping site identifiers to product URLs
// and request headers.
package config
