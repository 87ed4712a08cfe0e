// Package main provides the entry point for the pricewatch CLI.
//
// Pricewatch tracks product prices across Italian e-commerce sites.
// It fetches each configured product page, extracts the title and
// price, and records the results for price-over-time queries.
//
// Usage:
//
//	pricewatch track
//	pricewatch history --site amazon.it
//
// See --help for all available options.
package main

// main is the entry point for pricewatch.
func main() {
	Execute()
}
