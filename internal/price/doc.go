// Package price normalizes raw price text scraped from product pages
// into exact decimal values.
//
// Scraped fragments arrive in heterogeneous locale formats (European
// "1.234,56" versus plain "123.45"), wrapped in currency symbols,
// non-breaking spaces, and prose. The Normalizer resolves separator
// ambiguity, disambiguates between multiple numeric candidates in one
// fragment, and formats results with exact decimal arithmetic
// (shopspring/decimal) rather than binary floating point, which would
// introduce rounding artifacts in displayed prices.
package price
