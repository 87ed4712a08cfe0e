// Package extract turns fetched product-page markup into ProductRecords.
//
// Each supported site gets an Extractor wired with ordered fallback
// chains of selection strategies: site-specific selectors first, generic
// heuristics (h1, og:title, the document title, a full-page currency
// scan) last. Extraction never fails on markup problems; misses degrade
// into the sentinel values defined in the model package.
package extract
