package model

import "time"

// Sentinel values used when extraction attempted a field but found nothing
// usable. They distinguish "attempted and failed" from "never attempted",
// and are part of the persisted record format, so they must not change.
const (
	// TitleNotFound is recorded when no title strategy yielded text.
	TitleNotFound = "Title not found"

	// PriceNotFound is recorded when no price candidate was located.
	PriceNotFound = "Price not found"

	// PriceParseError is recorded when a located price candidate could not
	// be converted to a decimal value.
	PriceParseError = "Price parse error"
)

// ProductRecord is the output unit of a single site scrape.
// It is immutable once produced and handed to the persistence layer;
// its field names form the wire contract for the JSON snapshot, the CSV
// history, and the SQLite history database.
//
// Invariant: Title and Price are always non-empty. Extraction misses are
// encoded as sentinel strings, never as empty fields. The pipeline only
// fails to produce a record when the fetch itself fails.
type ProductRecord struct {
	// Site identifies the source site (e.g. "amazon.it").
	Site string `json:"site"`

	// Title is the product title, or TitleNotFound.
	Title string `json:"title"`

	// Price is the formatted, currency-prefixed price string
	// (e.g. "€45.99"), or one of PriceNotFound / PriceParseError.
	Price string `json:"price"`

	// URL is the canonical product page URL that was scraped.
	URL string `json:"url"`
}

// HasPrice reports whether the record carries a real extracted price
// rather than one of the sentinel strings.
func (r ProductRecord) HasPrice() bool {
	return r.Price != "" && r.Price != PriceNotFound && r.Price != PriceParseError
}

// HasTitle reports whether the record carries a real extracted title.
func (r ProductRecord) HasTitle() bool {
	return r.Title != "" && r.Title != TitleNotFound
}

// Snapshot is the shape of the JSON snapshot file written after each run.
// It is overwritten on every run; the CSV and SQLite histories keep the
// longitudinal data.
type Snapshot struct {
	// LastUpdated is when this snapshot was produced.
	LastUpdated time.Time `json:"last_updated"`

	// Prices holds one record per site that completed its pipeline.
	// Sites whose fetch failed are absent.
	Prices []ProductRecord `json:"prices"`
}
