package price

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors returned by Normalize. Both are terminal for the extraction
// attempt that produced the input; the caller records a sentinel value
// instead of retrying.
var (
	// ErrNotFound indicates that the input contained no digit sequence
	// plausibly representing a price.
	ErrNotFound = errors.New("no price candidate found")

	// ErrParse indicates that a located candidate could not be converted
	// to a decimal value (malformed digits or separators).
	ErrParse = errors.New("price candidate failed decimal conversion")
)

// DefaultRetailThreshold is the magnitude below which a candidate is
// assumed to be a single-item retail price. When a text fragment contains
// several numeric candidates (bundle prices, financing totals, related
// items), the rightmost candidate under this threshold is preferred.
//
// This is a content heuristic carried over from observed site behavior,
// not a guaranteed-correct selection rule; it is an option on the
// Normalizer so callers can tune it per site.
const DefaultRetailThreshold = 1000

// DefaultCurrencySymbol prefixes formatted prices.
const DefaultCurrencySymbol = "€"

// candidateRegex matches digit sequences with optional "." or ","
// separators, e.g. "1.234,56", "123.45", "45,99", "12000".
var candidateRegex = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)*`)

// Normalizer locates and parses price values inside free-form text
// fragments scraped from product pages. It is stateless after
// construction and safe for concurrent use.
type Normalizer struct {
	// threshold is the single-item retail price cutoff used when
	// choosing among multiple candidates.
	threshold decimal.Decimal

	// currency is the symbol prefixed by Format.
	currency string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRetailThreshold overrides the single-item price threshold used for
// multi-candidate disambiguation.
func WithRetailThreshold(limit int64) Option {
	return func(n *Normalizer) {
		n.threshold = decimal.NewFromInt(limit)
	}
}

// WithCurrencySymbol overrides the currency symbol used by Format.
func WithCurrencySymbol(symbol string) Option {
	return func(n *Normalizer) {
		n.currency = symbol
	}
}

// New creates a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		threshold: decimal.NewFromInt(DefaultRetailThreshold),
		currency:  DefaultCurrencySymbol,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize locates a price substring in raw text and returns its exact
// decimal value.
//
// The input may contain currency symbols, non-breaking spaces, or
// surrounding prose. When several numeric candidates are present, the
// candidates are scanned in reverse (rightmost first) and the first one
// under the retail threshold wins; if none qualifies, the rightmost
// candidate is returned regardless of magnitude.
//
// Returns ErrNotFound when no candidate exists, and ErrParse when the
// selected candidate is malformed.
func (n *Normalizer) Normalize(raw string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(cleanText(raw))

	matches := candidateRegex.FindAllString(clean, -1)
	if len(matches) == 0 {
		return decimal.Zero, ErrNotFound
	}

	// Rightmost-first scan for a single-item retail price.
	for i := len(matches) - 1; i >= 0; i-- {
		val, err := parseCandidate(matches[i])
		if err != nil {
			continue
		}
		if val.LessThan(n.threshold) {
			return val, nil
		}
	}

	// No candidate under the threshold: fall back to the rightmost one.
	val, err := parseCandidate(matches[len(matches)-1])
	if err != nil {
		return decimal.Zero, ErrParse
	}
	return val, nil
}

// Select applies the same rightmost-first, under-threshold rule to a set
// of already-parsed values. Extractors use it when collecting candidates
// across separate page elements rather than within one text fragment.
// The slice must be in document order; it returns the zero value when
// empty.
func (n *Normalizer) Select(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].LessThan(n.threshold) {
			return values[i]
		}
	}
	return values[len(values)-1]
}

// Format renders a parsed price as a currency-prefixed string with
// exactly two decimal digits, e.g. "€45.99".
func (n *Normalizer) Format(d decimal.Decimal) string {
	return n.currency + d.StringFixed(2)
}

// cleanText replaces non-breaking spaces (raw and HTML-entity forms)
// with plain spaces so they cannot glue digits to surrounding prose.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return s
}

// parseCandidate converts a matched digit sequence to a decimal,
// resolving locale ambiguity between decimal and thousands separators:
//
//   - both "." and "," present: the rightmost separator is the decimal
//     point, occurrences of the other are stripped as thousands marks
//     ("1.234,56" -> 1234.56, "1,234.56" -> 1234.56)
//   - only "," present: treated as the decimal separator
//   - only "." present: treated as the decimal separator, unchanged
func parseCandidate(s string) (decimal.Decimal, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrParse
	}
	return val, nil
}
