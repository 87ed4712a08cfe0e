package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs a human-readable text summary. Plain ASCII,
// no ANSI colors, so the output pipes cleanly into files and other
// tools.
type SimpleWriter struct {
	baseWriter

	// verbose includes the tracked URL for each site.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose includes per-site URLs in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        PRICEWATCH SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Updated: %s\n\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	siteWidth := len("SITE")
	priceWidth := len("PRICE")
	for _, r := range summary.Records {
		if len(r.Site) > siteWidth {
			siteWidth = len(r.Site)
		}
		if len(r.Price) > priceWidth {
			priceWidth = len(r.Price)
		}
	}

	sb.WriteString(fmt.Sprintf("  %-*s  %-*s  %s\n", siteWidth, "SITE", priceWidth, "PRICE", "TITLE"))
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		strings.Repeat("-", siteWidth), strings.Repeat("-", priceWidth), strings.Repeat("-", 30)))

	for _, r := range summary.Records {
		sb.WriteString(fmt.Sprintf("  %-*s  %-*s  %s\n", siteWidth, r.Site, priceWidth, r.Price, r.Title))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("  %-*s  %s\n", siteWidth, "", r.URL))
		}
	}
	sb.WriteString("\n")

	if len(summary.Errors) > 0 {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		sb.WriteString("ERRORS\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")
		for _, site := range sortedErrorSites(summary.Errors) {
			sb.WriteString(fmt.Sprintf("  [!] %s: %s\n", site, summary.Errors[site]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
