package report

import (
	"io"
	"sort"
	"time"

	"github.com/nao1215/pricewatch/internal/model"
)

// Summary is the result of one tracking run, ready for output.
type Summary struct {
	// GeneratedAt is when the run finished.
	GeneratedAt time.Time

	// Records holds one entry per successfully fetched site, in stable
	// site order. Sites whose page yielded no title or price still
	// appear, carrying the sentinel values.
	Records []model.ProductRecord

	// Errors maps site name to the failure that prevented a fetch.
	// Sites listed here have no Records entry.
	Errors map[string]string
}

// Writer defines the interface for report output. Implementations
// write run summaries in various formats, so the same run can go to a
// terminal, a file, or both.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// It returns the number of bytes written and any error.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers in sequence. Useful for
// printing to the terminal while also writing a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers. It returns the
// total bytes written and stops on the first error.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedErrorSites returns the error map keys in stable site order.
func sortedErrorSites(errs map[string]string) []string {
	sites := make([]string, 0, len(errs))
	for site := range errs {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}
