package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/pricewatch/internal/model"
)

// JSONWriter outputs summaries in JSON format for tool integration.
// The shape matches the on-disk snapshot file, extended with an errors
// object when any site failed.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output. The prefix is
// prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default
// indentation. Convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonSummary is the wire shape of a run summary.
type jsonSummary struct {
	LastUpdated time.Time             `json:"last_updated"`
	Prices      []model.ProductRecord `json:"prices"`
	Errors      map[string]string     `json:"errors,omitempty"`
}

// Write outputs the summary in JSON format. The prices field is always
// a JSON array, even when every site failed.
func (w *JSONWriter) Write(summary *Summary) (int, error) {
	records := summary.Records
	if records == nil {
		records = []model.ProductRecord{}
	}

	out := jsonSummary{
		LastUpdated: summary.GeneratedAt,
		Prices:      records,
		Errors:      summary.Errors,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(out, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
