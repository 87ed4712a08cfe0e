package report

import (
	"io"

	"github.com/nao1215/markdown"
	"github.com/nao1215/pricewatch/internal/model"
)

// MarkdownWriter outputs summaries as GitHub-flavored Markdown,
// suitable for committing alongside a repository or pasting into an
// issue.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Price Report")
	md.PlainText("")
	md.PlainTextf("Updated: %s", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")

	rows := make([][]string, len(summary.Records))
	for i, r := range summary.Records {
		rows[i] = []string{
			r.Site,
			priceCell(r),
			r.Title,
			"[link](" + r.URL + ")",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Price", "Title", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(summary.Errors) > 0 {
		md.H2("Errors")
		md.PlainText("")
		items := make([]string, 0, len(summary.Errors))
		for _, site := range sortedErrorSites(summary.Errors) {
			items = append(items, site+": "+summary.Errors[site])
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	total := len(summary.Records) + len(summary.Errors)
	if failed := countWithoutPrice(summary.Records) + len(summary.Errors); failed > 0 {
		md.Warningf("%d of %d sites yielded no price this run.", failed, total)
	} else {
		md.Tip("All sites yielded a price.")
	}

	return len(md.String()), md.Build()
}

// priceCell renders the price column, bolding real prices so the
// sentinels stand out by contrast.
func priceCell(r model.ProductRecord) string {
	if r.HasPrice() {
		return "**" + r.Price + "**"
	}
	return r.Price
}

func countWithoutPrice(records []model.ProductRecord) int {
	var n int
	for _, r := range records {
		if !r.HasPrice() {
			n++
		}
	}
	return n
}
