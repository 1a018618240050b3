package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/autocrawl/autocrawl/internal/model"
)

// MarkdownWriter outputs a Markdown document with a crawl summary table and
// a listings table. Listing titles link to their detail pages.
type MarkdownWriter struct {
	baseWriter

	printer *message.Printer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSummary(md, result)
	w.writeListings(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the title and crawl summary table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + result.StartURL + "`"},
			{"Crawled", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages", strconv.Itoa(result.Pages)},
			{"Cache Hits", strconv.Itoa(result.CacheHits)},
			{"Listings", strconv.Itoa(len(result.Listings))},
		},
	})
	md.PlainText("")
}

// writeListings writes one table row per listing.
func (w *MarkdownWriter) writeListings(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Listings")
	md.PlainText("")

	if len(result.Listings) == 0 {
		md.PlainText("No listings found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Listings))
	for i, l := range result.Listings {
		rows[i] = []string{
			w.cell(l.Year, false),
			markdown.Link(escapeCell(l.Title), l.URL),
			w.cell(l.Price, true),
			w.cell(l.Odometer, true),
			orDash(l.State),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Year", "Title", "Price", "Odometer", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by autocrawl*")
}

func (w *MarkdownWriter) cell(n int, grouped bool) string {
	switch {
	case n == 0:
		return "-"
	case grouped:
		return w.printer.Sprintf("%d", n)
	default:
		return strconv.Itoa(n)
	}
}

// escapeCell keeps pipes in titles from splitting table cells.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
