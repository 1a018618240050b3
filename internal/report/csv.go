package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/autocrawl/autocrawl/internal/model"
)

// csvHeader is the first line of every CSV report.
var csvHeader = []string{"Odometer", "Price", "Year", "State", "Title", "URL"}

// CSVWriter outputs one line per listing.
//
// Numeric fields and State are written bare. Title and URL are always
// double-quoted with embedded quotes doubled. A zero numeric field is
// written as an empty field.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the header followed by every listing in crawl order.
func (w *CSVWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Join(csvHeader, ","))
	sb.WriteByte('\n')

	for _, l := range result.Listings {
		sb.WriteString(strings.Join([]string{
			csvNumber(l.Odometer),
			csvNumber(l.Price),
			csvNumber(l.Year),
			l.State,
			csvQuote(l.Title),
			csvQuote(l.URL),
		}, ","))
		sb.WriteByte('\n')
	}

	return w.writeString(sb.String())
}

func csvNumber(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
