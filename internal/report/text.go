package report

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/autocrawl/autocrawl/internal/model"
)

// TextWriter outputs human-readable listing blocks for terminal display.
// Numbers are grouped with thousands separators.
type TextWriter struct {
	baseWriter

	printer *message.Printer
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs one block per listing followed by a summary line.
func (w *TextWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	for _, l := range result.Listings {
		sb.WriteString("Title: " + l.Title + "\n")
		sb.WriteString("URL " + l.URL + "\n")
		sb.WriteString("Year: " + w.number(l.Year, false) +
			" Price: " + w.number(l.Price, true) +
			" Odometer: " + w.number(l.Odometer, true) +
			" State: " + orDash(l.State) + "\n")
		sb.WriteString("\n")
	}

	sb.WriteString(w.printer.Sprintf("%d listings from %d pages (%d served from cache)\n",
		len(result.Listings), result.Pages, result.CacheHits))

	return w.writeString(sb.String())
}

// number formats n, using "-" for zero.
func (w *TextWriter) number(n int, grouped bool) string {
	if n == 0 {
		return "-"
	}
	if !grouped {
		return strconv.Itoa(n)
	}
	return w.printer.Sprintf("%d", n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
