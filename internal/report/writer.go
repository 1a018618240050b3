package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/autocrawl/autocrawl/internal/model"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format.
type Format string

const (
	// FormatCSV writes comma-separated rows.
	FormatCSV Format = "csv"

	// FormatText writes human-readable blocks.
	FormatText Format = "text"

	// FormatMarkdown writes a Markdown document.
	FormatMarkdown Format = "markdown"

	// FormatJSON writes the crawl result as JSON.
	FormatJSON Format = "json"
)

// Formats returns every supported format in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatText, FormatMarkdown, FormatJSON}
}

// ParseFormat returns the Format named by s. Matching ignores case; "md"
// is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Writer renders a crawl result to its destination.
type Writer interface {
	// Write outputs the result and returns the number of bytes written.
	Write(result *model.CrawlResult) (int, error)
}

// NewWriter creates the Writer for format writing to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatText:
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// writeString writes s to the output in a single call.
func (b baseWriter) writeString(s string) (int, error) {
	return io.WriteString(b.output, s)
}
