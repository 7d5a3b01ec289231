// Package export renders thesis data for the CLI in JSON, Markdown or
// plain text.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/scjn-client/pkg/search"
)

// Format selects the output encoding.
type Format string

const (
	// FormatText writes one record per line, tab separated.
	FormatText Format = "text"

	// FormatJSON writes indented JSON.
	FormatJSON Format = "json"

	// FormatMarkdown writes Markdown tables.
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown}

// ParseFormat validates a format name; "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or markdown)", s)
	}
}

// Writer renders command results.
type Writer interface {
	// Summaries writes the result of a bulk extraction.
	Summaries(items []search.Summary) error

	// Documents writes full thesis documents.
	Documents(docs []*search.Document) error

	// Values writes a flat list, such as IDs, under a column name.
	Values(column string, values []string) error
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return &TextWriter{output: output}, nil
	case FormatJSON:
		return &JSONWriter{output: output}, nil
	case FormatMarkdown:
		return &MarkdownWriter{output: output}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TextWriter writes tab separated lines.
type TextWriter struct {
	output io.Writer
}

// Summaries writes "id<TAB>ius<TAB>rubro" per line.
func (w *TextWriter) Summaries(items []search.Summary) error {
	for _, s := range items {
		if _, err := fmt.Fprintf(w.output, "%s\t%s\t%s\n", s.DocID, s.IUS, s.Rubro); err != nil {
			return err
		}
	}
	return nil
}

// Documents writes each document as a short block.
func (w *TextWriter) Documents(docs []*search.Document) error {
	for i, d := range docs {
		if i > 0 {
			if _, err := fmt.Fprintln(w.output); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w.output, "%s (IUS %s)\n%s\n%s\n", d.ID, d.IUS, d.Rubro, d.Texto); err != nil {
			return err
		}
	}
	return nil
}

// Values writes one value per line.
func (w *TextWriter) Values(_ string, values []string) error {
	for _, v := range values {
		if _, err := fmt.Fprintln(w.output, v); err != nil {
			return err
		}
	}
	return nil
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
