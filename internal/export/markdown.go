package export

import (
	"io"
	"strconv"

	"github.com/Sternrassler/scjn-client/pkg/search"
	"github.com/nao1215/markdown"
)

// maxRubro bounds the rubro column of summary tables.
const maxRubro = 120

// MarkdownWriter writes Markdown tables.
type MarkdownWriter struct {
	output io.Writer
}

// Summaries writes a table of id, IUS and rubro.
func (w *MarkdownWriter) Summaries(items []search.Summary) error {
	md := markdown.NewMarkdown(w.output)
	md.H1("Tesis")
	md.PlainTextf("%d results", len(items))
	md.PlainText("")

	rows := make([][]string, len(items))
	for i, s := range items {
		rows[i] = []string{strconv.Itoa(i + 1), s.DocID, s.IUS, truncate(s.Rubro, maxRubro)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "ID", "IUS", "Rubro"},
		Rows:   rows,
	})

	return md.Build()
}

// Documents writes one section per thesis.
func (w *MarkdownWriter) Documents(docs []*search.Document) error {
	md := markdown.NewMarkdown(w.output)
	for _, d := range docs {
		md.H2(d.Rubro)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Property", "Value"},
			Rows: [][]string{
				{"IUS", d.IUS},
				{"Época", d.Epoca},
				{"Instancia", d.Instancia},
				{"Tipo", d.Tipo},
				{"Publicación", d.FechaPublic},
			},
		})
		md.PlainText("")
		if d.Texto != "" {
			md.PlainText(d.Texto)
			md.PlainText("")
		}
	}
	return md.Build()
}

// Values writes a single column table.
func (w *MarkdownWriter) Values(column string, values []string) error {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}

	md := markdown.NewMarkdown(w.output)
	md.Table(markdown.TableSet{
		Header: []string{column},
		Rows:   rows,
	})
	return md.Build()
}
