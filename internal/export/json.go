package export

import (
	"encoding/json"
	"io"

	"github.com/Sternrassler/scjn-client/pkg/search"
)

// JSONWriter writes indented JSON arrays.
type JSONWriter struct {
	output io.Writer
}

func (w *JSONWriter) encode(v any) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Summaries writes the summaries as an array of {id, ius, rubro}.
func (w *JSONWriter) Summaries(items []search.Summary) error {
	if items == nil {
		items = []search.Summary{}
	}
	return w.encode(items)
}

// Documents writes the documents as returned by the backend when the raw
// body is known.
func (w *JSONWriter) Documents(docs []*search.Document) error {
	out := make([]any, len(docs))
	for i, d := range docs {
		if len(d.Raw) > 0 {
			out[i] = d.Raw
		} else {
			out[i] = d
		}
	}
	return w.encode(out)
}

// Values writes a JSON string array.
func (w *JSONWriter) Values(_ string, values []string) error {
	if values == nil {
		values = []string{}
	}
	return w.encode(values)
}
