package search

import "encoding/json"

// Document is one search hit. Fields not modelled here are kept in Raw.
type Document struct {
	ID          string `json:"id"`
	IUS         string `json:"ius"`
	Rubro       string `json:"rubro"`
	Texto       string `json:"texto,omitempty"`
	Epoca       string `json:"epoca,omitempty"`
	Instancia   string `json:"instancia,omitempty"`
	Tipo        string `json:"tipoTesis,omitempty"`
	FechaPublic string `json:"fechaPublicacion,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts numeric or string identifiers and keeps the raw body.
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          flexString `json:"id"`
		IUS         flexString `json:"ius"`
		Rubro       string      `json:"rubro"`
		Texto       string      `json:"texto"`
		Epoca       string      `json:"epoca"`
		Instancia   string      `json:"instancia"`
		Tipo        string      `json:"tipoTesis"`
		FechaPublic string      `json:"fechaPublicacion"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*d = Document{
		ID:          string(wire.ID),
		IUS:         string(wire.IUS),
		Rubro:       wire.Rubro,
		Texto:       wire.Texto,
		Epoca:       wire.Epoca,
		Instancia:   wire.Instancia,
		Tipo:        wire.Tipo,
		FechaPublic: wire.FechaPublic,
		Raw:         append(json.RawMessage(nil), data...),
	}
	return nil
}

// Summary projects the document onto the fields kept by bulk extraction.
func (d Document) Summary() Summary {
	return Summary{DocID: d.ID, IUS: d.IUS, Rubro: d.Rubro}
}

// Result is one page of search results. The backend calls the total
// "total" and the page count "totalPage".
type Result struct {
	Documents  []Document `json:"documents"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPage"`
}

// Summary is the compact record produced by bulk ID extraction.
type Summary struct {
	DocID string `json:"id"`
	IUS   string `json:"ius"`
	Rubro string `json:"rubro"`
}

// ID returns the document identifier.
func (s Summary) ID() string {
	return s.DocID
}

// flexString decodes identifiers the backend sends as numbers or strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}
