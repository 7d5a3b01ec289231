package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochCodes(t *testing.T) {
	got := EpochCodes([]string{"12a", "9a", "300"})
	assert.Equal(t, []string{"210", "5", "300"}, got)
}

func TestInstanceCodes(t *testing.T) {
	got := InstanceCodes([]string{"Primera Sala", "Plenos Regionales", "99"})
	assert.Equal(t, []string{"1", "50", "99"}, got)
}

func TestDocumentTypeCode(t *testing.T) {
	tests := map[string]string{
		"Tesis":          "1",
		"Jurisprudencia": "2",
		"":               "1",
		"Otro":           "1",
	}
	for in, want := range tests {
		assert.Equal(t, want, DocumentTypeCode(in), "DocumentTypeCode(%q)", in)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name      string
		epochs    []string
		instances []string
		want      []string
	}{
		{
			name:   "all instances",
			epochs: []string{"12a", "11a"},
			want:   []string{"Duodécima Época - Todas las Instancias", "Undécima Época - Todas las Instancias"},
		},
		{
			name:      "cross product",
			epochs:    []string{"10a"},
			instances: []string{"Pleno", "Segunda Sala"},
			want:      []string{"Décima Época - Pleno", "Décima Época - Segunda Sala"},
		},
		{
			name:   "unknown epoch keeps label",
			epochs: []string{"8a"},
			want:   []string{"8a - Todas las Instancias"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Labels(tt.epochs, tt.instances))
		})
	}
}

func TestBuildPayload_Defaults(t *testing.T) {
	p := BuildPayload(Filter{})

	require.Len(t, p.Classifiers, 3)
	assert.Equal(t, "idEpoca", p.Classifiers[0].Name)
	assert.Equal(t, []string{"210", "200", "100", "5"}, p.Classifiers[0].Value)
	assert.Equal(t, "numInstancia", p.Classifiers[1].Name)
	assert.Equal(t, []string{"6", "60", "7", "70", "80", "1", "2", "50"}, p.Classifiers[1].Value)
	assert.Equal(t, "tipoDocumento", p.Classifiers[2].Name)
	assert.Equal(t, []string{"1"}, p.Classifiers[2].Value)

	assert.True(t, p.Facets)
	assert.Equal(t, DefaultAppID, p.AppID)
	assert.Len(t, p.Labels, 4)
	assert.NotNil(t, p.SearchTerms)
	assert.NotNil(t, p.IUS)
}

func TestBuildPayload_Filtered(t *testing.T) {
	p := BuildPayload(Filter{
		Epochs:        []string{"12a"},
		Instances:     []string{"Primera Sala"},
		DocumentType:  "Jurisprudencia",
		SearchTerms:   []string{"amparo"},
		DisableFacets: true,
		AppID:         "custom",
	})

	assert.Equal(t, []string{"210"}, p.Classifiers[0].Value)
	assert.Equal(t, []string{"1"}, p.Classifiers[1].Value)
	assert.Equal(t, []string{"2"}, p.Classifiers[2].Value)
	assert.Equal(t, []string{"amparo"}, p.SearchTerms)
	assert.Equal(t, []string{"Duodécima Época - Primera Sala"}, p.Labels)
	assert.False(t, p.Facets)
	assert.Equal(t, "custom", p.AppID)
}

func TestBuildPayload_WireFormat(t *testing.T) {
	data, err := json.Marshal(BuildPayload(Filter{Epochs: []string{"9a"}}))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	for _, key := range []string{"classifiers", "searchTerms", "bFacet", "ius", "idApp", "lbSearch", "filterExpression"} {
		assert.Contains(t, wire, key)
	}
	assert.Equal(t, []any{}, wire["searchTerms"])

	classifier := wire["classifiers"].([]any)[0].(map[string]any)
	for _, key := range []string{"name", "value", "allSelected", "visible", "isMatrix"} {
		assert.Contains(t, classifier, key)
	}
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"zero value", Filter{}, false},
		{"jurisprudencia", Filter{DocumentType: "Jurisprudencia"}, false},
		{"raw code", Filter{DocumentType: "2"}, false},
		{"bad type", Filter{DocumentType: "Sentencia"}, true},
		{"empty epoch", Filter{Epochs: []string{""}}, true},
		{"non numeric ius", Filter{IUS: []string{"abc"}}, true},
		{"numeric ius", Filter{IUS: []string{"2026543"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilter_String(t *testing.T) {
	s := Filter{Instances: []string{"Pleno"}, SearchTerms: []string{"amparo"}}.String()
	assert.Equal(t, "epochs=12a,11a,10a,9a instances=Pleno type=Tesis terms=amparo", s)
}
