package search

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Filter describes a thesis query in human terms. The zero value searches
// every epoch and instance for plain theses.
type Filter struct {
	Epochs           []string `json:"epochs,omitempty" yaml:"epochs" validate:"dive,required"`
	Instances        []string `json:"instances,omitempty" yaml:"instances" validate:"dive,required"`
	DocumentType     string   `json:"document_type,omitempty" yaml:"document_type" validate:"omitempty,oneof=Tesis Jurisprudencia 1 2"`
	SearchTerms      []string `json:"search_terms,omitempty" yaml:"search_terms"`
	IUS              []string `json:"ius,omitempty" yaml:"ius" validate:"dive,numeric"`
	FilterExpression string   `json:"filter_expression,omitempty" yaml:"filter_expression"`

	// DisableFacets turns off facet computation on the backend.
	DisableFacets bool   `json:"disable_facets,omitempty" yaml:"disable_facets"`
	AppID         string `json:"app_id,omitempty" yaml:"app_id"`
}

// Validate checks the filter fields.
func (f Filter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid search filter: %w", err)
	}
	return nil
}

// String renders the filter for logs.
func (f Filter) String() string {
	parts := []string{"epochs=" + strings.Join(f.epochs(), ",")}
	if len(f.Instances) > 0 {
		parts = append(parts, "instances="+strings.Join(f.Instances, ","))
	}
	parts = append(parts, "type="+f.documentType())
	if len(f.SearchTerms) > 0 {
		parts = append(parts, "terms="+strings.Join(f.SearchTerms, ","))
	}
	return strings.Join(parts, " ")
}

func (f Filter) epochs() []string {
	if len(f.Epochs) == 0 {
		return DefaultEpochs
	}
	return f.Epochs
}

func (f Filter) documentType() string {
	if f.DocumentType == "" {
		return "Tesis"
	}
	return f.DocumentType
}

// Classifier is one facet constraint of the search payload.
type Classifier struct {
	Name        string   `json:"name"`
	Value       []string `json:"value"`
	AllSelected bool     `json:"allSelected"`
	Visible     bool     `json:"visible"`
	IsMatrix    bool     `json:"isMatrix"`
}

// Payload is the JSON body of a search request.
type Payload struct {
	Classifiers      []Classifier `json:"classifiers"`
	SearchTerms      []string     `json:"searchTerms"`
	Facets           bool         `json:"bFacet"`
	IUS              []string     `json:"ius"`
	AppID            string       `json:"idApp"`
	Labels           []string     `json:"lbSearch"`
	FilterExpression string       `json:"filterExpression"`
}

// BuildPayload maps a filter to the backend representation.
func BuildPayload(f Filter) Payload {
	epochs := f.epochs()

	instanceCodes := allInstanceCodes
	if len(f.Instances) > 0 {
		instanceCodes = InstanceCodes(f.Instances)
	}

	appID := f.AppID
	if appID == "" {
		appID = DefaultAppID
	}

	return Payload{
		Classifiers: []Classifier{
			{Name: "idEpoca", Value: EpochCodes(epochs)},
			{Name: "numInstancia", Value: instanceCodes},
			{Name: "tipoDocumento", Value: []string{DocumentTypeCode(f.documentType())}},
		},
		SearchTerms:      nonNil(f.SearchTerms),
		Facets:           !f.DisableFacets,
		IUS:              nonNil(f.IUS),
		AppID:            appID,
		Labels:           Labels(epochs, f.Instances),
		FilterExpression: f.FilterExpression,
	}
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
