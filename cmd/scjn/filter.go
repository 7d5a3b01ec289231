package main

import (
	"github.com/Sternrassler/scjn-client/pkg/search"
	"github.com/spf13/cobra"
)

// addFilterFlags registers the search filter flags on cmd.
func addFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceP("epoch", "e", nil, "Epochs to search: 12a, 11a, 10a, 9a or raw codes (default: all)")
	flags.StringSliceP("instance", "i", nil, `Instances, e.g. "Primera Sala", Pleno (default: all)`)
	flags.StringP("type", "t", "Tesis", "Document type: Tesis or Jurisprudencia")
	flags.StringSlice("term", nil, "Search terms")
	flags.StringSlice("ius", nil, "Restrict to IUS numbers")
	flags.String("expression", "", "Raw backend filter expression")
	flags.Bool("no-facets", false, "Disable facet computation on the backend")
}

// filterFromFlags builds the filter from the flags of cmd.
func filterFromFlags(cmd *cobra.Command) (search.Filter, error) {
	flags := cmd.Flags()

	var f search.Filter
	var err error
	if f.Epochs, err = flags.GetStringSlice("epoch"); err != nil {
		return f, err
	}
	if f.Instances, err = flags.GetStringSlice("instance"); err != nil {
		return f, err
	}
	if f.DocumentType, err = flags.GetString("type"); err != nil {
		return f, err
	}
	if f.SearchTerms, err = flags.GetStringSlice("term"); err != nil {
		return f, err
	}
	if f.IUS, err = flags.GetStringSlice("ius"); err != nil {
		return f, err
	}
	if f.FilterExpression, err = flags.GetString("expression"); err != nil {
		return f, err
	}
	if f.DisableFacets, err = flags.GetBool("no-facets"); err != nil {
		return f, err
	}

	return f, f.Validate()
}
