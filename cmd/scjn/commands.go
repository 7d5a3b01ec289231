package main

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/scjn-client/pkg/search"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the search service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.Status)
			if !status.Up() {
				return errors.New("service is not up")
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch one page of search results",
		Long: `Search fetches a single page of results. Use ids to walk every page.

Examples:
  scjn search --epoch 12a --term "interés superior del menor"
  scjn search --type Jurisprudencia --page 2 --size 20 --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("size")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.client.Search(cmd.Context(), filter, page, size)
			if err != nil {
				return err
			}
			a.logger.Info().
				Int("total", res.Total).
				Int("total_pages", res.TotalPages).
				Int("page", page).
				Msg("Search complete")

			summaries := make([]search.Summary, len(res.Documents))
			for i, d := range res.Documents {
				summaries[i] = d.Summary()
			}
			return a.out.Summaries(summaries)
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().Int("page", 0, "Page number (0-based)")
	cmd.Flags().Int("size", 20, "Results per page")

	return cmd
}

func newTesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tesis <ius> [ius...]",
		Short: "Fetch full thesis documents by IUS number",
		Long: `Tesis fetches the full documents of the given IUS numbers, several at a
time within the configured concurrency limit. With Redis configured the
documents are cached and revalidated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.client.GetMultipleTesis(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.out.Documents(docs)
		},
	}
}
