package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/scjn-client/pkg/pagination"
	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/spf13/cobra"
)

// progressBarWidth is the number of cells of the stderr progress bar.
const progressBarWidth = 30

func addBulkFlags(cmd *cobra.Command) {
	addFilterFlags(cmd)
	flags := cmd.Flags()
	flags.Int("page-size", pagination.DefaultPageSize, "Results per page request")
	flags.Int("max-concurrent", ratelimit.DefaultMaxConcurrent, "Maximum page requests in flight")
	flags.Duration("min-delay", ratelimit.DefaultMinDelay, "Delay held after each request before the next may start")
	flags.Bool("reuse-probe", false, "Fetch the count probe at full page size and keep it as page 0")
	flags.BoolP("quiet", "q", false, "Do not draw the progress bar")
}

func newIDsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Extract the id, IUS and rubro of every matching thesis",
		Long: `Ids walks every result page of the filter and prints one record per thesis
in backend order.

Examples:
  scjn ids --epoch 12a --instance "Segunda Sala" --format json > segunda.json
  scjn ids --type Jurisprudencia --max-concurrent 2 --min-delay 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, opts, done, err := prepareBulk(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			filter, err := filterFromFlags(cmd)
			if err != nil {
				done()
				return err
			}

			summaries, err := a.client.GetAllTesisIDs(cmd.Context(), filter, opts)
			done()
			if err != nil {
				return err
			}
			return a.out.Summaries(summaries)
		},
	}
	addBulkFlags(cmd)
	return cmd
}

func newIUSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ius",
		Short: "Extract the IUS number of every matching thesis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, opts, done, err := prepareBulk(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			filter, err := filterFromFlags(cmd)
			if err != nil {
				done()
				return err
			}

			ius, err := a.client.GetAllIUS(cmd.Context(), filter, opts)
			done()
			if err != nil {
				return err
			}
			return a.out.Values("IUS", ius)
		},
	}
	addBulkFlags(cmd)
	return cmd
}

// prepareBulk builds the app and pagination options. done stops the
// progress bar and must be called before writing results.
func prepareBulk(cmd *cobra.Command) (*app, pagination.Options, func(), error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, pagination.Options{}, nil, err
	}

	opts := a.cfg.PaginationOptions()
	done := func() {}

	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		bar := pagination.NewChannelProgress(64, newProgressRenderer(cmd.ErrOrStderr()))
		opts.Progress = bar
		done = bar.Close
	}

	return a, opts, done, nil
}

// newProgressRenderer returns a consumer drawing a single-line bar.
// Notifications arrive in completion order, so the bar counts finished
// pages rather than trusting the page number.
func newProgressRenderer(w io.Writer) func(pagination.Progress) {
	finished := 0
	return func(p pagination.Progress) {
		if p.Page > 0 {
			finished++
		}
		if p.TotalPages == 0 {
			fmt.Fprintln(w, "no results")
			return
		}

		// a late or repeated notification must not push the bar past full
		finished = min(finished, p.TotalPages)
		filled := min(finished*progressBarWidth/p.TotalPages, progressBarWidth)
		fmt.Fprintf(w, "\r[%s%s] %d/%d pages, %d results",
			strings.Repeat("#", filled),
			strings.Repeat(" ", progressBarWidth-filled),
			finished, p.TotalPages, p.Total)
		if finished == p.TotalPages {
			fmt.Fprintln(w)
		}
	}
}
