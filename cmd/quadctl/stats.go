package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Store string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Print quad/atom counts and page-cache statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (defaults to the pool's active store)")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	st, pl, err := openActiveStore(opts.RootOptions, opts.Store)
	if err != nil {
		return err
	}
	defer pl.Close()

	s := st.GetStatistics()
	if f.Format == "json" {
		return f.Success(s)
	}
	fmt.Fprintf(f.Writer, "quads:       %d\n", s.QuadCount)
	fmt.Fprintf(f.Writer, "atoms:       %d\n", s.AtomCount)
	fmt.Fprintf(f.Writer, "approx size: %d bytes\n", s.ApproxBytes)
	fmt.Fprintf(f.Writer, "WAL offset:  %d\n", s.WALOffset)
	fmt.Fprintf(f.Writer, "page cache:  %d hits, %d misses\n", s.PageCache.Hits, s.PageCache.Misses)
	fmt.Fprintf(f.Writer, "predicates:  %d distinct\n", len(s.PredicateCardinality))
	return nil
}
