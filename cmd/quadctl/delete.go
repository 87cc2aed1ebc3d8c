package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Store string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <graph> <subject> <predicate> <object>",
		Short: "Delete the currently-valid quad by recording a tombstone",
		Long: `Delete the currently-valid quad matching (graph, subject,
predicate, object) by recording a tombstone for it in a new
transaction (spec §3 "logical delete"); the stored version's validTo
is left unchanged. The prior version remains visible to history/as-of
queries; only QueryCurrent stops returning it.

Example:
  quadctl delete default <http://ex/s> <http://ex/p> "hello"`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (defaults to the pool's active store)")

	return cmd
}

func runDelete(opts *DeleteOptions, args []string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	g, s, p, o, err := parseQuadArgs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid term", err)
	}

	st, pl, err := openActiveStore(opts.RootOptions, opts.Store)
	if err != nil {
		return err
	}
	defer pl.Close()

	if err := st.DeleteCurrent(g, s, p, o); err != nil {
		return WrapExitError(ExitFailure, "failed to delete quad", err)
	}

	return f.Success(fmt.Sprintf("deleted %s %s %s %s", args[0], args[1], args[2], args[3]))
}
