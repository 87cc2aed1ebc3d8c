package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/term"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Store     string
	ValidFrom int64
	ValidTo   int64
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <graph> <subject> <predicate> <object>",
		Short: "Add a quad, currently valid unless --valid-from/--valid-to are given",
		Long: `Add one quad. Terms use the same lexical grammar the store
persists: <iri>, _:label, "literal", "literal"@lang, or
"literal"^^<datatype>. "default" is shorthand for the default graph.

By default the quad becomes valid from now with no expiry (spec §3
"current" semantics). Pass --valid-from/--valid-to (Unix microseconds)
to backdate or bound validity explicitly.

Example:
  quadctl add default <http://ex/s> <http://ex/p> "hello"
  quadctl add <http://ex/g> <http://ex/s> <http://ex/p> "42"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (defaults to the pool's active store)")
	cmd.Flags().Int64Var(&opts.ValidFrom, "valid-from", 0, "validity start, Unix microseconds (0 = now)")
	cmd.Flags().Int64Var(&opts.ValidTo, "valid-to", 0, "validity end, Unix microseconds (0 = open-ended)")

	return cmd
}

func runAdd(opts *AddOptions, args []string, cmd *cobra.Command) error {
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

	if opts.ValidFrom == 0 && opts.ValidTo == 0 {
		err = st.AddCurrent(g, s, p, o)
	} else {
		validFrom := opts.ValidFrom
		if validFrom == 0 {
			validFrom = time.Now().UnixMicro()
		}
		validTo := opts.ValidTo
		if validTo == 0 {
			validTo = btree.MaxValidTo
		}
		err = st.Add(g, s, p, o, validFrom, validTo)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to add quad", err)
	}

	return f.Success(fmt.Sprintf("added %s %s %s %s", args[0], args[1], args[2], args[3]))
}

func parseQuadArgs(args []string) (g, s, p, o term.Value, err error) {
	if g, err = parseTermArg(args[0]); err != nil {
		return
	}
	if s, err = parseTermArg(args[1]); err != nil {
		return
	}
	if p, err = parseTermArg(args[2]); err != nil {
		return
	}
	o, err = parseTermArg(args[3])
	return
}
