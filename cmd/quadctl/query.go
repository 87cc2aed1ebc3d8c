package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/parser"
	"github.com/quadcore/quadcore/internal/sparql/physical"
	"github.com/quadcore/quadcore/internal/sparql/plan"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Store string
	File  string
	AsOf  string // RFC3339 timestamp, or empty for the current view
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [sparql-text]",
		Short: "Run a SPARQL SELECT or ASK query against a store",
		Long: `Parse, plan, and execute a SPARQL 1.1 query.

The query text is either the first positional argument or, with
--file, read from a file. Output is a tab-separated table of bindings
(--format text) or a JSON envelope whose data holds the variable list
and an array of {variable: term} objects (--format json).

Example:
  quadctl query 'SELECT ?s ?p ?o WHERE { ?s ?p ?o }'
  quadctl query --file report.rq --store main`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if opts.File != "" {
				b, err := os.ReadFile(opts.File)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read query file", err)
				}
				text = string(b)
			} else if len(args) == 1 {
				text = args[0]
			} else {
				return NewExitError(ExitCommandError, "a query text argument or --file is required")
			}
			return runQuery(opts, text, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (defaults to the pool's active store)")
	cmd.Flags().StringVar(&opts.File, "file", "", "read query text from this file instead of an argument")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "evaluate against the bitemporal view as-of this RFC3339 timestamp")

	return cmd
}

func runQuery(opts *QueryOptions, text string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	st, p, err := openActiveStore(opts.RootOptions, opts.Store)
	if err != nil {
		return err
	}
	defer p.Close()

	q, err := parser.ParseQuery(text)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse error", err)
	}
	if q.Form == ast.FormConstruct || q.Form == ast.FormDescribe {
		return NewExitError(ExitCommandError, "CONSTRUCT/DESCRIBE are not supported by quadctl query yet")
	}

	compiled, err := plan.Compile(q)
	if err != nil {
		return WrapExitError(ExitFailure, "compile error", err)
	}
	optimized := plan.Optimize(compiled, plan.NoStatistics)

	cfg := physical.Config{Store: st, Mode: physical.ModeCurrent, Now: time.Now}
	if opts.AsOf != "" {
		t, err := time.Parse(time.RFC3339, opts.AsOf)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --as-of timestamp", err)
		}
		cfg.Mode = physical.ModeAsOf
		cfg.AsOf = t.UnixMicro()
	}

	st.AcquireRead()
	vars, rows, err := physical.Execute(cfg, optimized)
	st.ReleaseRead()
	if err != nil {
		return WrapExitError(ExitFailure, "query execution error", err)
	}

	if q.Form == ast.FormAsk {
		return f.Success(map[string]bool{"boolean": len(rows) > 0})
	}
	return printRows(f, vars, rows)
}
