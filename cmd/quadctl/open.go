package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quadcore/quadcore/internal/pool"
	"github.com/quadcore/quadcore/internal/quadstore"
)

// OpenOptions holds flags for the open command.
type OpenOptions struct {
	*RootOptions
	Create bool
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OpenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "open <name> <dir>",
		Short: "Register a store directory in the pool and make it active",
		Long: `Register a directory as a named store in the pool manifest
(pool.json) and mark it active, creating the directory's store files
if they do not already exist.

Example:
  quadctl open main ./data/main
  quadctl --pool /tmp/pool.json open scratch ./data/scratch --create`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Create, "create", true, "create the store directory if it does not exist")

	return cmd
}

func runOpen(opts *OpenOptions, name, dir string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create store directory", err)
		}
	}

	p, err := pool.Open(opts.Pool)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pool manifest", err)
	}
	p.Register(name, dir)
	if err := p.SetActive(name); err != nil {
		return WrapExitError(ExitCommandError, "failed to activate store", err)
	}

	st, err := p.Get(name, quadstore.Options{Dir: dir})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer p.Close()

	if err := p.Save(); err != nil {
		return WrapExitError(ExitCommandError, "failed to save pool manifest", err)
	}

	stats := st.GetStatistics()
	return f.Success(fmt.Sprintf("opened store %q at %s (%d quads)", name, dir, stats.QuadCount))
}
