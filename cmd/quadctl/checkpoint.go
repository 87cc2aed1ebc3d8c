package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckpointOptions holds flags for the checkpoint command.
type CheckpointOptions struct {
	*RootOptions
	Store string
}

// NewCheckpointCommand creates the checkpoint command.
func NewCheckpointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckpointOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Force a WAL checkpoint now, regardless of the configured thresholds",
		Long: `Write every dirty B+Tree index page to disk, persist the
superblock, and truncate the write-ahead log down to a fresh
checkpoint marker immediately, instead of waiting for the size/time
thresholds in quadstore.yaml (spec §4.4).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpoint(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (defaults to the pool's active store)")

	return cmd
}

func runCheckpoint(opts *CheckpointOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	st, pl, err := openActiveStore(opts.RootOptions, opts.Store)
	if err != nil {
		return err
	}
	defer pl.Close()

	if err := st.Checkpoint(); err != nil {
		return WrapExitError(ExitFailure, "checkpoint failed", err)
	}

	return f.Success(fmt.Sprintf("checkpoint complete (WAL offset %d)", st.GetStatistics().WALOffset))
}
