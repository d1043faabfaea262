package main

import (
	"time"

	"vesper/internal/runner"

	"github.com/spf13/cobra"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		slice    time.Duration
		maxSteps uint64
	)

	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Run programs from assembly sources or images",
		Long: `Run loads every file into its own context and schedules the contexts
cooperatively until all of them are idle. Files ending in .vbc are read as
program images, anything else is assembled first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("slice") {
				cfg.Scheduler.TimeSlice = slice
			}
			if cmd.Flags().Changed("max-steps") {
				cfg.Scheduler.MaxSteps = maxSteps
			}

			r := &runner.Runner{Config: cfg, Verbose: root.verbose, Out: cmd.OutOrStdout()}
			return r.Run(args...)
		},
	}

	cmd.Flags().DurationVar(&slice, "slice", 0, "Time slice per scheduler pass (overrides the config)")
	cmd.Flags().Uint64Var(&maxSteps, "max-steps", 0, "Halt a context after this many instructions")
	return cmd
}
