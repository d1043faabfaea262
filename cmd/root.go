package main

import (
	"vesper/internal/config"
	"vesper/internal/logger"
	"vesper/pkg/color"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose    bool
	noColor    bool
	configPath string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "vesper",
		Short:         "Run and inspect vesper bytecode programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose mode")
	cmd.PersistentFlags().BoolVarP(&opts.noColor, "no-color", "n", false, "No color")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to "+config.FileName)

	cmd.AddCommand(newRunCmd(opts), newAsmCmd(opts), newDisCmd(opts))
	return cmd
}

// setup loads the configuration and initialises logging and colors
func (o *rootOptions) setup() error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.Load(o.configPath)
	} else {
		o.cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}

	level := o.cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	noColor := o.noColor || o.cfg.Log.NoColor || !color.IsColorEnabled()
	logger.Init(level, noColor)

	if noColor {
		color.EnableColor(false)
	}
	return nil
}
