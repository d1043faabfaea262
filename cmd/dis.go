package main

import (
	"vesper/internal/runner"

	"github.com/spf13/cobra"
)

func newDisCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dis <file>",
		Short: "Print the symbol table and instruction listing of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Disassemble(args[0], cmd.OutOrStdout())
		},
	}
}
