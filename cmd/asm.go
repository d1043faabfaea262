package main

import (
	"fmt"

	"vesper/internal/runner"

	"github.com/spf13/cobra"
)

func newAsmCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "asm <file>",
		Short: "Assemble a source file into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, err := runner.Assemble(args[0], output)
			if err != nil {
				return err
			}
			if root.verbose {
				fmt.Fprintln(cmd.OutOrStdout(), dst)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image (default: source name with "+runner.ImageExt+")")
	return cmd
}
