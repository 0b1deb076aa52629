package main

import (
	"fmt"
	"os"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/ir"
	"github.com/spf13/cobra"
)

func parseIRCmd() *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "parse-ir <computation-file>",
		Short: "Parse a computation and print its canonical textual form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var c *computation.Computation
			if binary {
				c, err = computation.DecodeBinary(raw)
			} else {
				c, err = ir.Parse(string(raw))
			}
			if err != nil {
				return err
			}

			fmt.Print(ir.Print(c))
			return nil
		},
	}
	cmd.Flags().BoolVar(&binary, "binary", false, "the input file is in the binary computation format")
	return cmd
}
