package main

import (
	"fmt"
	"os"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/ir"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "validate <computation-file>",
		Short: "Check a computation's graph and attrs without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var c *computation.Computation
			if binary {
				c, err = computation.DecodeBinary(raw)
				if err != nil {
					return err
				}
			} else {
				c, err = ir.ParseStrict(string(raw))
				if err != nil {
					return err
				}
			}

			if err := c.Validate(); err != nil {
				return err
			}
			if _, err := c.TopologicalOrder(); err != nil {
				return err
			}

			fmt.Printf("ok: %d operations, no dangling references, no cycles\n", len(c.Operations))
			return nil
		},
	}
	cmd.Flags().BoolVar(&binary, "binary", false, "the input file is in the binary computation format")
	return cmd
}
