package main

import (
	"os"

	"github.com/danmuck/plotwire/internal/protocol/batch"
	"github.com/danmuck/plotwire/internal/protocol/frame"
	"github.com/danmuck/plotwire/internal/transport"
	"github.com/spf13/cobra"
)

func newDumpCommand(_ *rootOptions) *cobra.Command {
	var values int
	cmd := &cobra.Command{
		Use:   "dump <capture>",
		Short: "Print the batches recorded in a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			r := transport.NewCaptureReader(f, frame.DefaultLimits())
			defer r.Close()
			return printBatches(cmd.OutOrStdout(), batch.NewAssembler(r), values)
		},
	}
	cmd.Flags().IntVar(&values, "values", 8, "values to print per item")
	return cmd
}
