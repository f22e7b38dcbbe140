package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/plotwire/internal/protocol/batch"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/transport"
	"github.com/spf13/cobra"
)

func newListenCommand(root *rootOptions) *cobra.Command {
	var values int
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Subscribe to a channel and print every batch it carries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			sub, err := transport.DialSub(ctx, cfg.Session.Address, 250*time.Millisecond)
			if err != nil {
				return err
			}
			defer sub.Close()
			return printBatches(cmd.OutOrStdout(), batch.NewAssembler(sub), values)
		},
	}
	cmd.Flags().IntVar(&values, "values", 8, "values to print per item")
	return cmd
}

// printBatches drains asm until the exit sentinel or end of input.
func printBatches(w io.Writer, asm *batch.Assembler, maxValues int) error {
	for {
		b, err := asm.Next()
		if errors.Is(err, batch.ErrExit) {
			fmt.Fprintln(w, "exit")
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := printBatch(w, b, maxValues); err != nil {
			return err
		}
	}
}

func printBatch(w io.Writer, b batch.Batch, maxValues int) error {
	fmt.Fprintf(w, "batch %s\n", b.ID)
	for _, item := range b.Items {
		vals, err := item.Values()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %c %s %s\n", item.Header.Name, item.Header.Descriptor.Code,
			container.ShapeString(item.Header.Shape), formatValues(vals.Data, maxValues))
	}
	for _, line := range strings.Split(strings.TrimRight(b.Commands, "\n"), "\n") {
		if line != "" {
			fmt.Fprintf(w, "  > %s\n", line)
		}
	}
	return nil
}

func formatValues(data []float64, max int) string {
	n := len(data)
	if max >= 0 && n > max {
		n = max
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprint(data[i])
	}
	out := "[" + strings.Join(parts, " ")
	if n < len(data) {
		out += fmt.Sprintf(" ... +%d", len(data)-n)
	}
	return out + "]"
}
