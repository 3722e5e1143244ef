// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marron9999/sc3-mbitmart/pkg/capture"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/spf13/cobra"
)

var replaySpeed float64

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Feed a capture file through the decoder",
	Long: `Replay the received lines of a capture file written by raw_log --record.

Lines are decoded exactly as if they had arrived from a device, keeping their
original spacing divided by --speed. A speed of 0 replays as fast as possible.
The final sensor state and statistics are printed at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "Playback speed multiplier (0 = no delay)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open capture file: %w", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := link.New(transport.NewLineSender(io.Discard), link.WithVectorPolicy(appConfig.VectorPolicy()))
	defer adapter.Close()

	err = capture.Replay(ctx, capture.NewReader(f), replaySpeed, func(r capture.Record) error {
		fmt.Println(mbituart.FormatLine(r.Time(), r.Line))
		adapter.HandleLine(r.Line)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	snapshot, err := json.MarshalIndent(adapter.State().Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\nFinal state:\n%s\n\n%s\n", snapshot, adapter.Statistics())
	return nil
}
