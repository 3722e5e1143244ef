// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/capture"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rawLogRecord string

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display received lines in human-readable format",
	Long: `Continuously decode and display micro:bit status lines as they arrive.

Each line is shown with a timestamp, the raw text and its decoded value, or
the reason it was rejected. With --record, every line is also appended to a
capture file that the replay command can play back.

Supports serial, WebSocket and Bluetooth connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVar(&rawLogRecord, "record", "", "Append received lines to this capture file")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	var recorder *capture.Writer
	if rawLogRecord != "" {
		f, err := os.OpenFile(rawLogRecord, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open capture file: %w", err)
		}
		defer f.Close()
		recorder = capture.NewWriter(f)
		defer recorder.Flush()
	}

	fmt.Printf("mbitlink - Raw Line Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if recorder != nil {
		fmt.Printf("Recording: %s\n", rawLogRecord)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := newAdapter(conn)
	defer adapter.Close()
	events := adapter.Subscribe(link.TopicAll, link.TopicRejected)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch e := ev.(type) {
			case link.Event:
				printLine(recorder, e.Time, e.Reading.Line)
			case link.Rejection:
				printLine(recorder, e.Time, e.Line)
			}
		}
	}()

	err = adapter.Run(ctx, conn)
	adapter.Close()
	<-done

	fmt.Printf("\n%s\n", adapter.Statistics())
	if recorder != nil {
		fmt.Printf("Recorded %d lines\n", recorder.Count())
	}

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, transport.ErrConnectionClosed):
		log.Info().Msg("connection closed")
		return nil
	default:
		return err
	}
}

func printLine(recorder *capture.Writer, ts time.Time, line string) {
	fmt.Println(mbituart.FormatLine(ts, line))
	if recorder == nil {
		return
	}
	if err := recorder.Write(ts, capture.Inbound, line); err != nil {
		log.Warn().Err(err).Msg("capture write failed")
	}
}
