// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/spf13/cobra"
)

var (
	lineTestTimeout int
	lineTestEnable  bool
)

var lineTestCmd = &cobra.Command{
	Use:   "line_test",
	Short: "Test connection by waiting for a recognised status line",
	Long: `Wait for a recognised micro:bit status line on the connection until timeout.

This command connects to a serial port, WebSocket or Bluetooth device and
waits for any line the decoder accepts. Unrecognised lines are counted and
skipped. Sensor reporting is switched on first unless --enable-sensors=false.

Exit codes:
  0 - Line received before timeout
  1 - Timeout reached without receiving a recognised line
  2 - Connection error

Useful for checking that the micro:bit is running the UART firmware.`,
	RunE: runLineTest,
}

func init() {
	rootCmd.AddCommand(lineTestCmd)
	lineTestCmd.Flags().IntVar(&lineTestTimeout, "timeout", 10, "Timeout in seconds to wait for a line")
	lineTestCmd.Flags().BoolVar(&lineTestEnable, "enable-sensors", true, "Send the sensor enable command before waiting")
}

func runLineTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("mbitlink - Line Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", lineTestTimeout)
	fmt.Printf("Waiting for a recognised line...\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(lineTestTimeout)*time.Second)
	defer cancel()

	adapter := newAdapter(conn)
	defer adapter.Close()
	events := adapter.Subscribe(link.TopicAll, link.TopicRejected)

	runErr := make(chan error, 1)
	go func() { runErr <- adapter.Run(ctx, conn) }()

	if lineTestEnable {
		if err := adapter.SetSensors(ctx, true); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Send error: %v\n", err)
			os.Exit(2)
		}
	}

	skipped := 0
	for {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case link.Rejection:
				skipped++
			case link.Event:
				if skipped > 0 {
					fmt.Printf("(skipped %d unrecognised lines)\n", skipped)
				}
				fmt.Printf("SUCCESS: Received valid line\n")
				fmt.Printf("  Line: %q\n", e.Reading.Line)
				fmt.Printf("  Field: %s\n", e.Reading.Field)
				fmt.Printf("  Value: %s\n", mbituart.FormatReading(e.Reading))
				os.Exit(0)
			}

		case err := <-runErr:
			if ctx.Err() != nil {
				fmt.Fprintf(os.Stderr, "TIMEOUT: No recognised line received within %d seconds\n", lineTestTimeout)
				os.Exit(1)
			}
			if err == nil {
				err = fmt.Errorf("connection closed")
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			os.Exit(2)
		}
	}
}
