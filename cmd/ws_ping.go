// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/config"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/spf13/cobra"
)

var (
	wsPingTimeout int
	wsPingCount   int
)

var wsPingCmd = &cobra.Command{
	Use:   "ws_ping",
	Short: "Test a WebSocket bridge with ping/pong control frames",
	Long: `Send WebSocket ping frames to the bridge and wait for the pongs.

Nothing is sent to the micro:bit itself, so this checks the bridge without
disturbing the device. Lines received meanwhile are counted and discarded.

This is useful for verifying:
  - WebSocket connection is established
  - HTTP Basic authentication works
  - The bridge answers control frames

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runWsPing,
}

func init() {
	rootCmd.AddCommand(wsPingCmd)
	wsPingCmd.Flags().IntVar(&wsPingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	wsPingCmd.Flags().IntVar(&wsPingCount, "count", 3, "Number of pings to send")
}

// countingWriter counts the bytes discarded while waiting for pongs.
type countingWriter struct{ n atomic.Int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n.Add(int64(len(p)))
	return len(p), nil
}

func runWsPing(cmd *cobra.Command, args []string) error {
	if appConfig.Connection.Connector != config.ConnectorWebSocket {
		fmt.Fprintf(os.Stderr, "Connection error: ws_ping needs --url\n")
		os.Exit(2)
	}

	c, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer c.Close()
	conn := c.(*transport.WebSocketConnection)

	fmt.Printf("mbitlink - WebSocket Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", wsPingTimeout)
	fmt.Printf("Count: %d pings\n\n", wsPingCount)

	pongs := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongs <- struct{}{}:
		default:
		}
		return nil
	})

	// Control frames are only processed while reading
	discarded := &countingWriter{}
	readErr := make(chan error, 1)
	go func() {
		_, err := io.Copy(discarded, conn)
		readErr <- err
	}()

	successCount := 0
	failCount := 0

	for i := 1; i <= wsPingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, wsPingCount)

		startTime := time.Now()
		timeout := time.Duration(wsPingTimeout) * time.Second
		if err := conn.Ping(timeout); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case <-pongs:
			fmt.Printf("PONG, rtt=%v\n", time.Since(startTime).Round(time.Millisecond))
			successCount++

		case err := <-readErr:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount += wsPingCount - i + 1
			i = wsPingCount

		case <-time.After(timeout):
			fmt.Printf("TIMEOUT (no response in %ds)\n", wsPingTimeout)
			failCount++
		}

		// Small delay between pings
		if i < wsPingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d pongs received, %.0f%% loss\n",
		wsPingCount, successCount, float64(failCount)/float64(wsPingCount)*100)
	fmt.Printf("%d bytes of line traffic discarded\n", discarded.n.Load())

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
