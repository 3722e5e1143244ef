// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send COMMAND [ARGS...]",
	Short: "Send one command to the micro:bit",
	Long: `Send a single command and wait out its settle delay before exiting.

Commands:
  text <text>                              Scroll text across the display
  symbol <25 cells of 1 and 0>             Light the LED matrix
  clear                                    Blank the display
  sensors <on|off>                         Turn sensor reporting on or off
  round <magnetic|accel|rotation|mic> <n>  Set a rounding step (0-1000)
  tone <len> <low|mid|high> <note>         Play a note (do re mi fa so la si)
  express <name>                           Play a sound expression
  pin-mode <0-2> <none|onoff|value>        Select how a pin is reported
  pin-write <0-2> <0-1023>                 Write an analog value to a pin

Examples:
  mbitlink send text "Hello micro:bit" --port /dev/ttyACM0
  mbitlink send symbol 00100 01110 11111 01110 00100
  mbitlink send tone 4 mid la
  mbitlink send round accel 100`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	spec, ok := findCommand(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	// Build before connecting so typos never reach the device
	msg, err := spec.buildFromInput(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	adapter := newAdapter(conn)
	defer adapter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Connection: %s\n", connInfo)
	start := time.Now()
	if err := adapter.Issue(ctx, msg); err != nil {
		return err
	}
	fmt.Printf("Sent %s (settled after %v)\n", mbituart.FormatMessage(msg), time.Since(start).Round(time.Millisecond))
	return nil
}
