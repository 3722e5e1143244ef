// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch sensor state, rejected lines and statistics",
	Long: `Track the live sensor state of a micro:bit along with line statistics.

This command validates each line and detects:
  - Unknown tags and subtags
  - Malformed decimal and hexadecimal payloads
  - Vector lines carrying fewer axes than the field holds
  - Overlong lines
  - Statistics and trends (line rate, error rate, success rate)

By default, only problems and gestures are logged. Use --show-all to log every
line. In text mode (--tui=false) statistics are printed at --stats-interval.`,
	Annotations: map[string]string{annotationTUI: ""},
	RunE:        runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all lines (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics print interval in text mode (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := newAdapter(conn)
	defer adapter.Close()

	if useTUI {
		return runTUIMode(ctx, adapter, conn, connInfo)
	}
	return runTextMode(ctx, adapter, conn, connInfo)
}

// runTUIMode runs the monitor in TUI mode
func runTUIMode(ctx context.Context, adapter *link.Adapter, conn io.Reader, connInfo string) error {
	m := initialModel(connInfo, adapter, showAll)
	p := tea.NewProgram(m)

	events := adapter.Subscribe(link.TopicAll, link.TopicRejected)
	go func() {
		for ev := range events {
			p.Send(lineMsg{event: ev, validationErrors: mbituart.ValidateLine(eventLine(ev))})
		}
	}()
	go func() {
		err := adapter.Run(ctx, conn)
		if ctx.Err() == nil {
			p.Send(connClosedMsg{err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode runs the monitor in text mode
func runTextMode(ctx context.Context, adapter *link.Adapter, conn io.Reader, connInfo string) error {
	fmt.Printf("mbitlink - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All lines\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	events := adapter.Subscribe(link.TopicAll, link.TopicRejected)
	runErr := make(chan error, 1)
	go func() { runErr <- adapter.Run(ctx, conn) }()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	synchronized := false
	skipped := 0

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			line := eventLine(ev)
			errs := mbituart.ValidateLine(line)

			switch e := ev.(type) {
			case link.Rejection:
				if !synchronized {
					skipped++
					continue
				}
				printValidationErrors(e.Time, line, errs)
			case link.Event:
				if !synchronized {
					synchronized = true
					if skipped > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d lines\n\n", skipped)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}
				if len(errs) > 0 {
					printValidationErrors(e.Time, line, errs)
				} else if showAll || e.Reading.Field == mbituart.FieldGesture {
					fmt.Println(mbituart.FormatLine(e.Time, line))
				}
			}

		case err := <-runErr:
			fmt.Println()
			fmt.Print(adapter.Statistics().String())
			if ctx.Err() != nil {
				return nil
			}
			return err

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(adapter.Statistics().String())
			fmt.Println()
		}
	}
}

func eventLine(ev interface{}) string {
	switch e := ev.(type) {
	case link.Event:
		return e.Reading.Line
	case link.Rejection:
		return e.Line
	}
	return ""
}

// printValidationErrors prints validation errors for a line
func printValidationErrors(ts time.Time, line string, errs []mbituart.ValidationError) {
	timestamp := ts.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %q\n", timestamp, line)

	for i, err := range errs {
		switch err.Type {
		case mbituart.AnomalyShortVector:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if axes, ok := err.Details["axes"].(int); ok {
				if expected, ok := err.Details["expected"].(int); ok {
					fmt.Printf("    Axes: received=%d, expected=%d\n", axes, expected)
				}
			}

		case mbituart.AnomalyLineTooLong:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case mbituart.AnomalyUnknownTag, mbituart.AnomalyUnknownSubtag:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if tag, ok := err.Details["tag"].(string); ok {
				fmt.Printf("    Tag: %q\n", tag)
			}

		default:
			fmt.Printf("  Issue %d: %s (%s)\n", i+1, err.Message, err.Type)
		}
	}

	if len(errs) > 0 && errs[0].Type == mbituart.AnomalyShortVector {
		fmt.Printf("  >>> LINE APPLIED <<<\n\n")
		return
	}
	fmt.Printf("  >>> LINE REJECTED <<<\n\n")
}
