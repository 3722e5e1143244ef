// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/spf13/cobra"
)

var portsAll bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and find connected micro:bits",
	Long: `List the serial ports on this host, marking those whose USB IDs match
the micro:bit DAPLink interface (VID 0D28, PID 0204).

Only USB ports are shown unless --all is given.

Examples:
  mbitlink ports
  mbitlink ports --all

Exit codes:
  0 - At least one micro:bit found
  1 - No micro:bit found
  2 - Ports could not be listed`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsAll, "all", false, "Show non-USB ports too")
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := transport.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	found := 0
	for _, p := range ports {
		if !p.USB && !portsAll {
			continue
		}
		marker := " "
		if p.MicroBit {
			marker = "*"
			found++
		}
		line := fmt.Sprintf("%s %-24s", marker, p.Name)
		if p.USB {
			line += fmt.Sprintf(" %s:%s", p.VID, p.PID)
			if p.Serial != "" {
				line += " serial=" + p.Serial
			}
			if p.Product != "" {
				line += " " + p.Product
			}
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%d micro:bit(s) found\n", found)
	if found == 0 {
		os.Exit(1)
	}
	return nil
}
