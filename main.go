// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// mbitlink - micro:bit UART line protocol tool
//
// A CLI tool for decoding the sensor status lines a micro:bit streams and
// issuing commands to it over serial, WebSocket or Bluetooth LE.

package main

import (
	"os"

	"github.com/marron9999/sc3-mbitmart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
