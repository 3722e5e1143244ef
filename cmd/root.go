// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"io"

	"github.com/marron9999/sc3-mbitmart/pkg/config"
	"github.com/marron9999/sc3-mbitmart/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
	wsBinary      bool
	wsStream      bool

	// Bluetooth connection flags
	bleAddress string
	bleAdapter string

	configPath string
	logLevel   string
	logFile    string

	// appConfig is the config file merged with explicitly set flags.
	appConfig config.AppConfig
	logCloser io.Closer
)

// annotationTUI marks commands that own the terminal.
const annotationTUI = "tui"

var rootCmd = &cobra.Command{
	Use:   "mbitlink",
	Short: "micro:bit UART line protocol tool",
	Long: `mbitlink - A CLI tool for talking to a micro:bit over its UART line protocol.

Decodes the sensor status lines the micro:bit streams (buttons, touch pins,
gestures, light, temperature, compass, accelerometer, rotation, microphone)
and issues display, sensor, tone and pin commands with the settle delay each
one needs.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  Bluetooth: --ble AA:BB:CC:DD:EE:FF [--ble-adapter hci0]

For WebSocket authentication, the password is read from the MBITLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Settings may also come from a JSON file (--config); flags given on the
command line take precedence.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()

	// Serial connection flags
	pf.StringVarP(&portName, "port", "p", "", "Serial port device")
	pf.IntVarP(&baudRate, "baud", "b", config.DefaultSerialBaud, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	pf.BoolVar(&wsBinary, "binary", false, "Send commands as binary WebSocket frames")
	pf.BoolVar(&wsStream, "stream", false, "WebSocket messages are raw byte chunks, not one line per message")

	// Bluetooth connection flags
	pf.StringVar(&bleAddress, "ble", "", "Bluetooth LE address of the micro:bit UART service")
	pf.StringVar(&bleAdapter, "ble-adapter", "", "Bluetooth adapter (Linux only, e.g. hci1)")

	pf.StringVar(&configPath, "config", "", "JSON config file")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

// setup loads the config file, applies explicit flags and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	cfg.FillMissingDefaults()
	appConfig = cfg

	logCloser, err = logging.Configure(cfg.Logging, usesTerminalUI(cmd))
	return err
}

// usesTerminalUI reports whether cmd will draw a full-screen UI. Commands
// with a --tui flag can opt out of it.
func usesTerminalUI(cmd *cobra.Command) bool {
	if _, ok := cmd.Annotations[annotationTUI]; !ok {
		return false
	}
	if f := cmd.Flags().Lookup("tui"); f != nil {
		return f.Value.String() == "true"
	}
	return true
}

func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	flags := cmd.Flags()
	changed := flags.Changed

	// A connection flag on the command line replaces the file's connector.
	switch {
	case changed("port"):
		cfg.Connection.Connector = config.ConnectorSerial
		cfg.Connection.Port = portName
	case changed("url"):
		cfg.Connection.Connector = config.ConnectorWebSocket
		cfg.Connection.URL = wsURL
	case changed("ble"):
		cfg.Connection.Connector = config.ConnectorBluetooth
		cfg.Connection.BLEAddress = bleAddress
	}
	if changed("baud") {
		cfg.Connection.Baud = baudRate
	}
	if changed("username") {
		cfg.Connection.Username = wsUsername
	}
	if changed("no-ssl-verify") {
		cfg.Connection.NoSSLVerify = wsNoSSLVerify
	}
	if changed("binary") {
		cfg.Connection.Binary = wsBinary
	}
	if changed("stream") {
		cfg.Connection.Stream = wsStream
	}
	if changed("ble-adapter") {
		cfg.Connection.BLEAdapter = bleAdapter
	}
	if changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if changed("log-file") {
		cfg.Logging.File = logFile
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
