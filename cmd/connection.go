// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/marron9999/sc3-mbitmart/pkg/config"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"golang.org/x/term"
)

// passwordEnv holds the WebSocket Basic auth password.
const passwordEnv = "MBITLINK_PASSWORD"

// connPassword is remembered so reconnects do not prompt again.
var connPassword string

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// connectionOptions converts the merged configuration into transport options.
// Only the selected connector's address is passed on.
func connectionOptions(c config.ConnectionConfig) transport.Options {
	opts := transport.Options{
		BaudRate:      c.Baud,
		Username:      c.Username,
		SkipSSLVerify: c.NoSSLVerify,
		BinaryFrames:  c.Binary,
		StreamFrames:  c.Stream,
		BLEAdapter:    c.BLEAdapter,
	}
	switch c.Connector {
	case config.ConnectorWebSocket:
		opts.URL = c.URL
	case config.ConnectorBluetooth:
		opts.BLEAddress = c.BLEAddress
	default:
		opts.Port = c.Port
	}
	return opts
}

// OpenConnection opens the configured serial, WebSocket or Bluetooth
// connection.
func OpenConnection() (transport.Connection, string, error) {
	if err := appConfig.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w (use --port, --url or --ble)", err)
	}

	opts := connectionOptions(appConfig.Connection)
	if opts.URL != "" && opts.Username != "" {
		if connPassword == "" {
			password, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			connPassword = password
		}
		opts.Password = connPassword
	}

	return transport.Open(opts)
}

// newAdapter attaches a protocol adapter to conn using the configured
// vector policy.
func newAdapter(conn transport.Connection) *link.Adapter {
	return link.New(transport.NewLineSender(conn), link.WithVectorPolicy(appConfig.VectorPolicy()))
}
