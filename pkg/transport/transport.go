// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport opens byte-stream connections to a micro:bit over a
// serial port, a WebSocket bridge or the Bluetooth LE UART service.
package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Connection provides a common interface for reading/writing bytes over any
// transport
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned when reading from a connection that has
// already failed or been closed
var ErrConnectionClosed = errors.New("connection closed")

// Options selects and configures a transport. Exactly one of Port, URL or
// BLEAddress must be set.
type Options struct {
	Port     string
	BaudRate int

	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
	BinaryFrames  bool
	StreamFrames  bool

	BLEAddress string
	BLEAdapter string
}

// DefaultBaudRate is the micro:bit USB serial rate.
const DefaultBaudRate = 115200

// Open opens the transport selected by opts and returns it with a short
// description for display.
func Open(opts Options) (Connection, string, error) {
	selected := 0
	for _, s := range []string{opts.Port, opts.URL, opts.BLEAddress} {
		if s != "" {
			selected++
		}
	}
	if selected == 0 {
		return nil, "", errors.New("one of --port, --url or --ble must be specified")
	}
	if selected > 1 {
		return nil, "", errors.New("--port, --url and --ble are mutually exclusive")
	}

	switch {
	case opts.URL != "":
		conn, err := OpenWebSocket(opts.URL, opts.Username, opts.Password, opts.SkipSSLVerify, opts.BinaryFrames)
		if err != nil {
			return nil, "", err
		}
		conn.SetStreamFrames(opts.StreamFrames)
		return conn, fmt.Sprintf("WebSocket: %s", opts.URL), nil

	case opts.BLEAddress != "":
		conn, err := OpenBluetooth(opts.BLEAddress, opts.BLEAdapter)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Bluetooth: %s", opts.BLEAddress), nil

	default:
		baud := opts.BaudRate
		if baud <= 0 {
			baud = DefaultBaudRate
		}
		conn, err := OpenSerial(opts.Port, baud)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", opts.Port, baud), nil
	}
}

// LineSender adapts a connection to the adapter's Transport by terminating
// every command with a newline. Writes are serialized so a command is never
// interleaved with another.
type LineSender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineSender wraps w.
func NewLineSender(w io.Writer) *LineSender {
	return &LineSender{w: w}
}

// Send writes p followed by '\n' in a single write.
func (s *LineSender) Send(p []byte) error {
	frame := make([]byte, 0, len(p)+1)
	frame = append(frame, p...)
	frame = append(frame, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.w.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

func transportLogger(name string) zerolog.Logger {
	return log.With().Str("component", "transport").Str("transport", name).Logger()
}
