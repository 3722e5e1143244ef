// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
	name string
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close closes the port
func (s *SerialConnection) Close() error {
	logger := transportLogger("serial")
	logger.Debug().Str("port", s.name).Msg("closing")
	return s.port.Close()
}

// OpenSerial opens a serial port at 8N1
func OpenSerial(portName string, baudRate int) (*SerialConnection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	logger := transportLogger("serial")
	port, err := serial.Open(portName, mode)
	if err != nil {
		logger.Warn().Err(err).Str("port", portName).Msg("open failed")
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	logger.Info().Str("port", portName).Int("baud", baudRate).Msg("connected")

	return &SerialConnection{port: port, name: portName}, nil
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name     string
	USB      bool
	VID      string
	PID      string
	Serial   string
	Product  string
	MicroBit bool
}

// micro:bit DAPLink interface
const (
	microBitVID = "0D28"
	microBitPID = "0204"
)

// ListPorts enumerates serial ports, flagging those that look like a
// micro:bit.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		out := make([]PortInfo, 0, len(names))
		for _, n := range names {
			out = append(out, PortInfo{Name: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     strings.ToUpper(d.VID),
			PID:     strings.ToUpper(d.PID),
			Serial:  d.SerialNumber,
			Product: d.Product,
		}
		info.MicroBit = info.USB && info.VID == microBitVID && info.PID == microBitPID
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
