// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// micro:bit UART service. TX is named from the device's side: it notifies
// the host with inbound lines. The host writes commands to RX.
var (
	uartServiceUUID = mustParseUUID("6e400001-b5a3-f393-e0a9-e50e24dcca9e")
	uartTXUUID      = mustParseUUID("6e400002-b5a3-f393-e0a9-e50e24dcca9e")
	uartRXUUID      = mustParseUUID("6e400003-b5a3-f393-e0a9-e50e24dcca9e")
)

const (
	// bleChunkSize is the ATT payload available without MTU negotiation.
	bleChunkSize        = 20
	bleNotifyQueueSize  = 128
	bleSubscribeTimeout = 8 * time.Second
)

func mustParseUUID(raw string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(raw)
	if err != nil {
		panic(fmt.Sprintf("invalid bluetooth UUID %q: %v", raw, err))
	}
	return uuid
}

// BluetoothConnection is a byte stream over the micro:bit UART service.
type BluetoothConnection struct {
	address string
	device  bluetooth.Device
	tx      bluetooth.DeviceCharacteristic
	rx      bluetooth.DeviceCharacteristic

	notify chan []byte
	closed chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex

	buf       []byte
	bufOffset int
}

// OpenBluetooth connects to a micro:bit by address and subscribes to its
// UART service.
func OpenBluetooth(address, adapterID string) (*BluetoothConnection, error) {
	logger := transportLogger("bluetooth").With().Str("address", address).Str("adapter", adapterID).Logger()

	addr, err := parseBluetoothAddress(address)
	if err != nil {
		return nil, err
	}

	adapter := resolveAdapter(adapterID)
	logger.Debug().Msg("enabling adapter")
	if err := adapter.Enable(); err != nil {
		logger.Warn().Err(err).Msg("enable adapter failed")
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	logger.Info().Msg("connecting")
	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		logger.Warn().Err(err).Msg("connect failed")
		return nil, fmt.Errorf("connect bluetooth device %q: %w", address, err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{uartServiceUUID})
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("discover UART service: %w", err)
	}
	if len(services) == 0 {
		_ = device.Disconnect()
		return nil, errors.New("micro:bit UART service is not available (is the UART block in the program?)")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{uartTXUUID, uartRXUUID})
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("discover UART characteristics: %w", err)
	}
	if len(chars) != 2 {
		_ = device.Disconnect()
		return nil, fmt.Errorf("unexpected characteristic count: %d", len(chars))
	}

	c := &BluetoothConnection{
		address: address,
		device:  device,
		tx:      chars[0],
		rx:      chars[1],
		notify:  make(chan []byte, bleNotifyQueueSize),
		closed:  make(chan struct{}),
	}

	if err := c.subscribe(); err != nil {
		_ = device.Disconnect()
		logger.Warn().Err(err).Msg("subscribe failed")
		return nil, err
	}

	logger.Info().Msg("connected")
	return c, nil
}

func (c *BluetoothConnection) subscribe() error {
	done := make(chan error, 1)
	go func() {
		done <- c.tx.EnableNotifications(c.onNotify)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("subscribe to UART TX: %w", err)
		}
		return nil
	case <-time.After(bleSubscribeTimeout):
		return fmt.Errorf("subscribe to UART TX: timed out after %s", bleSubscribeTimeout)
	}
}

func (c *BluetoothConnection) onNotify(buf []byte) {
	chunk := append([]byte(nil), buf...)
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.notify <- chunk:
	default:
		logger := transportLogger("bluetooth")
		logger.Warn().Int("len", len(chunk)).Msg("notification queue full, dropping chunk")
	}
}

func (c *BluetoothConnection) Read(p []byte) (int, error) {
	if c.bufOffset < len(c.buf) {
		n := copy(p, c.buf[c.bufOffset:])
		c.bufOffset += n
		return n, nil
	}

	select {
	case <-c.closed:
		return 0, ErrConnectionClosed
	case chunk := <-c.notify:
		c.buf = chunk
		n := copy(p, chunk)
		c.bufOffset = n
		return n, nil
	}
}

// Write sends p to the RX characteristic in 20-byte chunks.
func (c *BluetoothConnection) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return 0, ErrConnectionClosed
	default:
	}

	written := 0
	for _, chunk := range chunkBytes(p, bleChunkSize) {
		n, err := c.rx.WriteWithoutResponse(chunk)
		written += n
		if err != nil {
			return written, fmt.Errorf("write to UART RX: %w", err)
		}
		if n != len(chunk) {
			return written, fmt.Errorf("short write to UART RX: wrote %d of %d", n, len(chunk))
		}
	}
	return written, nil
}

// Close unsubscribes and disconnects.
func (c *BluetoothConnection) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		close(c.closed)
		if err := c.tx.EnableNotifications(nil); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("disable notifications: %w", err))
		}
		if err := c.device.Disconnect(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("disconnect bluetooth device: %w", err))
		}
		logger := transportLogger("bluetooth")
		logger.Info().Str("address", c.address).Msg("closed")
	})
	return closeErr
}

func chunkBytes(p []byte, size int) [][]byte {
	if len(p) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(p)+size-1)/size)
	for len(p) > size {
		chunks = append(chunks, p[:size])
		p = p[size:]
	}
	return append(chunks, p)
}

func parseBluetoothAddress(raw string) (bluetooth.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return bluetooth.Address{}, errors.New("bluetooth address is empty")
	}

	mac, err := bluetooth.ParseMAC(strings.ToUpper(trimmed))
	if err != nil {
		return bluetooth.Address{}, fmt.Errorf("invalid bluetooth address %q: %w", trimmed, err)
	}

	return bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, nil
}
