// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving a micro:bit",
	Long: `Control a micro:bit via an interactive terminal UI.

This command provides a TUI for watching the sensor state and issuing
commands over any of the supported connections.

Features:
  - Live sensor panel (buttons, touch, gesture, light, temperature, vectors)
  - LED matrix preview
  - Display, sensor, tone, expression and pin commands
  - Statistics tracking
  - Event logging
  - Automatic reconnection on connection loss

On connect, sensor reporting is enabled and the rounding steps are reset to
their defaults. Tab cycles between the command list, the argument field and
the Send button. Arrow keys navigate the command list. Commands are sent one
at a time; the next one is accepted after the previous one's settle delay.`,
	Annotations: map[string]string{annotationTUI: ""},
	RunE:        runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// connectionManager handles connection lifecycle and reconnection. It is the
// adapter's transport, so commands follow the current connection.
type connectionManager struct {
	conn     transport.Connection
	sender   *transport.LineSender
	connInfo string
	mu       sync.RWMutex
	adapter  *link.Adapter
	p        *tea.Program
}

func (cm *connectionManager) getConn() transport.Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn transport.Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
	cm.sender = nil
	if conn != nil {
		cm.sender = transport.NewLineSender(conn)
	}
}

// Send implements link.Transport.
func (cm *connectionManager) Send(p []byte) error {
	cm.mu.RLock()
	sender := cm.sender
	cm.mu.RUnlock()
	if sender == nil {
		return transport.ErrConnectionClosed
	}
	return sender.Send(p)
}

func runControl(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	cm := &connectionManager{}
	cm.setConn(conn, connInfo)
	cm.adapter = link.New(cm, link.WithVectorPolicy(appConfig.VectorPolicy()))
	defer cm.adapter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := initialControlModel(ctx, cm, connInfo)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p

	go cm.forwardEvents(ctx)
	go cm.readerLoop(ctx)
	go cm.prepare(ctx)

	_, err = p.Run()
	cancel()
	if c := cm.getConn(); c != nil {
		c.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// readerLoop feeds the adapter from the current connection, reconnecting
// whenever the connection is lost.
func (cm *connectionManager) readerLoop(ctx context.Context) {
	for {
		conn := cm.getConn()
		err := cm.adapter.Run(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("connection lost")
		cm.p.Send(connectionLostMsg{err: err})

		if !cm.reconnect(ctx) {
			return // Shutdown requested during reconnect
		}
	}
}

// forwardEvents batches adapter events and hands them to the TUI at a fixed
// rate so a fast sensor stream does not flood the update loop.
func (cm *connectionManager) forwardEvents(ctx context.Context) {
	events := cm.adapter.Subscribe(link.TopicAll, link.TopicRejected)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch controlBatchMsg
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			batch.events = append(batch.events, ev)
		case <-ticker.C:
			if len(batch.events) > 0 {
				cm.p.Send(batch)
				batch = controlBatchMsg{}
			}
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect(ctx context.Context) bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}
	cm.setConn(nil, "")
	cm.adapter.State().Reset()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			go cm.prepare(ctx)
			return true
		}
		log.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// prepare restores the default rounding steps and turns sensor reporting on.
func (cm *connectionManager) prepare(ctx context.Context) {
	err := cm.adapter.Defaults(ctx)
	if err == nil {
		err = cm.adapter.SetSensors(ctx, true)
	}
	if ctx.Err() != nil {
		return
	}
	cm.p.Send(preparedMsg{err: err})
}
