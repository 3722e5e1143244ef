// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link attaches a SensorState to a connected micro:bit.
//
// An Adapter owns the state for one connection. Inbound bytes are framed,
// decoded and published as events; outbound commands are encoded, sent and
// followed by their settle delay. Commands are serialized so the peripheral
// never sees a command before the previous one has settled.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Transport sends one encoded command. Framing is the transport's concern.
type Transport interface {
	Send(p []byte) error
}

// ErrClosed is returned by Issue after Close.
var ErrClosed = errors.New("adapter closed")

// Event topics besides the per-field ones.
const (
	TopicAll      = "all"
	TopicRejected = "rejected"
)

const eventCapacity = 128

// Event is published for every applied reading, on the reading's field topic
// and on TopicAll.
type Event struct {
	Reading mbituart.Reading
	Time    time.Time
}

// Rejection is published on TopicRejected for every line the decoder refused.
type Rejection struct {
	Line string
	Err  error
	Time time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithVectorPolicy selects how short vector payloads are applied.
func WithVectorPolicy(p mbituart.VectorPolicy) Option {
	return func(a *Adapter) { a.decoder.SetVectorPolicy(p) }
}

// WithClock replaces the time source and the context-aware sleep used for
// settle delays.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(a *Adapter) {
		a.now = now
		a.sleep = sleep
	}
}

// Adapter connects one SensorState to a transport.
type Adapter struct {
	transport Transport
	state     *mbituart.SensorState
	decoder   *mbituart.Decoder
	stats     *mbituart.Statistics
	log       zerolog.Logger

	events   *pubsub.PubSub
	eventsMu sync.RWMutex
	closed   bool

	sendMu  sync.Mutex
	readyAt time.Time
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// New creates an adapter with a fresh SensorState.
func New(t Transport, opts ...Option) *Adapter {
	state := mbituart.NewSensorState()
	a := &Adapter{
		transport: t,
		state:     state,
		decoder:   mbituart.NewDecoder(state),
		stats:     mbituart.NewStatistics(),
		log:       log.Logger,
		events:    pubsub.New(eventCapacity),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the sensor state. It is safe to read concurrently.
func (a *Adapter) State() *mbituart.SensorState {
	return a.state
}

// Statistics returns the line and command counters.
func (a *Adapter) Statistics() *mbituart.Statistics {
	return a.stats
}

// Subscribe returns a channel receiving Events for the given field topics
// (see mbituart.Field.String), TopicAll, or TopicRejected. Decoding never
// waits for a subscriber: an event is dropped for a subscriber whose channel
// is full.
func (a *Adapter) Subscribe(topics ...string) chan interface{} {
	a.eventsMu.RLock()
	defer a.eventsMu.RUnlock()
	if a.closed {
		ch := make(chan interface{})
		close(ch)
		return ch
	}
	return a.events.Sub(topics...)
}

// Unsubscribe stops delivery on ch for topics, or for all topics when none
// are given. The caller does not need to drain ch first.
func (a *Adapter) Unsubscribe(ch chan interface{}, topics ...string) {
	// Held so Close cannot shut the broker down between the check and Unsub.
	// Publishing never blocks, so the broker always picks the command up.
	a.eventsMu.RLock()
	defer a.eventsMu.RUnlock()
	if a.closed {
		return
	}
	a.events.Unsub(ch, topics...)
}

// Issue encodes and sends msg, then waits out its settle delay. Nothing is
// sent when the message is invalid. If ctx ends during the delay Issue
// returns ctx.Err() but the command has been sent and the next Issue still
// waits for the remaining delay.
func (a *Adapter) Issue(ctx context.Context, msg mbituart.Message) error {
	wire, delay, err := msg.Encode()
	if err != nil {
		a.log.Debug().Err(err).Str("command", string(msg.Command)).Msg("rejected command")
		return err
	}

	if err := a.send(ctx, msg, wire, delay); err != nil {
		return err
	}

	return a.sleep(ctx, delay)
}

// IssueAsync runs Issue in the background. The channel receives exactly one
// value once the settle delay has elapsed or Issue failed.
func (a *Adapter) IssueAsync(ctx context.Context, msg mbituart.Message) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- a.Issue(ctx, msg)
	}()
	return done
}

func (a *Adapter) send(ctx context.Context, msg mbituart.Message, wire []byte, delay time.Duration) error {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()

	if a.isClosed() {
		return ErrClosed
	}

	if wait := a.readyAt.Sub(a.now()); wait > 0 {
		if err := a.sleep(ctx, wait); err != nil {
			return err
		}
	}

	err := a.transport.Send(wire)
	a.stats.RecordSend(err)
	if err != nil {
		a.log.Warn().Err(err).Str("command", string(msg.Command)).Msg("send failed")
		return fmt.Errorf("send %s: %w", msg.Command, err)
	}
	a.readyAt = a.now().Add(delay)

	if msg.Command == mbituart.CmdDisplayLED {
		if rows, err := mbituart.DecodeLEDMatrix(string(wire[len(msg.Command):])); err == nil {
			a.state.SetLEDMatrix(rows)
		}
	}

	a.log.Debug().
		Str("command", string(msg.Command)).
		Str("payload", msg.Payload).
		Dur("delay", delay).
		Msg("sent")
	return nil
}

// Run reads from r until it fails or ctx ends, applying every complete line.
// It returns nil when r reaches EOF.
func (a *Adapter) Run(ctx context.Context, r io.Reader) error {
	framer := mbituart.NewFramer()
	chunks := make(chan []byte, 16)
	readErr := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-chunks:
			a.feed(framer, chunk)
		case err := <-readErr:
			a.drain(framer, chunks)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (a *Adapter) drain(framer *mbituart.Framer, chunks <-chan []byte) {
	for {
		select {
		case chunk := <-chunks:
			a.feed(framer, chunk)
		default:
			return
		}
	}
}

func (a *Adapter) feed(framer *mbituart.Framer, chunk []byte) {
	lines, errs := framer.FeedAll(chunk)
	for _, err := range errs {
		a.stats.RecordOverflow()
		a.log.Debug().Err(err).Msg("dropped line")
	}
	for _, line := range lines {
		a.HandleLine(line)
	}
}

// HandleLine decodes one line, updates statistics and publishes the result.
// It reports whether the line was applied.
func (a *Adapter) HandleLine(line string) bool {
	a.stats.Update(mbituart.ValidateLine(line))

	r, err := a.decoder.DecodeReading(line)
	now := a.now()
	if err != nil {
		a.log.Trace().Err(err).Str("line", line).Msg("unrecognised line")
		a.publish(Rejection{Line: line, Err: err, Time: now}, TopicRejected)
		return false
	}

	a.publish(Event{Reading: r, Time: now}, r.Field.String(), TopicAll)
	return true
}

func (a *Adapter) publish(msg interface{}, topics ...string) {
	a.eventsMu.RLock()
	defer a.eventsMu.RUnlock()
	if a.closed {
		return
	}
	a.events.TryPub(msg, topics...)
}

func (a *Adapter) isClosed() bool {
	a.eventsMu.RLock()
	defer a.eventsMu.RUnlock()
	return a.closed
}

// Close detaches the adapter: the state returns to defaults and event
// subscribers are closed. The transport is left to its owner.
func (a *Adapter) Close() error {
	a.eventsMu.Lock()
	if a.closed {
		a.eventsMu.Unlock()
		return nil
	}
	a.closed = true
	a.eventsMu.Unlock()

	a.events.Shutdown()
	a.state.Reset()
	a.log.Debug().Msg("adapter closed")
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
