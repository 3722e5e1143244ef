// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records and replays line traffic as a CBOR sequence.
//
// Each record is a 3-element CBOR array: [unix_nanos, direction, line].
// Files are a plain concatenation of records (RFC 8742), so a capture cut
// short by a crash is still readable up to the last complete record.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a captured line
type Direction uint8

const (
	Inbound  Direction = 0 // device to host
	Outbound Direction = 1 // host to device
)

func (d Direction) String() string {
	if d == Outbound {
		return "tx"
	}
	return "rx"
}

// Record is one captured line.
type Record struct {
	_         struct{} `cbor:",toarray"`
	UnixNanos int64
	Direction Direction
	Line      string
}

// Time returns the capture time.
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNanos)
}

// Writer appends records to a stream. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	bw  *bufio.Writer
	enc *cbor.Encoder
	n   int
}

// NewWriter creates a writer on w.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, enc: cbor.NewEncoder(bw)}
}

// Write records line at time ts.
func (w *Writer) Write(ts time.Time, dir Direction, line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := Record{UnixNanos: ts.UnixNano(), Direction: dir, Line: line}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bw.Flush()
}

// Reader reads records from a stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(bufio.NewReader(r))}
}

// Next returns the next record, or io.EOF at a clean end of stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("decode capture record: %w", err)
	}
	return rec, nil
}

// ReadAll returns every record in the stream.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Replay calls fn for each inbound record, sleeping between records to
// reproduce the original spacing divided by speed. A speed of 0 or less
// replays without delay.
func Replay(ctx context.Context, r *Reader, speed float64, fn func(Record) error) error {
	var prev int64
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Direction != Inbound {
			continue
		}

		if speed > 0 && prev != 0 && rec.UnixNanos > prev {
			gap := time.Duration(float64(rec.UnixNanos-prev) / speed)
			timer := time.NewTimer(gap)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		prev = rec.UnixNanos

		if err := fn(rec); err != nil {
			return err
		}
	}
}
