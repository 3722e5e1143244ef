// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import "fmt"

// Framer splits a byte stream into newline-terminated lines.
type Framer struct {
	buffer   []byte
	overflow bool
}

// NewFramer creates a new line framer
func NewFramer() *Framer {
	return &Framer{buffer: make([]byte, 0, MaxLineLength)}
}

// Reset discards any partial line
func (f *Framer) Reset() {
	f.buffer = f.buffer[:0]
	f.overflow = false
}

// Pending returns the bytes of the line being assembled
func (f *Framer) Pending() []byte {
	return f.buffer
}

// Feed processes a single byte. It returns a completed line (without the
// terminator) and true when b ends a line. Carriage returns are dropped and
// empty lines are skipped. A line longer than MaxLineLength is reported once
// with ErrLineTooLong and discarded up to its terminator.
func (f *Framer) Feed(b byte) (string, bool, error) {
	switch b {
	case '\r':
		return "", false, nil
	case '\n':
		if f.overflow {
			f.Reset()
			return "", false, nil
		}
		if len(f.buffer) == 0 {
			return "", false, nil
		}
		line := string(f.buffer)
		f.buffer = f.buffer[:0]
		return line, true, nil
	}

	if f.overflow {
		return "", false, nil
	}
	if len(f.buffer) >= MaxLineLength {
		f.buffer = f.buffer[:0]
		f.overflow = true
		return "", false, fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, MaxLineLength)
	}
	f.buffer = append(f.buffer, b)
	return "", false, nil
}

// FeedAll processes a chunk and returns every line it completes along with
// any framing errors seen on the way.
func (f *Framer) FeedAll(p []byte) ([]string, []error) {
	var lines []string
	var errs []error
	for _, b := range p {
		line, ok, err := f.Feed(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			lines = append(lines, line)
		}
	}
	return lines, errs
}
