// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"errors"
	"strings"
	"testing"
)

func TestFramerLines(t *testing.T) {
	f := NewFramer()
	lines, errs := f.FeedAll([]byte("BA1\r\nT:21\n\n\nG:shake\nF03E8"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"BA1", "T:21", "G:shake"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if string(f.Pending()) != "F03E8" {
		t.Errorf("pending = %q, want F03E8", f.Pending())
	}

	lines, _ = f.FeedAll([]byte("FFFF07D0\n"))
	if len(lines) != 1 || lines[0] != "F03E8FFFF07D0" {
		t.Errorf("continued line = %q", lines)
	}
}

func TestFramerOverflow(t *testing.T) {
	f := NewFramer()
	input := strings.Repeat("x", MaxLineLength+50) + "\nBA1\n"

	lines, errs := f.FeedAll([]byte(input))
	if len(errs) != 1 || !errors.Is(errs[0], ErrLineTooLong) {
		t.Fatalf("errs = %v, want one ErrLineTooLong", errs)
	}
	if len(lines) != 1 || lines[0] != "BA1" {
		t.Errorf("lines after overflow = %q, want [BA1]", lines)
	}
}

func TestFramerMaxLength(t *testing.T) {
	f := NewFramer()
	line := strings.Repeat("y", MaxLineLength)
	lines, errs := f.FeedAll([]byte(line + "\n"))
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(lines) != 1 || lines[0] != line {
		t.Errorf("line of exactly MaxLineLength bytes was not delivered")
	}
}

func TestFramerReset(t *testing.T) {
	f := NewFramer()
	f.FeedAll([]byte("partial"))
	f.Reset()
	if len(f.Pending()) != 0 {
		t.Errorf("pending after Reset = %q", f.Pending())
	}
}
