// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

func TestBuildFromInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"text", "Hello micro:bit", "CTHello micro:bit"},
		{"symbol", "11111 11111 11111 11111 11111", "CMVVVVV"},
		{"clear", "", "CT"},
		{"sensors", "on", "RM23"},
		{"sensors", "OFF", "RM0"},
		{"tone", "4 mid si", "T4498"},
		{"tone", "2 MID La", "T2440"},
		{"express", "Happy", "TThappy"},
		{"pin-mode", "1 value", "R12"},
		{"pin-write", "2 512", "P2512"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" "+tt.input, func(t *testing.T) {
			c, ok := findCommand(tt.name)
			if !ok {
				t.Fatalf("findCommand(%q) not found", tt.name)
			}
			m, err := c.buildFromInput(tt.input)
			if err != nil {
				t.Fatalf("buildFromInput(%q): %v", tt.input, err)
			}
			if m.String() != tt.want {
				t.Errorf("message = %q, want %q", m.String(), tt.want)
			}
		})
	}
}

func TestBuildRound(t *testing.T) {
	c, _ := findCommand("round")
	m, err := c.buildFromInput("accel 100")
	if err != nil {
		t.Fatalf("buildFromInput: %v", err)
	}
	if m.Command != mbituart.CmdAcceleration || m.Payload != "100" {
		t.Errorf("message = %+v", m)
	}

	if _, err := c.buildFromInput("light 10"); err == nil {
		t.Error("unknown sensor expected error")
	}
	if _, err := c.buildFromInput("accel 5000"); !errors.Is(err, mbituart.ErrInvalidPayload) {
		t.Errorf("out of range error = %v", err)
	}
}

func TestBuildFromInputUsage(t *testing.T) {
	for _, input := range []struct{ name, input string }{
		{"text", "   "},
		{"clear", "now"},
		{"tone", "4 mid"},
		{"pin-write", "1"},
	} {
		c, _ := findCommand(input.name)
		_, err := c.buildFromInput(input.input)
		if err == nil {
			t.Errorf("%s %q: expected error", input.name, input.input)
			continue
		}
		if !strings.HasPrefix(err.Error(), "usage: "+input.name) {
			t.Errorf("%s %q: error = %q, want usage", input.name, input.input, err)
		}
	}
}

func TestBuildFromInputInvalid(t *testing.T) {
	tests := []struct{ name, input string }{
		{"sensors", "maybe"},
		{"tone", "3 mid la"},
		{"tone", "4 loud la"},
		{"tone", "4 mid ti"},
		{"express", "laugh"},
		{"pin-mode", "x onoff"},
		{"pin-mode", "0 digital"},
		{"pin-write", "3 100"},
		{"symbol", "111"},
	}

	for _, tt := range tests {
		c, _ := findCommand(tt.name)
		if _, err := c.buildFromInput(tt.input); err == nil {
			t.Errorf("%s %q: expected error", tt.name, tt.input)
		}
	}
}

func TestPlaceholdersBuild(t *testing.T) {
	for _, c := range commandSpecs {
		if _, err := c.buildFromInput(c.placeholder); err != nil {
			t.Errorf("%s placeholder %q: %v", c.name, c.placeholder, err)
		}
	}
}

func TestFindCommand(t *testing.T) {
	if _, ok := findCommand("nope"); ok {
		t.Error("findCommand(nope) found")
	}
	for _, c := range commandSpecs {
		if got, ok := findCommand(c.name); !ok || got.name != c.name {
			t.Errorf("findCommand(%q) = %q, %v", c.name, got.name, ok)
		}
	}
}
