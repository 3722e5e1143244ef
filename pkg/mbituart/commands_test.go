// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"errors"
	"testing"
	"time"
)

func TestNewSensorEnable(t *testing.T) {
	if got := NewSensorEnable(true).String(); got != "RM23" {
		t.Errorf("enable = %q, want RM23", got)
	}
	if got := NewSensorEnable(false).String(); got != "RM0" {
		t.Errorf("disable = %q, want RM0", got)
	}
}

func TestNewDisplayClear(t *testing.T) {
	m := NewDisplayClear()
	if m.String() != "CT" {
		t.Errorf("clear = %q, want CT", m.String())
	}
	if m.Delay() != 720*time.Millisecond {
		t.Errorf("clear delay = %v, want 720ms", m.Delay())
	}
}

func TestNewDisplaySymbol(t *testing.T) {
	m, rows, err := NewDisplaySymbol("1111111111111111111111111")
	if err != nil {
		t.Fatalf("NewDisplaySymbol: %v", err)
	}
	if m.String() != "CMVVVVV" {
		t.Errorf("message = %q", m.String())
	}
	if rows != [MatrixRows]byte{31, 31, 31, 31, 31} {
		t.Errorf("rows = %v", rows)
	}
}

func TestNewRounds(t *testing.T) {
	tests := []struct {
		name  string
		build func(int) (Message, error)
		cmd   Command
	}{
		{"magnetic", NewMagneticForceRound, CmdMagneticForce},
		{"acceleration", NewAccelerationRound, CmdAcceleration},
		{"rotation", NewRotationRound, CmdRotation},
		{"microphone", NewMicrophoneRound, CmdMicrophoneRound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.build(10)
			if err != nil {
				t.Fatalf("build(10): %v", err)
			}
			if m.Command != tt.cmd || m.Payload != "10" {
				t.Errorf("message = %+v", m)
			}
			if _, err := tt.build(-1); !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("build(-1) error = %v, want ErrInvalidPayload", err)
			}
			if _, err := tt.build(1001); !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("build(1001) error = %v, want ErrInvalidPayload", err)
			}
		})
	}
}

func TestNewPlayTone(t *testing.T) {
	tests := []struct {
		length NoteLength
		level  ToneLevel
		note   Note
		want   string
	}{
		{Length1, LevelLow, NoteDo, "T1131"},
		{Length2, LevelMid, NoteLa, "T2440"},
		{Length4, LevelMid, NoteSi, "T4498"},
		{Length8, LevelHigh, NoteDo, "T8523"},
		{Length16, LevelHigh, NoteSi, "TX988"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, err := NewPlayTone(tt.length, tt.level, tt.note)
			if err != nil {
				t.Fatalf("NewPlayTone: %v", err)
			}
			if m.String() != tt.want {
				t.Errorf("message = %q, want %q", m.String(), tt.want)
			}
			if _, _, err := m.Encode(); err != nil {
				t.Errorf("Encode: %v", err)
			}
		})
	}
}

func TestNewPlayToneInvalid(t *testing.T) {
	if _, err := NewPlayTone(3, LevelLow, NoteDo); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("length 3 error = %v", err)
	}
	if _, err := NewPlayTone(Length1, 3, NoteDo); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("level 3 error = %v", err)
	}
	if _, err := NewPlayTone(Length1, LevelLow, 12); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("note 12 error = %v", err)
	}
}

func TestNewPlayExpression(t *testing.T) {
	for _, name := range Expressions {
		m, err := NewPlayExpression(name)
		if err != nil {
			t.Errorf("NewPlayExpression(%q): %v", name, err)
			continue
		}
		if m.String() != "TT"+name {
			t.Errorf("message = %q", m.String())
		}
	}
	if _, err := NewPlayExpression("laugh"); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("unknown expression error = %v", err)
	}
}

func TestNewPinMessages(t *testing.T) {
	m, err := NewPinMode(1, PinModeValue)
	if err != nil {
		t.Fatalf("NewPinMode: %v", err)
	}
	if m.String() != "R12" {
		t.Errorf("pin mode = %q, want R12", m.String())
	}

	m, err = NewPinWrite(2, 512)
	if err != nil {
		t.Fatalf("NewPinWrite: %v", err)
	}
	if m.String() != "P2512" {
		t.Errorf("pin write = %q, want P2512", m.String())
	}

	if _, err := NewPinMode(3, PinModeNone); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("pin 3 error = %v", err)
	}
	if _, err := NewPinMode(0, PinMode(5)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("mode 5 error = %v", err)
	}
	if _, err := NewPinWrite(0, 2000); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("value 2000 error = %v", err)
	}
}

func TestParseNote(t *testing.T) {
	if n, err := ParseNote("la"); err != nil || n != NoteLa {
		t.Errorf("ParseNote(la) = %v, %v", n, err)
	}
	if n, err := ParseNote("11"); err != nil || n != NoteSi {
		t.Errorf("ParseNote(11) = %v, %v", n, err)
	}
	if _, err := ParseNote("ti"); err == nil {
		t.Error("ParseNote(ti) expected error")
	}
}
