// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeButtons(t *testing.T) {
	tests := []struct {
		line string
		get  func(*SensorState) int
	}{
		{"BA1", (*SensorState).ButtonA},
		{"BB1", (*SensorState).ButtonB},
		{"BL1", (*SensorState).TouchLogo},
		{"B01", func(s *SensorState) int { return s.TouchPin(0) }},
		{"B11", func(s *SensorState) int { return s.TouchPin(1) }},
		{"B21", func(s *SensorState) int { return s.TouchPin(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := NewDecoder(nil)
			if !d.Decode(tt.line) {
				t.Fatalf("Decode(%q) = false", tt.line)
			}
			if got := tt.get(d.State()); got != 1 {
				t.Errorf("after %q field = %d, want 1", tt.line, got)
			}

			release := tt.line[:2] + "0"
			if !d.Decode(release) {
				t.Fatalf("Decode(%q) = false", release)
			}
			if got := tt.get(d.State()); got != 0 {
				t.Errorf("after %q field = %d, want 0", release, got)
			}
		})
	}
}

func TestDecodeButtonLeavesOtherFields(t *testing.T) {
	d := NewDecoder(nil)
	before := d.State().Snapshot()

	if !d.Decode("BA1") {
		t.Fatal("Decode(BA1) = false")
	}

	after := d.State().Snapshot()
	after.ButtonA = 0
	after.Updated = before.Updated
	if after != before {
		t.Errorf("BA1 changed other fields: %+v", after)
	}
}

func TestDecodeUnrecognisedKeepsState(t *testing.T) {
	d := NewDecoder(nil)
	if !d.Decode("BA1") {
		t.Fatal("Decode(BA1) = false")
	}
	if d.Decode("zz") {
		t.Error("Decode(zz) = true, want false")
	}
	if got := d.State().ButtonA(); got != 1 {
		t.Errorf("ButtonA = %d after unrecognised line, want 1", got)
	}
}

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		line string
		get  func(*SensorState) int
		want int
	}{
		{"T-5", (*SensorState).Temperature, -5},
		{"T21", (*SensorState).Temperature, 21},
		{"T:21", (*SensorState).Temperature, 21},
		{"T 21", (*SensorState).Temperature, 21},
		{"T:-12", (*SensorState).Temperature, -12},
		{"V128", (*SensorState).LightLevel, 128},
		{"V:255", (*SensorState).LightLevel, 255},
		{"P:42", (*SensorState).MicrophoneLevel, 42},
		{"P0", (*SensorState).MicrophoneLevel, 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := NewDecoder(nil)
			if !d.Decode(tt.line) {
				t.Fatalf("Decode(%q) = false", tt.line)
			}
			if got := tt.get(d.State()); got != tt.want {
				t.Errorf("Decode(%q) field = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestDecodeGesture(t *testing.T) {
	d := NewDecoder(nil)
	if !d.Decode("G:shake") {
		t.Fatal("Decode(G:shake) = false")
	}
	if got := d.State().Gesture(); got != "shake" {
		t.Errorf("Gesture = %q, want shake", got)
	}
	if !d.Decode("Gface up") {
		t.Fatal("Decode(Gface up) = false")
	}
	if got := d.State().Gesture(); got != "face up" {
		t.Errorf("Gesture = %q, want %q", got, "face up")
	}
}

func TestDecodeDeviceTone(t *testing.T) {
	d := NewDecoder(nil)
	if !d.Decode("DTS") {
		t.Fatal("Decode(DTS) = false")
	}
	if got := d.State().PlayingSound(); got != 1 {
		t.Errorf("PlayingSound = %d, want 1", got)
	}
	if !d.Decode("DTE") {
		t.Fatal("Decode(DTE) = false")
	}
	if got := d.State().PlayingSound(); got != 0 {
		t.Errorf("PlayingSound = %d, want 0", got)
	}
	d.Decode("DTS")
	if !d.Decode("DT") {
		t.Fatal("Decode(DT) = false")
	}
	if got := d.State().PlayingSound(); got != 0 {
		t.Errorf("PlayingSound after DT = %d, want 0", got)
	}
}

func TestDecodeVectors(t *testing.T) {
	d := NewDecoder(nil)

	if !d.Decode("F03E8FFFF07D0") {
		t.Fatal("Decode(F03E8FFFF07D0) = false")
	}
	if got := d.State().MagneticForce(); got != [3]int32{1000, -1, 2000} {
		t.Errorf("MagneticForce = %v", got)
	}

	if !d.Decode("A:FC18000003E8") {
		t.Fatal("Decode(A:FC18000003E8) = false")
	}
	if got := d.State().Acceleration(); got != [3]int32{-1000, 0, 1000} {
		t.Errorf("Acceleration = %v", got)
	}

	if !d.Decode("R00960000FFFF") {
		t.Fatal("Decode(R00960000FFFF) = false")
	}
	if got := d.State().Rotation(); got != [2]int32{150, 0} {
		t.Errorf("Rotation = %v, want [150 0]", got)
	}
}

func TestDecodeShortVectorZeroFill(t *testing.T) {
	d := NewDecoder(nil)
	if d.VectorPolicy() != VectorZeroFill {
		t.Fatalf("default policy = %v, want zero_fill", d.VectorPolicy())
	}

	d.Decode("F03E8FFFF07D0")
	if !d.Decode("F03E8") {
		t.Fatal("Decode(F03E8) = false")
	}
	if got := d.State().MagneticForce(); got != [3]int32{1000, 0, 0} {
		t.Errorf("MagneticForce = %v, want [1000 0 0]", got)
	}
}

func TestDecodeShortVectorRetain(t *testing.T) {
	d := NewDecoder(nil)
	d.SetVectorPolicy(VectorRetain)

	d.Decode("F03E8FFFF07D0")
	if !d.Decode("F0001") {
		t.Fatal("Decode(F0001) = false")
	}
	if got := d.State().MagneticForce(); got != [3]int32{1, -1, 2000} {
		t.Errorf("MagneticForce = %v, want [1 -1 2000]", got)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", ErrUnknownTag},
		{"zz", ErrUnknownTag},
		{"X123", ErrUnknownTag},
		{"BX1", ErrUnknownTag},
		{"BA", ErrMalformedField},
		{"BAx", ErrMalformedField},
		{"Tabc", ErrMalformedField},
		{"T:", ErrMalformedField},
		{"V1.5", ErrMalformedField},
		{"F", ErrMalformedField},
		{"F03", ErrMalformedField},
		{"FZZZZ", ErrMalformedField},
		{"DX", ErrUnknownTag},
		{"D", ErrUnknownTag},
		{"G:" + strings.Repeat("x", MaxLineLength), ErrLineTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := NewDecoder(nil)
			d.Decode("T21")
			d.Decode("F03E8FFFF07D0")

			_, err := d.DecodeReading(tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeReading(%q) error = %v, want %v", tt.line, err, tt.want)
			}
			if d.Decode(tt.line) {
				t.Errorf("Decode(%q) = true", tt.line)
			}
			if got := d.State().Temperature(); got != 21 {
				t.Errorf("Temperature changed to %d", got)
			}
			if got := d.State().MagneticForce(); got != [3]int32{1000, -1, 2000} {
				t.Errorf("MagneticForce changed to %v", got)
			}
		})
	}
}

func TestDecodeLineLengthLimit(t *testing.T) {
	d := NewDecoder(nil)
	line := "G:" + strings.Repeat("x", MaxLineLength-2)
	if !d.Decode(line) {
		t.Fatalf("line of exactly MaxLineLength bytes rejected")
	}
	if errs := ValidateLine(line); len(errs) != 0 {
		t.Errorf("ValidateLine(%d bytes) = %v", len(line), errs)
	}

	long := line + "x"
	if d.Decode(long) {
		t.Error("line over MaxLineLength applied")
	}
	if errs := ValidateLine(long); len(errs) != 1 || errs[0].Type != AnomalyLineTooLong {
		t.Errorf("ValidateLine(%d bytes) = %v, want line_too_long", len(long), errs)
	}
	if got := d.State().Gesture(); got != line[2:] {
		t.Errorf("gesture changed to %d bytes", len(got))
	}
}

func TestParseReading(t *testing.T) {
	r, err := Parse("A03E8FFFF07D0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Field != FieldAcceleration {
		t.Errorf("Field = %v, want acceleration", r.Field)
	}
	if len(r.Axes) != 3 || r.Axes[1] != -1 {
		t.Errorf("Axes = %v", r.Axes)
	}
	if r.Line != "A03E8FFFF07D0" {
		t.Errorf("Line = %q", r.Line)
	}
}

func TestParseVectorPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want VectorPolicy
		ok   bool
	}{
		{"", VectorZeroFill, true},
		{"zero_fill", VectorZeroFill, true},
		{"retain", VectorRetain, true},
		{"keep", VectorZeroFill, false},
	}
	for _, tt := range tests {
		got, ok := ParseVectorPolicy(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseVectorPolicy(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
