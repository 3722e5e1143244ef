// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateLine(t *testing.T) {
	tests := []struct {
		line string
		want []AnomalyType
	}{
		{"BA1", nil},
		{"T:-3", nil},
		{"F03E8FFFF07D0", nil},
		{"R00010002", nil},
		{"", []AnomalyType{AnomalyEmpty}},
		{"zz", []AnomalyType{AnomalyUnknownTag}},
		{"BQ1", []AnomalyType{AnomalyUnknownSubtag}},
		{"DX", []AnomalyType{AnomalyUnknownSubtag}},
		{"Tabc", []AnomalyType{AnomalyMalformedNumber}},
		{"BAx", []AnomalyType{AnomalyMalformedNumber}},
		{"F03EZ", []AnomalyType{AnomalyMalformedHex}},
		{"A03E8", []AnomalyType{AnomalyShortVector}},
		{"R0001", []AnomalyType{AnomalyShortVector}},
		{strings.Repeat("T", MaxLineLength+1), []AnomalyType{AnomalyLineTooLong}},
	}

	for _, tt := range tests {
		name := tt.line
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			got := ValidateLine(tt.line)
			if len(got) != len(tt.want) {
				t.Fatalf("ValidateLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
			for i := range got {
				if got[i].Type != tt.want[i] {
					t.Errorf("anomaly %d = %s, want %s", i, got[i].Type, tt.want[i])
				}
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage(NewSensorEnable(true)); err != nil {
		t.Errorf("RM23: %v", err)
	}
	if err := ValidateMessage(Message{Command: "ZZ"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("ZZ error = %v", err)
	}
	if err := ValidateMessage(Message{Command: CmdPinWrite0, Payload: "abc"}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("P0abc error = %v", err)
	}
}

func TestStatistics(t *testing.T) {
	s := NewStatistics()
	for _, line := range []string{"BA1", "T21", "zz", "BQ1", "Tx", "FZZZZ", "A0001"} {
		s.Update(ValidateLine(line))
	}
	s.RecordOverflow()
	s.RecordSend(nil)
	s.RecordSend(errors.New("write failed"))

	c := s.Counts()
	if c.TotalLines != 8 {
		t.Errorf("TotalLines = %d, want 8", c.TotalLines)
	}
	if c.ValidLines != 3 {
		t.Errorf("ValidLines = %d, want 3", c.ValidLines)
	}
	if c.Rejected != 5 {
		t.Errorf("Rejected = %d, want 5", c.Rejected)
	}
	if c.ShortVectors != 1 {
		t.Errorf("ShortVectors = %d, want 1", c.ShortVectors)
	}
	if c.CommandsSent != 1 || c.SendErrors != 1 {
		t.Errorf("sends = %d/%d, want 1/1", c.CommandsSent, c.SendErrors)
	}

	out := s.String()
	for _, want := range []string{"Total Lines:", "Unknown Tags:", "Short Vectors:", "Send Errors:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}

	s.Reset()
	if c := s.Counts(); c != (StatisticsCounts{}) {
		t.Errorf("Counts after Reset = %+v", c)
	}
}

func TestFormatReading(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"BA1", "button_a=1"},
		{"G:shake", `gesture="shake"`},
		{"T:21", "temperature=21°C"},
		{"F03E8FFFF07D0", "magnetic_force=[1000, -1, 2000]"},
		{"DTS", "playing_sound=1"},
	}
	for _, tt := range tests {
		r, err := Parse(tt.line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.line, err)
		}
		if got := FormatReading(r); got != tt.want {
			t.Errorf("FormatReading(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)
	if got := FormatLine(ts, "BA1"); !strings.Contains(got, "03:04:05.006") || !strings.Contains(got, "button_a=1") {
		t.Errorf("FormatLine(BA1) = %q", got)
	}
	if got := FormatLine(ts, "zz"); !strings.Contains(got, "unknown_tag") {
		t.Errorf("FormatLine(zz) = %q", got)
	}
}

func TestFormatMessage(t *testing.T) {
	m, _ := NewPlayTone(Length4, LevelMid, NoteLa)
	got := FormatMessage(m)
	if !strings.HasPrefix(got, "PLAY_TONE (T4) 440Hz length=1/4") {
		t.Errorf("FormatMessage(tone) = %q", got)
	}

	sym, _, _ := NewDisplaySymbol("1000001000001000001000001")
	got = FormatMessage(sym)
	if !strings.Contains(got, "10000/01000/00100/00010/00001") {
		t.Errorf("FormatMessage(symbol) = %q", got)
	}

	if got := FormatMessage(NewDisplayClear()); !strings.Contains(got, "(clear)") {
		t.Errorf("FormatMessage(clear) = %q", got)
	}

	if got := FormatCommand("ZZ"); got != "UNKNOWN(ZZ)" {
		t.Errorf("FormatCommand(ZZ) = %q", got)
	}
}
