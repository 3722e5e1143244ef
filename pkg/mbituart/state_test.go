// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"sync"
	"testing"
)

func TestSensorStateDefaults(t *testing.T) {
	s := NewSensorState()
	snap := s.Snapshot()
	if snap != (Snapshot{}) {
		t.Errorf("new state snapshot = %+v, want zero value", snap)
	}
	if !s.Updated().IsZero() {
		t.Error("Updated should be zero before any reading")
	}
}

func TestSensorStateReset(t *testing.T) {
	d := NewDecoder(nil)
	for _, line := range []string{"BA1", "B21", "G:shake", "T21", "V:9", "P3", "F03E8FFFF07D0", "A0001", "R00010002", "DTS"} {
		if !d.Decode(line) {
			t.Fatalf("Decode(%q) = false", line)
		}
	}
	d.State().SetLEDMatrix([MatrixRows]byte{1, 2, 3, 4, 5})

	d.State().Reset()
	if snap := d.State().Snapshot(); snap != (Snapshot{}) {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}

func TestSetLEDMatrixMasksRows(t *testing.T) {
	s := NewSensorState()
	s.SetLEDMatrix([MatrixRows]byte{0xFF, 0x20, 0x1F, 0, 1})
	if got := s.LEDMatrix(); got != [MatrixRows]byte{0x1F, 0, 0x1F, 0, 1} {
		t.Errorf("LEDMatrix = %v", got)
	}
}

func TestTouchPinOutOfRange(t *testing.T) {
	s := NewSensorState()
	if s.TouchPin(-1) != 0 || s.TouchPin(3) != 0 {
		t.Error("out of range pins should read 0")
	}
}

func TestSensorStateConcurrentVectors(t *testing.T) {
	d := NewDecoder(nil)
	lines := []string{"F000100010001", "F000200020002"}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			d.Decode(lines[i%2])
		}
	}()

	for i := 0; i < 1000; i++ {
		v := d.State().MagneticForce()
		if v[0] != v[1] || v[1] != v[2] {
			t.Fatalf("observed torn vector %v", v)
		}
	}
	wg.Wait()
}

func TestTiltAngle(t *testing.T) {
	d := NewDecoder(nil)
	// roll 250, pitch -154 (tenths of a degree)
	if !d.Decode("R00FAFF66") {
		t.Fatal("Decode = false")
	}
	s := d.State()

	tests := []struct {
		dir  TiltDirection
		want int
	}{
		{TiltRight, 25},
		{TiltLeft, -25},
		{TiltBack, -15},
		{TiltFront, 15},
	}
	for _, tt := range tests {
		got, err := s.TiltAngle(tt.dir)
		if err != nil {
			t.Fatalf("TiltAngle(%s): %v", tt.dir, err)
		}
		if got != tt.want {
			t.Errorf("TiltAngle(%s) = %d, want %d", tt.dir, got, tt.want)
		}
	}

	for dir, want := range map[TiltDirection]bool{
		TiltRight: true,
		TiltLeft:  false,
		TiltFront: true,
		TiltBack:  false,
		TiltAny:   true,
	} {
		got, err := s.IsTilted(dir)
		if err != nil {
			t.Fatalf("IsTilted(%s): %v", dir, err)
		}
		if got != want {
			t.Errorf("IsTilted(%s) = %v, want %v", dir, got, want)
		}
	}

	if _, err := s.TiltAngle("up"); err == nil {
		t.Error("TiltAngle(up) expected error")
	}
}

func TestIsTiltedAnyFlat(t *testing.T) {
	d := NewDecoder(nil)
	d.Decode("R00500050")
	tilted, err := d.State().IsTilted(TiltAny)
	if err != nil {
		t.Fatal(err)
	}
	if tilted {
		t.Error("8 degrees should not count as tilted")
	}
}

func TestButtonPressed(t *testing.T) {
	d := NewDecoder(nil)
	s := d.State()
	if s.ButtonPressed(ButtonAny) {
		t.Error("no button should be pressed initially")
	}
	d.Decode("BB1")
	if s.ButtonPressed(ButtonA) || !s.ButtonPressed(ButtonB) || !s.ButtonPressed(ButtonAny) {
		t.Error("only B should read pressed")
	}
	d.Decode("BL1")
	d.Decode("B11")
	if !s.LogoTouched() || !s.PinTouched(1) || s.PinTouched(0) {
		t.Error("logo and pin 1 should read touched")
	}
}

func TestGestureIs(t *testing.T) {
	d := NewDecoder(nil)
	s := d.State()
	if s.GestureIs("") || s.GestureIs("Shake") {
		t.Error("no gesture should match initially")
	}

	for _, g := range Gestures {
		if !IsGesture(g) {
			t.Errorf("IsGesture(%q) = false", g)
		}
		d.Decode("G:" + g)
		if !s.GestureIs(g) {
			t.Errorf("after G:%s GestureIs(%q) = false", g, g)
		}
	}

	d.Decode("G:LogoUp")
	if s.GestureIs("LogoDown") || s.GestureIs("logoup") {
		t.Error("GestureIs should match the reported name exactly")
	}
	if IsGesture("Wave") {
		t.Error("IsGesture(Wave) = true")
	}
}
