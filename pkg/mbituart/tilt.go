// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"math"
)

// TiltDirection names a tilt axis and sense.
type TiltDirection string

// Tilt directions
const (
	TiltFront TiltDirection = "front"
	TiltBack  TiltDirection = "back"
	TiltLeft  TiltDirection = "left"
	TiltRight TiltDirection = "right"
	TiltAny   TiltDirection = "any"
)

// TiltThreshold is the angle in degrees at which the board counts as tilted.
const TiltThreshold = 15

// Button selects a button for ButtonPressed.
type Button string

// Buttons
const (
	ButtonA   Button = "A"
	ButtonB   Button = "B"
	ButtonAny Button = "any"
)

// TiltAngle returns the tilt in degrees towards dir. Rotation is reported
// in tenths of a degree, so front == -back and left == -right.
func (s *SensorState) TiltAngle(dir TiltDirection) (int, error) {
	rot := s.Rotation()
	switch dir {
	case TiltFront:
		return roundTenths(-rot[1]), nil
	case TiltBack:
		return roundTenths(rot[1]), nil
	case TiltLeft:
		return roundTenths(-rot[0]), nil
	case TiltRight:
		return roundTenths(rot[0]), nil
	default:
		return 0, fmt.Errorf("unknown tilt direction %q", dir)
	}
}

// IsTilted reports whether the board is tilted past TiltThreshold towards dir.
func (s *SensorState) IsTilted(dir TiltDirection) (bool, error) {
	if dir == TiltAny {
		rot := s.Rotation()
		return math.Abs(float64(rot[0])/10) >= TiltThreshold ||
			math.Abs(float64(rot[1])/10) >= TiltThreshold, nil
	}
	angle, err := s.TiltAngle(dir)
	if err != nil {
		return false, err
	}
	return angle >= TiltThreshold, nil
}

// ButtonPressed reports whether the given button (or either) is down.
func (s *SensorState) ButtonPressed(b Button) bool {
	snap := s.Snapshot()
	switch b {
	case ButtonA:
		return snap.ButtonA != 0
	case ButtonB:
		return snap.ButtonB != 0
	case ButtonAny:
		return snap.ButtonA|snap.ButtonB != 0
	default:
		return false
	}
}

// LogoTouched reports whether the logo is being touched.
func (s *SensorState) LogoTouched() bool {
	return s.TouchLogo() != 0
}

// PinTouched reports whether touch pin 0-2 is connected.
func (s *SensorState) PinTouched(pin int) bool {
	return s.TouchPin(pin) != 0
}

// Gestures lists the gesture names the firmware reports on the G: line.
var Gestures = []string{
	"Shake",
	"FreeFall",
	"ScreenUp",
	"ScreenDown",
	"3G",
	"6G",
	"8G",
	"TiltLeft",
	"TiltRight",
	"LogoUp",
	"LogoDown",
}

// IsGesture reports whether name is a known gesture.
func IsGesture(name string) bool {
	for _, g := range Gestures {
		if g == name {
			return true
		}
	}
	return false
}

// GestureIs reports whether the last reported gesture is name. Names are
// matched exactly, as the firmware sends them.
func (s *SensorState) GestureIs(name string) bool {
	return name != "" && s.Gesture() == name
}

// roundTenths rounds v/10 to the nearest integer, halves rounding up.
func roundTenths(v int32) int {
	return int(math.Floor(float64(v)/10 + 0.5))
}
