// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"sync"
	"time"
)

// VectorPolicy decides what happens to trailing axes missing from a short
// vector payload.
type VectorPolicy int

const (
	// VectorZeroFill replaces missing trailing axes with 0.
	VectorZeroFill VectorPolicy = iota
	// VectorRetain keeps the previous value of missing trailing axes.
	VectorRetain
)

// String returns the config spelling of the policy.
func (p VectorPolicy) String() string {
	if p == VectorRetain {
		return "retain"
	}
	return "zero_fill"
}

// ParseVectorPolicy accepts "zero_fill" (or empty) and "retain".
func ParseVectorPolicy(s string) (VectorPolicy, bool) {
	switch s {
	case "", "zero_fill", "zero-fill", "zerofill":
		return VectorZeroFill, true
	case "retain":
		return VectorRetain, true
	default:
		return VectorZeroFill, false
	}
}

// SensorState holds the latest value of every sensor field for one
// connected peripheral. All methods are safe for concurrent use; a reading
// is applied under a single write lock so vector fields are never observed
// half-updated.
type SensorState struct {
	mu sync.RWMutex

	buttonA      int
	buttonB      int
	touchLogo    int
	touchPins    [TouchPins]int
	gesture      string
	ledMatrix    [MatrixRows]byte
	lightLevel   int
	temperature  int
	microphone   int
	magnetic     [3]int32
	acceleration [3]int32
	rotation     [2]int32
	playingSound int

	updated time.Time
}

// NewSensorState creates a state with every field at its default.
func NewSensorState() *SensorState {
	return &SensorState{}
}

// Snapshot is a point-in-time copy of SensorState.
type Snapshot struct {
	ButtonA       int              `json:"button_a" cbor:"button_a"`
	ButtonB       int              `json:"button_b" cbor:"button_b"`
	TouchLogo     int              `json:"touch_logo" cbor:"touch_logo"`
	TouchPins     [TouchPins]int   `json:"touch_pins" cbor:"touch_pins"`
	Gesture       string           `json:"gesture" cbor:"gesture"`
	LEDMatrix     [MatrixRows]byte `json:"led_matrix" cbor:"led_matrix"`
	LightLevel    int              `json:"light_level" cbor:"light_level"`
	Temperature   int              `json:"temperature" cbor:"temperature"`
	Microphone    int              `json:"microphone" cbor:"microphone"`
	MagneticForce [3]int32         `json:"magnetic_force" cbor:"magnetic_force"`
	Acceleration  [3]int32         `json:"acceleration" cbor:"acceleration"`
	Rotation      [2]int32         `json:"rotation" cbor:"rotation"`
	PlayingSound  int              `json:"playing_sound" cbor:"playing_sound"`
	Updated       time.Time        `json:"updated" cbor:"updated"`
}

// Apply stores a decoded reading. Vector readings replace the whole field;
// axes missing from a short payload follow policy.
func (s *SensorState) Apply(r Reading, policy VectorPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Field {
	case FieldButtonA:
		s.buttonA = r.Value
	case FieldButtonB:
		s.buttonB = r.Value
	case FieldTouchLogo:
		s.touchLogo = r.Value
	case FieldTouchPin0:
		s.touchPins[0] = r.Value
	case FieldTouchPin1:
		s.touchPins[1] = r.Value
	case FieldTouchPin2:
		s.touchPins[2] = r.Value
	case FieldGesture:
		s.gesture = r.Text
	case FieldLightLevel:
		s.lightLevel = r.Value
	case FieldTemperature:
		s.temperature = r.Value
	case FieldMicrophone:
		s.microphone = r.Value
	case FieldPlayingSound:
		s.playingSound = r.Value
	case FieldMagneticForce:
		applyAxes(s.magnetic[:], r.Axes, policy)
	case FieldAcceleration:
		applyAxes(s.acceleration[:], r.Axes, policy)
	case FieldRotation:
		applyAxes(s.rotation[:], r.Axes, policy)
	default:
		return
	}
	s.updated = time.Now()
}

func applyAxes(dst []int32, axes []int32, policy VectorPolicy) {
	for i := range dst {
		switch {
		case i < len(axes):
			dst[i] = axes[i]
		case policy == VectorZeroFill:
			dst[i] = 0
		}
	}
}

// SetLEDMatrix records the rows last sent with the display-symbol command.
func (s *SensorState) SetLEDMatrix(rows [MatrixRows]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range rows {
		s.ledMatrix[i] = r & 0x1F
	}
}

// Reset restores every field to its default.
func (s *SensorState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buttonA = 0
	s.buttonB = 0
	s.touchLogo = 0
	s.touchPins = [TouchPins]int{}
	s.gesture = ""
	s.ledMatrix = [MatrixRows]byte{}
	s.lightLevel = 0
	s.temperature = 0
	s.microphone = 0
	s.magnetic = [3]int32{}
	s.acceleration = [3]int32{}
	s.rotation = [2]int32{}
	s.playingSound = 0
	s.updated = time.Time{}
}

// Snapshot returns a copy of every field.
func (s *SensorState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		ButtonA:       s.buttonA,
		ButtonB:       s.buttonB,
		TouchLogo:     s.touchLogo,
		TouchPins:     s.touchPins,
		Gesture:       s.gesture,
		LEDMatrix:     s.ledMatrix,
		LightLevel:    s.lightLevel,
		Temperature:   s.temperature,
		Microphone:    s.microphone,
		MagneticForce: s.magnetic,
		Acceleration:  s.acceleration,
		Rotation:      s.rotation,
		PlayingSound:  s.playingSound,
		Updated:       s.updated,
	}
}

// ButtonA returns the latest A button flag.
func (s *SensorState) ButtonA() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buttonA
}

// ButtonB returns the latest B button flag.
func (s *SensorState) ButtonB() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buttonB
}

// TouchLogo returns the latest logo touch flag.
func (s *SensorState) TouchLogo() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchLogo
}

// TouchPin returns the touch flag of pin 0-2, or 0 for other pins.
func (s *SensorState) TouchPin(pin int) int {
	if pin < 0 || pin >= TouchPins {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchPins[pin]
}

// TouchPins returns all touch pin flags.
func (s *SensorState) TouchPins() [TouchPins]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchPins
}

// Gesture returns the latest gesture token.
func (s *SensorState) Gesture() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gesture
}

// LEDMatrix returns the five row masks last sent to the display.
func (s *SensorState) LEDMatrix() [MatrixRows]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledMatrix
}

// LightLevel returns the latest light level.
func (s *SensorState) LightLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lightLevel
}

// Temperature returns the latest temperature.
func (s *SensorState) Temperature() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.temperature
}

// MicrophoneLevel returns the latest microphone level.
func (s *SensorState) MicrophoneLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.microphone
}

// MagneticForce returns the latest x, y, z magnetometer reading.
func (s *SensorState) MagneticForce() [3]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.magnetic
}

// Acceleration returns the latest x, y, z accelerometer reading.
func (s *SensorState) Acceleration() [3]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acceleration
}

// Rotation returns the latest roll and pitch.
func (s *SensorState) Rotation() [2]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotation
}

// PlayingSound returns 1 while the peripheral is playing a sound.
func (s *SensorState) PlayingSound() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playingSound
}

// Updated returns the time of the last applied reading.
func (s *SensorState) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
