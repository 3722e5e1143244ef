// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

// Field identifies which SensorState field a line updates.
type Field int

// Sensor fields
const (
	FieldButtonA Field = iota
	FieldButtonB
	FieldTouchLogo
	FieldTouchPin0
	FieldTouchPin1
	FieldTouchPin2
	FieldGesture
	FieldLightLevel
	FieldTemperature
	FieldMagneticForce
	FieldAcceleration
	FieldRotation
	FieldMicrophone
	FieldPlayingSound
)

var fieldNames = [...]string{
	FieldButtonA:       "button_a",
	FieldButtonB:       "button_b",
	FieldTouchLogo:     "touch_logo",
	FieldTouchPin0:     "touch_pin_0",
	FieldTouchPin1:     "touch_pin_1",
	FieldTouchPin2:     "touch_pin_2",
	FieldGesture:       "gesture",
	FieldLightLevel:    "light_level",
	FieldTemperature:   "temperature",
	FieldMagneticForce: "magnetic_force",
	FieldAcceleration:  "acceleration",
	FieldRotation:      "rotation",
	FieldMicrophone:    "microphone",
	FieldPlayingSound:  "playing_sound",
}

// String returns the snake_case field name, also used as event topic.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Fields lists every field in declaration order.
func Fields() []Field {
	out := make([]Field, len(fieldNames))
	for i := range fieldNames {
		out[i] = Field(i)
	}
	return out
}

// IsVector reports whether the field holds per-axis values.
func (f Field) IsVector() bool {
	return f == FieldMagneticForce || f == FieldAcceleration || f == FieldRotation
}

// Reading is one decoded inbound line.
type Reading struct {
	Field Field
	Value int     // flags and scalar fields
	Text  string  // gesture
	Axes  []int32 // vector fields, possibly fewer than the field holds
	Line  string
}
