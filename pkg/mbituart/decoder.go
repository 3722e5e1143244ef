// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"strconv"
	"strings"
)

// Decoder applies inbound lines to a SensorState.
type Decoder struct {
	state  *SensorState
	policy VectorPolicy
}

// NewDecoder creates a decoder writing into state. A nil state gets a fresh one.
func NewDecoder(state *SensorState) *Decoder {
	if state == nil {
		state = NewSensorState()
	}
	return &Decoder{state: state, policy: VectorZeroFill}
}

// State returns the state the decoder writes into.
func (d *Decoder) State() *SensorState {
	return d.state
}

// SetVectorPolicy selects how short vector payloads are applied.
func (d *Decoder) SetVectorPolicy(p VectorPolicy) {
	d.policy = p
}

// VectorPolicy returns the active short-payload policy.
func (d *Decoder) VectorPolicy() VectorPolicy {
	return d.policy
}

// Decode classifies one line and applies it. It returns false for anything
// it does not recognise, in which case the state is left untouched.
func (d *Decoder) Decode(line string) bool {
	_, err := d.DecodeReading(line)
	return err == nil
}

// DecodeReading is Decode for callers that need the reading or the reason
// a line was rejected.
func (d *Decoder) DecodeReading(line string) (Reading, error) {
	r, err := Parse(line)
	if err != nil {
		return Reading{}, err
	}
	d.state.Apply(r, d.policy)
	return r, nil
}

// Parse classifies a line without touching any state. Lines longer than
// MaxLineLength are refused, as the framer would have dropped them.
func Parse(line string) (Reading, error) {
	if line == "" {
		return Reading{}, fmt.Errorf("%w: empty line", ErrUnknownTag)
	}
	if len(line) > MaxLineLength {
		return Reading{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrLineTooLong, len(line), MaxLineLength)
	}

	switch line[0] {
	case TagButton:
		return parseButton(line)
	case TagDevice:
		return parseDevice(line)
	case TagGesture:
		return Reading{Field: FieldGesture, Text: payloadOf(line), Line: line}, nil
	case TagLight:
		return parseScalar(line, FieldLightLevel)
	case TagTemperature:
		return parseScalar(line, FieldTemperature)
	case TagMicrophone:
		return parseScalar(line, FieldMicrophone)
	case TagMagnetic:
		return parseVector(line, FieldMagneticForce, 3)
	case TagAccel:
		return parseVector(line, FieldAcceleration, 3)
	case TagRotation:
		return parseVector(line, FieldRotation, 2)
	default:
		return Reading{}, fmt.Errorf("%w: %q", ErrUnknownTag, line[0])
	}
}

func parseButton(line string) (Reading, error) {
	if len(line) < 3 {
		return Reading{}, fmt.Errorf("%w: button line %q too short", ErrMalformedField, line)
	}

	var field Field
	switch line[1] {
	case SubButtonA:
		field = FieldButtonA
	case SubButtonB:
		field = FieldButtonB
	case SubLogo:
		field = FieldTouchLogo
	case SubPin0:
		field = FieldTouchPin0
	case SubPin1:
		field = FieldTouchPin1
	case SubPin2:
		field = FieldTouchPin2
	default:
		return Reading{}, fmt.Errorf("%w: button subtag %q", ErrUnknownTag, line[1])
	}

	c := line[2]
	if c < '0' || c > '9' {
		return Reading{}, fmt.Errorf("%w: button value %q", ErrMalformedField, c)
	}
	return Reading{Field: field, Value: int(c - '0'), Line: line}, nil
}

func parseDevice(line string) (Reading, error) {
	if len(line) < 2 || line[1] != SubDeviceTone {
		return Reading{}, fmt.Errorf("%w: device line %q", ErrUnknownTag, line)
	}
	v := 0
	if len(line) > 2 && line[2] == toneSounding {
		v = 1
	}
	return Reading{Field: FieldPlayingSound, Value: v, Line: line}, nil
}

func parseScalar(line string, field Field) (Reading, error) {
	payload := strings.TrimSpace(payloadOf(line))
	v, err := strconv.Atoi(payload)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %s value %q", ErrMalformedField, field, payload)
	}
	return Reading{Field: field, Value: v, Line: line}, nil
}

func parseVector(line string, field Field, axes int) (Reading, error) {
	values, err := DecodeHexTriple(payloadOf(line))
	if err != nil {
		return Reading{}, fmt.Errorf("%s: %w", field, err)
	}
	if len(values) == 0 {
		return Reading{}, fmt.Errorf("%w: %s has no complete hex group", ErrMalformedField, field)
	}
	if len(values) > axes {
		values = values[:axes]
	}
	return Reading{Field: field, Axes: values, Line: line}, nil
}

// payloadOf returns the text after a single-character tag. The byte at
// offset 1 is skipped when it is a separator, so "T:21", "T 21" and "T21"
// carry the same payload while "T-5" keeps its sign.
func payloadOf(line string) string {
	if len(line) < 2 {
		return ""
	}
	if isSeparator(line[1]) {
		return line[2:]
	}
	return line[1:]
}

func isSeparator(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return false
	case c == '-' || c == '+':
		return false
	}
	return true
}
