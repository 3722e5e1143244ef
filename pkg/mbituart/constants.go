// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mbituart implements the micro:bit UART line protocol.
//
// The peripheral streams short ASCII status lines ("BA1", "T:21",
// "A03E8FFFF07D0") which are decoded into a SensorState. Outgoing commands
// are a two-character code followed by the payload; every command carries a
// settle delay the caller waits out before issuing the next one.
//
// Line framing (the trailing newline) belongs to the transport.
package mbituart

import "time"

// Command is a two-character outbound command code.
type Command string

// Display commands
const (
	CmdDisplayText Command = "CT"
	CmdDisplayLED  Command = "CM"
)

// Sensor configuration commands
const (
	CmdSensorEnable    Command = "RM"
	CmdMagneticForce   Command = "RF"
	CmdAcceleration    Command = "RG"
	CmdRotation        Command = "RR"
	CmdMicrophoneRound Command = "RP"
)

// Tone commands, one per note length
const (
	CmdPlayTone1  Command = "T1"
	CmdPlayTone2  Command = "T2"
	CmdPlayTone4  Command = "T4"
	CmdPlayTone8  Command = "T8"
	CmdPlayTone16 Command = "TX"
)

// Pin commands
const (
	CmdPinMode0  Command = "R0"
	CmdPinMode1  Command = "R1"
	CmdPinMode2  Command = "R2"
	CmdPinWrite0 Command = "P0"
	CmdPinWrite1 Command = "P1"
	CmdPinWrite2 Command = "P2"
)

// CmdPlayExpression plays one of the built-in sound expressions.
const CmdPlayExpression Command = "TT"

// Inbound line tags
const (
	TagButton      = 'B'
	TagGesture     = 'G'
	TagLight       = 'V'
	TagTemperature = 'T'
	TagMagnetic    = 'F'
	TagAccel       = 'A'
	TagRotation    = 'R'
	TagMicrophone  = 'P'
	TagDevice      = 'D'
)

// Button subtags
const (
	SubButtonA = 'A'
	SubButtonB = 'B'
	SubLogo    = 'L'
	SubPin0    = '0'
	SubPin1    = '1'
	SubPin2    = '2'
)

// Device subtags
const (
	SubDeviceTone = 'T'
	toneSounding  = 'S'
)

// Timing
const (
	// SendInterval is the settle delay after every command except display text.
	SendInterval = 100 * time.Millisecond

	// ScrollStep is the dot-matrix scroll time per horizontal pixel.
	ScrollStep = 120 * time.Millisecond

	// MaxTextLength is the longest text the display command accepts.
	MaxTextLength = 18
)

// Protocol limits
const (
	MaxLineLength = 128
	HexFieldWidth = 4
	TripleWidth   = 3 * HexFieldWidth
	TouchPins     = 3
	MatrixRows    = 5
	MatrixCells   = 25
)

// MatrixAlphabet renders one 5-bit LED row group per character.
const MatrixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

// SensorsAll is the sensor-enable mask the firmware expects for "enable".
const SensorsAll = 1 + 2 + 4 + 16

// PinMode selects how the peripheral reports a touch pin.
type PinMode int

// Pin mode values
const (
	PinModeNone  PinMode = 0
	PinModeOnOff PinMode = 1
	PinModeValue PinMode = 2
)

// Payload ranges
const (
	maxSensorMask = 31
	maxRound      = 1000
	minToneHz     = 20
	maxToneHz     = 20000
	maxPinValue   = 1023
)
