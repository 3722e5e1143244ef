// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"strconv"
	"time"
)

// Message is an outbound command ready for encoding.
type Message struct {
	Command Command
	Payload string
}

// Encode returns the wire bytes and settle delay for the message.
func (m Message) Encode() ([]byte, time.Duration, error) {
	return Encode(m.Command, m.Payload)
}

// Delay returns the settle delay for the message.
func (m Message) Delay() time.Duration {
	return Delay(m.Command, m.Payload)
}

// String returns the wire text without the line terminator.
func (m Message) String() string {
	return string(m.Command) + m.Payload
}

// Command builder functions create Messages with their payload formatted the
// way the firmware expects. They validate arguments up front so callers get
// an error before anything reaches the wire.

// NewDisplayText creates a CT message. Text beyond MaxTextLength characters
// is dropped.
func NewDisplayText(text string) (Message, error) {
	m := Message{Command: CmdDisplayText, Payload: TruncateText(text)}
	return m, validatePayload(m.Command, m.Payload)
}

// NewDisplayClear blanks the display. It is display text with no characters.
func NewDisplayClear() Message {
	return Message{Command: CmdDisplayText}
}

// NewDisplaySymbol creates a CM message from a 25-symbol 5x5 pattern and
// returns the row masks that will be lit.
func NewDisplaySymbol(symbol string) (Message, [MatrixRows]byte, error) {
	payload, rows, err := EncodeLEDMatrix(symbol)
	if err != nil {
		return Message{}, rows, err
	}
	return Message{Command: CmdDisplayLED, Payload: payload}, rows, nil
}

// NewSensorEnable turns sensor reporting on or off.
func NewSensorEnable(enabled bool) Message {
	if enabled {
		return Message{Command: CmdSensorEnable, Payload: strconv.Itoa(SensorsAll)}
	}
	return Message{Command: CmdSensorEnable, Payload: "0"}
}

// NewMagneticForceRound sets the rounding step of magnetometer reports.
func NewMagneticForceRound(round int) (Message, error) {
	return newRound(CmdMagneticForce, round)
}

// NewAccelerationRound sets the rounding step of accelerometer reports.
func NewAccelerationRound(round int) (Message, error) {
	return newRound(CmdAcceleration, round)
}

// NewRotationRound sets the rounding step of rotation reports.
func NewRotationRound(round int) (Message, error) {
	return newRound(CmdRotation, round)
}

// NewMicrophoneRound sets the rounding step of sound level reports.
func NewMicrophoneRound(round int) (Message, error) {
	return newRound(CmdMicrophoneRound, round)
}

func newRound(cmd Command, round int) (Message, error) {
	m := Message{Command: cmd, Payload: strconv.Itoa(round)}
	return m, validatePayload(cmd, m.Payload)
}

// NewPlayTone plays a note. The length picks the command code and the level
// and note pick the frequency.
func NewPlayTone(length NoteLength, level ToneLevel, note Note) (Message, error) {
	cmd, err := ToneCommand(length)
	if err != nil {
		return Message{}, err
	}
	hz, err := ToneFrequency(level, note)
	if err != nil {
		return Message{}, err
	}
	return Message{Command: cmd, Payload: strconv.Itoa(hz)}, nil
}

// NewPlayExpression plays a built-in sound expression by name.
func NewPlayExpression(name string) (Message, error) {
	m := Message{Command: CmdPlayExpression, Payload: name}
	return m, validatePayload(m.Command, name)
}

// NewPinMode selects how touch pin 0-2 is reported.
func NewPinMode(pin int, mode PinMode) (Message, error) {
	cmd, err := pinCommand(pin, CmdPinMode0, CmdPinMode1, CmdPinMode2)
	if err != nil {
		return Message{}, err
	}
	m := Message{Command: cmd, Payload: strconv.Itoa(int(mode))}
	return m, validatePayload(cmd, m.Payload)
}

// NewPinWrite writes an analog value to pin 0-2.
func NewPinWrite(pin int, value int) (Message, error) {
	cmd, err := pinCommand(pin, CmdPinWrite0, CmdPinWrite1, CmdPinWrite2)
	if err != nil {
		return Message{}, err
	}
	m := Message{Command: cmd, Payload: strconv.Itoa(value)}
	return m, validatePayload(cmd, m.Payload)
}

func pinCommand(pin int, cmds ...Command) (Command, error) {
	if pin < 0 || pin >= len(cmds) {
		return "", fmt.Errorf("%w: pin %d (valid 0-%d)", ErrInvalidPayload, pin, len(cmds)-1)
	}
	return cmds[pin], nil
}
