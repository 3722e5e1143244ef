// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// commandSet is the fixed set of command codes the firmware understands.
var commandSet = map[Command]struct{}{
	CmdDisplayText:     {},
	CmdDisplayLED:      {},
	CmdSensorEnable:    {},
	CmdMagneticForce:   {},
	CmdAcceleration:    {},
	CmdRotation:        {},
	CmdMicrophoneRound: {},
	CmdPlayTone1:       {},
	CmdPlayTone2:       {},
	CmdPlayTone4:       {},
	CmdPlayTone8:       {},
	CmdPlayTone16:      {},
	CmdPinMode0:        {},
	CmdPinMode1:        {},
	CmdPinMode2:        {},
	CmdPinWrite0:       {},
	CmdPinWrite1:       {},
	CmdPinWrite2:       {},
	CmdPlayExpression:  {},
}

// IsKnown reports whether c is part of the command set.
func (c Command) IsKnown() bool {
	_, ok := commandSet[c]
	return ok
}

// Encode builds the wire bytes for a command and returns how long the
// caller must wait before the next command. Display text is truncated to
// MaxTextLength characters before it is encoded or timed. An LED payload may
// be either the five-character rendered form or a 25-symbol pattern, which
// is rendered with EncodeLEDMatrix.
func Encode(cmd Command, payload string) ([]byte, time.Duration, error) {
	if !cmd.IsKnown() {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}

	switch cmd {
	case CmdDisplayText:
		payload = TruncateText(payload)
	case CmdDisplayLED:
		if len(payload) != MatrixRows {
			rendered, _, err := EncodeLEDMatrix(payload)
			if err != nil {
				return nil, 0, err
			}
			payload = rendered
		}
	}
	if err := validatePayload(cmd, payload); err != nil {
		return nil, 0, err
	}

	wire := make([]byte, 0, len(cmd)+len(payload))
	wire = append(wire, string(cmd)...)
	wire = append(wire, payload...)

	return wire, Delay(cmd, payload), nil
}

// Delay returns the settle delay for a command. For display text it is the
// scroll time: six pixel columns per character plus six for the lead-in and
// tail, at ScrollStep per column.
func Delay(cmd Command, payload string) time.Duration {
	if cmd != CmdDisplayText {
		return SendInterval
	}
	n := utf8.RuneCountInString(TruncateText(payload))
	return ScrollStep * time.Duration(6*n+6)
}

// TruncateText limits text to MaxTextLength characters.
func TruncateText(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxTextLength])
}

// EncodeLEDMatrix converts a 25-symbol row-major 5x5 pattern into the
// five-character display payload and the five row masks. Whitespace is
// ignored; any symbol other than '0' lights its LED.
func EncodeLEDMatrix(symbol string) (string, [MatrixRows]byte, error) {
	var rows [MatrixRows]byte

	cells := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, symbol)
	if utf8.RuneCountInString(cells) != MatrixCells {
		return "", rows, fmt.Errorf("%w: LED pattern has %d symbols, want %d",
			ErrInvalidPayload, utf8.RuneCountInString(cells), MatrixCells)
	}

	var mask uint32
	i := 0
	for _, c := range cells {
		if c != '0' {
			mask |= 1 << i
		}
		i++
	}

	var sb strings.Builder
	for row := 0; row < MatrixRows; row++ {
		rows[row] = byte((mask >> (5 * row)) & 0x1F)
		sb.WriteByte(MatrixAlphabet[rows[row]])
	}
	return sb.String(), rows, nil
}

// DecodeLEDMatrix is the inverse of EncodeLEDMatrix's payload rendering.
func DecodeLEDMatrix(payload string) ([MatrixRows]byte, error) {
	var rows [MatrixRows]byte
	if len(payload) != MatrixRows {
		return rows, fmt.Errorf("%w: LED payload %q must be %d characters", ErrInvalidPayload, payload, MatrixRows)
	}
	for i := 0; i < MatrixRows; i++ {
		idx := strings.IndexByte(MatrixAlphabet, payload[i])
		if idx < 0 {
			return rows, fmt.Errorf("%w: LED payload %q has invalid symbol %q", ErrInvalidPayload, payload, payload[i])
		}
		rows[i] = byte(idx)
	}
	return rows, nil
}

func validatePayload(cmd Command, payload string) error {
	switch cmd {
	case CmdDisplayText:
		if strings.ContainsAny(payload, "\r\n") {
			return fmt.Errorf("%w: display text contains a line break", ErrInvalidPayload)
		}
		return nil

	case CmdDisplayLED:
		_, err := DecodeLEDMatrix(payload)
		return err

	case CmdSensorEnable:
		return validateInt(cmd, payload, 0, maxSensorMask)

	case CmdMagneticForce, CmdAcceleration, CmdRotation, CmdMicrophoneRound:
		return validateInt(cmd, payload, 0, maxRound)

	case CmdPlayTone1, CmdPlayTone2, CmdPlayTone4, CmdPlayTone8, CmdPlayTone16:
		return validateInt(cmd, payload, minToneHz, maxToneHz)

	case CmdPinMode0, CmdPinMode1, CmdPinMode2:
		return validateInt(cmd, payload, int(PinModeNone), int(PinModeValue))

	case CmdPinWrite0, CmdPinWrite1, CmdPinWrite2:
		return validateInt(cmd, payload, 0, maxPinValue)

	case CmdPlayExpression:
		if !IsExpression(payload) {
			return fmt.Errorf("%w: unknown expression %q", ErrInvalidPayload, payload)
		}
		return nil
	}
	return nil
}

func validateInt(cmd Command, payload string, lo, hi int) error {
	v, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("%w: %s expects an integer, got %q", ErrInvalidPayload, cmd, payload)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s value %d out of range %d-%d", ErrInvalidPayload, cmd, v, lo, hi)
	}
	return nil
}
