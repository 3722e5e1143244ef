// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatReading formats a decoded line into a human-readable string
func FormatReading(r Reading) string {
	switch {
	case r.Field == FieldGesture:
		return fmt.Sprintf("%s=%q", r.Field, r.Text)
	case r.Field.IsVector():
		parts := make([]string, len(r.Axes))
		for i, v := range r.Axes {
			parts[i] = fmt.Sprintf("%d", v)
		}
		return fmt.Sprintf("%s=[%s]", r.Field, strings.Join(parts, ", "))
	case r.Field == FieldTemperature:
		return fmt.Sprintf("%s=%d°C", r.Field, r.Value)
	default:
		return fmt.Sprintf("%s=%d", r.Field, r.Value)
	}
}

// FormatLine formats a raw line with a timestamp, its decoded form and any
// validation failure.
func FormatLine(ts time.Time, line string) string {
	prefix := fmt.Sprintf("[%s] %-16q", ts.Format("15:04:05.000"), line)
	if errs := ValidateLine(line); len(errs) > 0 && errs[0].Type != AnomalyShortVector {
		return fmt.Sprintf("%s ! %s: %s", prefix, errs[0].Type, errs[0].Message)
	}
	r, err := Parse(line)
	if err != nil {
		return fmt.Sprintf("%s ! %v", prefix, err)
	}
	return fmt.Sprintf("%s %s", prefix, FormatReading(r))
}

// FormatCommand returns the human-readable name for a command code
func FormatCommand(cmd Command) string {
	switch cmd {
	case CmdDisplayText:
		return "DISPLAY_TEXT"
	case CmdDisplayLED:
		return "DISPLAY_SYMBOL"
	case CmdSensorEnable:
		return "SENSOR_ENABLE"
	case CmdMagneticForce:
		return "MAGNETIC_FORCE_ROUND"
	case CmdAcceleration:
		return "ACCELERATION_ROUND"
	case CmdRotation:
		return "ROTATION_ROUND"
	case CmdMicrophoneRound:
		return "MICROPHONE_ROUND"
	case CmdPlayTone1, CmdPlayTone2, CmdPlayTone4, CmdPlayTone8, CmdPlayTone16:
		return "PLAY_TONE"
	case CmdPinMode0, CmdPinMode1, CmdPinMode2:
		return "PIN_MODE"
	case CmdPinWrite0, CmdPinWrite1, CmdPinWrite2:
		return "PIN_WRITE"
	case CmdPlayExpression:
		return "PLAY_EXPRESSION"
	default:
		return fmt.Sprintf("UNKNOWN(%s)", string(cmd))
	}
}

// FormatMessage formats an outbound message with its decoded arguments
func FormatMessage(m Message) string {
	name := FormatCommand(m.Command)
	delay := m.Delay()

	var args string
	switch m.Command {
	case CmdDisplayText:
		if m.Payload == "" {
			args = "(clear)"
		} else {
			args = fmt.Sprintf("%q", TruncateText(m.Payload))
		}
	case CmdDisplayLED:
		rows, err := DecodeLEDMatrix(m.Payload)
		if err != nil {
			args = fmt.Sprintf("%q (invalid)", m.Payload)
		} else {
			args = formatRows(rows)
		}
	case CmdSensorEnable:
		args = "off"
		if v, ok := parseIntPayload(m.Payload); ok && v != 0 {
			args = fmt.Sprintf("on (mask=%d)", v)
		}
	case CmdPlayTone1, CmdPlayTone2, CmdPlayTone4, CmdPlayTone8, CmdPlayTone16:
		args = fmt.Sprintf("%sHz length=1/%s", m.Payload, toneLengthName(m.Command))
	case CmdPinMode0, CmdPinMode1, CmdPinMode2:
		args = fmt.Sprintf("pin=%c mode=%s", m.Command[1], formatPinMode(m.Payload))
	case CmdPinWrite0, CmdPinWrite1, CmdPinWrite2:
		args = fmt.Sprintf("pin=%c value=%s", m.Command[1], m.Payload)
	default:
		args = m.Payload
	}

	return fmt.Sprintf("%s (%s) %s delay=%s", name, string(m.Command), args, delay)
}

func formatRows(rows [MatrixRows]byte) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%05b", reverseRow(r))
	}
	return strings.Join(parts, "/")
}

// reverseRow puts column 0 on the left for display.
func reverseRow(r byte) byte {
	var out byte
	for i := 0; i < 5; i++ {
		if r&(1<<i) != 0 {
			out |= 1 << (4 - i)
		}
	}
	return out
}

func toneLengthName(cmd Command) string {
	if cmd == CmdPlayTone16 {
		return "16"
	}
	return string(cmd[1])
}

func formatPinMode(payload string) string {
	v, ok := parseIntPayload(payload)
	if !ok {
		return payload
	}
	switch PinMode(v) {
	case PinModeNone:
		return "none"
	case PinModeOnOff:
		return "on/off"
	case PinModeValue:
		return "value"
	default:
		return payload
	}
}

func parseIntPayload(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil
}
