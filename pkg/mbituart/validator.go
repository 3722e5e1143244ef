// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"errors"
	"fmt"
	"strings"
)

// AnomalyType represents different kinds of rejected lines
type AnomalyType int

const (
	AnomalyEmpty AnomalyType = iota
	AnomalyUnknownTag
	AnomalyUnknownSubtag
	AnomalyMalformedNumber
	AnomalyMalformedHex
	AnomalyShortVector
	AnomalyLineTooLong
)

var anomalyNames = [...]string{
	AnomalyEmpty:           "empty",
	AnomalyUnknownTag:      "unknown_tag",
	AnomalyUnknownSubtag:   "unknown_subtag",
	AnomalyMalformedNumber: "malformed_number",
	AnomalyMalformedHex:    "malformed_hex",
	AnomalyShortVector:     "short_vector",
	AnomalyLineTooLong:     "line_too_long",
}

func (a AnomalyType) String() string {
	if a < 0 || int(a) >= len(anomalyNames) {
		return fmt.Sprintf("anomaly(%d)", int(a))
	}
	return anomalyNames[a]
}

// ValidationError represents a line validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateLine inspects a line without applying it. The result is empty when
// the decoder would accept the line. A short vector is still accepted by the
// decoder and is reported here so it shows up in statistics.
func ValidateLine(line string) []ValidationError {
	if line == "" {
		return []ValidationError{{Type: AnomalyEmpty, Message: "Empty line"}}
	}
	if len(line) > MaxLineLength {
		return []ValidationError{{
			Type:    AnomalyLineTooLong,
			Message: fmt.Sprintf("Line of %d bytes exceeds %d", len(line), MaxLineLength),
			Details: map[string]interface{}{"length": len(line), "max": MaxLineLength},
		}}
	}

	r, err := Parse(line)
	if err != nil {
		return []ValidationError{classify(line, err)}
	}

	if r.Field.IsVector() {
		want := 3
		if r.Field == FieldRotation {
			want = 2
		}
		if len(r.Axes) < want {
			return []ValidationError{{
				Type:    AnomalyShortVector,
				Message: fmt.Sprintf("%s carries %d of %d axes", r.Field, len(r.Axes), want),
				Details: map[string]interface{}{"axes": len(r.Axes), "expected": want},
			}}
		}
	}
	return nil
}

func classify(line string, err error) ValidationError {
	v := ValidationError{
		Message: err.Error(),
		Details: map[string]interface{}{"tag": string(line[0])},
	}
	switch {
	case errors.Is(err, ErrUnknownTag) && isKnownTag(line[0]):
		v.Type = AnomalyUnknownSubtag
	case errors.Is(err, ErrUnknownTag):
		v.Type = AnomalyUnknownTag
	case strings.ContainsRune("FAR", rune(line[0])):
		v.Type = AnomalyMalformedHex
	default:
		v.Type = AnomalyMalformedNumber
	}
	return v
}

func isKnownTag(c byte) bool {
	switch c {
	case TagButton, TagGesture, TagLight, TagTemperature, TagMagnetic,
		TagAccel, TagRotation, TagMicrophone, TagDevice:
		return true
	}
	return false
}

// ValidateMessage checks an outbound message without encoding it.
func ValidateMessage(m Message) error {
	if !m.Command.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(m.Command))
	}
	payload := m.Payload
	if m.Command == CmdDisplayText {
		payload = TruncateText(payload)
	}
	return validatePayload(m.Command, payload)
}
