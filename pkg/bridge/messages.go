// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

// Subject suffixes under the configured prefix.
const (
	SubjectCommand  = "cmd"
	SubjectRejected = "rejected"
)

// ReadingMessage is the JSON body published for every applied reading.
type ReadingMessage struct {
	Field string    `json:"field"`
	Value *int      `json:"value,omitempty"`
	Text  string    `json:"text,omitempty"`
	Axes  []int32   `json:"axes,omitempty"`
	Line  string    `json:"line"`
	Time  time.Time `json:"time"`
}

// RejectedMessage is published for lines the decoder refused.
type RejectedMessage struct {
	Line  string    `json:"line"`
	Error string    `json:"error"`
	Time  time.Time `json:"time"`
}

// CommandRequest is the body accepted on <prefix>.cmd.
type CommandRequest struct {
	Command string `json:"command"`
	Payload string `json:"payload"`
}

// CommandReply answers a CommandRequest.
type CommandReply struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	DelayMS int64  `json:"delay_ms,omitempty"`
}

// Subject joins prefix and name with a dot.
func Subject(prefix, name string) string {
	return strings.TrimSuffix(prefix, ".") + "." + name
}

// NewReadingMessage converts an adapter event.
func NewReadingMessage(ev link.Event) ReadingMessage {
	r := ev.Reading
	msg := ReadingMessage{
		Field: r.Field.String(),
		Line:  r.Line,
		Time:  ev.Time,
	}
	switch {
	case r.Field.IsVector():
		msg.Axes = r.Axes
	case r.Field == mbituart.FieldGesture:
		msg.Text = r.Text
	default:
		v := r.Value
		msg.Value = &v
	}
	return msg
}

// ParseCommandRequest decodes and validates a request body.
func ParseCommandRequest(data []byte) (mbituart.Message, error) {
	var req CommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mbituart.Message{}, fmt.Errorf("decode command request: %w", err)
	}
	msg := mbituart.Message{
		Command: mbituart.Command(strings.ToUpper(strings.TrimSpace(req.Command))),
		Payload: req.Payload,
	}
	if err := mbituart.ValidateMessage(msg); err != nil {
		return mbituart.Message{}, err
	}
	return msg, nil
}

// SnapshotHash flattens a snapshot into Redis hash fields. Vectors and the
// LED matrix are stored as JSON arrays.
func SnapshotHash(s mbituart.Snapshot) map[string]interface{} {
	h := map[string]interface{}{
		"led_matrix": rowsJSON(s.LEDMatrix),
		"updated":    s.Updated.Format(time.RFC3339Nano),
	}
	set := func(f mbituart.Field, v interface{}) { h[f.String()] = v }
	set(mbituart.FieldButtonA, s.ButtonA)
	set(mbituart.FieldButtonB, s.ButtonB)
	set(mbituart.FieldTouchLogo, s.TouchLogo)
	for i, v := range s.TouchPins {
		set(mbituart.FieldTouchPin0+mbituart.Field(i), v)
	}
	set(mbituart.FieldGesture, s.Gesture)
	set(mbituart.FieldLightLevel, s.LightLevel)
	set(mbituart.FieldTemperature, s.Temperature)
	set(mbituart.FieldMicrophone, s.Microphone)
	set(mbituart.FieldPlayingSound, s.PlayingSound)
	set(mbituart.FieldMagneticForce, axesJSON(s.MagneticForce[:]))
	set(mbituart.FieldAcceleration, axesJSON(s.Acceleration[:]))
	set(mbituart.FieldRotation, axesJSON(s.Rotation[:]))
	return h
}

func axesJSON(axes []int32) string {
	parts := make([]string, len(axes))
	for i, v := range axes {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func rowsJSON(rows [mbituart.MatrixRows]byte) string {
	parts := make([]string, len(rows))
	for i, v := range rows {
		parts[i] = strconv.Itoa(int(v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
