// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

// DisplayText scrolls text across the LED matrix and returns once it has
// finished scrolling.
func (a *Adapter) DisplayText(ctx context.Context, text string) error {
	msg, err := mbituart.NewDisplayText(text)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// DisplaySymbol lights the LED matrix from a 25-symbol pattern.
func (a *Adapter) DisplaySymbol(ctx context.Context, symbol string) error {
	msg, _, err := mbituart.NewDisplaySymbol(symbol)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// DisplayClear blanks the LED matrix.
func (a *Adapter) DisplayClear(ctx context.Context) error {
	return a.Issue(ctx, mbituart.NewDisplayClear())
}

// SetSensors turns sensor reporting on or off.
func (a *Adapter) SetSensors(ctx context.Context, enabled bool) error {
	return a.Issue(ctx, mbituart.NewSensorEnable(enabled))
}

// SetMagneticForceRound sets the magnetometer rounding step.
func (a *Adapter) SetMagneticForceRound(ctx context.Context, round int) error {
	return a.issueBuilt(ctx, mbituart.NewMagneticForceRound, round)
}

// SetAccelerationRound sets the accelerometer rounding step.
func (a *Adapter) SetAccelerationRound(ctx context.Context, round int) error {
	return a.issueBuilt(ctx, mbituart.NewAccelerationRound, round)
}

// SetRotationRound sets the rotation rounding step.
func (a *Adapter) SetRotationRound(ctx context.Context, round int) error {
	return a.issueBuilt(ctx, mbituart.NewRotationRound, round)
}

// SetMicrophoneRound sets the sound level rounding step.
func (a *Adapter) SetMicrophoneRound(ctx context.Context, round int) error {
	return a.issueBuilt(ctx, mbituart.NewMicrophoneRound, round)
}

func (a *Adapter) issueBuilt(ctx context.Context, build func(int) (mbituart.Message, error), v int) error {
	msg, err := build(v)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// PlayTone plays a note of the given length, level and pitch.
func (a *Adapter) PlayTone(ctx context.Context, length mbituart.NoteLength, level mbituart.ToneLevel, note mbituart.Note) error {
	msg, err := mbituart.NewPlayTone(length, level, note)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// PlayExpression plays a built-in sound expression.
func (a *Adapter) PlayExpression(ctx context.Context, name string) error {
	msg, err := mbituart.NewPlayExpression(name)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// SetPinMode selects how pin 0-2 is reported.
func (a *Adapter) SetPinMode(ctx context.Context, pin int, mode mbituart.PinMode) error {
	msg, err := mbituart.NewPinMode(pin, mode)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// WritePin writes an analog value to pin 0-2.
func (a *Adapter) WritePin(ctx context.Context, pin int, value int) error {
	msg, err := mbituart.NewPinWrite(pin, value)
	if err != nil {
		return err
	}
	return a.Issue(ctx, msg)
}

// Defaults restores the rounding steps the firmware starts with.
func (a *Adapter) Defaults(ctx context.Context) error {
	steps := []struct {
		build func(int) (mbituart.Message, error)
		round int
	}{
		{mbituart.NewMagneticForceRound, DefaultMagneticForceRound},
		{mbituart.NewAccelerationRound, DefaultAccelerationRound},
		{mbituart.NewRotationRound, DefaultRotationRound},
		{mbituart.NewMicrophoneRound, DefaultMicrophoneRound},
	}
	for _, s := range steps {
		if err := a.issueBuilt(ctx, s.build, s.round); err != nil {
			return err
		}
	}
	return nil
}

// Default rounding steps
const (
	DefaultMagneticForceRound = 10
	DefaultAccelerationRound  = 10
	DefaultRotationRound      = 10
	DefaultMicrophoneRound    = 5
)
