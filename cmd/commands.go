// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

// commandSpec describes one user-facing command. build turns the argument
// words into a message; text-style commands receive the rest of the line as
// a single word.
type commandSpec struct {
	name        string
	title       string
	usage       string
	placeholder string
	wholeLine   bool
	build       func(args []string) (mbituart.Message, error)
}

// Implement list.Item interface
func (c commandSpec) Title() string       { return c.title }
func (c commandSpec) Description() string { return c.name + " " + c.usage }
func (c commandSpec) FilterValue() string { return c.name }

var errUsage = errors.New("wrong number of arguments")

var commandSpecs = []commandSpec{
	{
		name:        "text",
		title:       "Display text",
		usage:       "<text>",
		placeholder: "Hello",
		wholeLine:   true,
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 1 {
				return mbituart.Message{}, errUsage
			}
			return mbituart.NewDisplayText(args[0])
		},
	},
	{
		name:        "symbol",
		title:       "Display symbol",
		usage:       "<25 cells of 1 and 0, row by row>",
		placeholder: "10001 01010 00100 01010 10001",
		wholeLine:   true,
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 1 {
				return mbituart.Message{}, errUsage
			}
			msg, _, err := mbituart.NewDisplaySymbol(args[0])
			return msg, err
		},
	},
	{
		name:  "clear",
		title: "Clear display",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 0 {
				return mbituart.Message{}, errUsage
			}
			return mbituart.NewDisplayClear(), nil
		},
	},
	{
		name:        "sensors",
		title:       "Sensor reporting",
		usage:       "<on|off>",
		placeholder: "on",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 1 {
				return mbituart.Message{}, errUsage
			}
			switch strings.ToLower(args[0]) {
			case "on", "1", "true":
				return mbituart.NewSensorEnable(true), nil
			case "off", "0", "false":
				return mbituart.NewSensorEnable(false), nil
			}
			return mbituart.Message{}, fmt.Errorf("expected on or off, got %q", args[0])
		},
	},
	{
		name:        "round",
		title:       "Rounding step",
		usage:       "<magnetic|accel|rotation|mic> <0-1000>",
		placeholder: "accel 10",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 2 {
				return mbituart.Message{}, errUsage
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return mbituart.Message{}, fmt.Errorf("invalid step %q", args[1])
			}
			switch strings.ToLower(args[0]) {
			case "magnetic", "compass", "f":
				return mbituart.NewMagneticForceRound(n)
			case "accel", "acceleration", "g":
				return mbituart.NewAccelerationRound(n)
			case "rotation", "r":
				return mbituart.NewRotationRound(n)
			case "mic", "microphone", "p":
				return mbituart.NewMicrophoneRound(n)
			}
			return mbituart.Message{}, fmt.Errorf("unknown sensor %q", args[0])
		},
	},
	{
		name:        "tone",
		title:       "Play tone",
		usage:       "<1|2|4|8|16> <low|mid|high> <do..si>",
		placeholder: "4 mid la",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 3 {
				return mbituart.Message{}, errUsage
			}
			length, err := strconv.Atoi(args[0])
			if err != nil {
				return mbituart.Message{}, fmt.Errorf("invalid length %q", args[0])
			}
			level, err := parseToneLevel(args[1])
			if err != nil {
				return mbituart.Message{}, err
			}
			note, err := mbituart.ParseNote(strings.ToLower(args[2]))
			if err != nil {
				return mbituart.Message{}, err
			}
			return mbituart.NewPlayTone(mbituart.NoteLength(length), level, note)
		},
	},
	{
		name:        "express",
		title:       "Play expression",
		usage:       "<" + strings.Join(mbituart.Expressions, "|") + ">",
		placeholder: "happy",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 1 {
				return mbituart.Message{}, errUsage
			}
			return mbituart.NewPlayExpression(strings.ToLower(args[0]))
		},
	},
	{
		name:        "pin-mode",
		title:       "Pin mode",
		usage:       "<0-2> <none|onoff|value>",
		placeholder: "0 onoff",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 2 {
				return mbituart.Message{}, errUsage
			}
			pin, err := strconv.Atoi(args[0])
			if err != nil {
				return mbituart.Message{}, fmt.Errorf("invalid pin %q", args[0])
			}
			mode, err := parsePinMode(args[1])
			if err != nil {
				return mbituart.Message{}, err
			}
			return mbituart.NewPinMode(pin, mode)
		},
	},
	{
		name:        "pin-write",
		title:       "Pin write",
		usage:       "<0-2> <0-1023>",
		placeholder: "1 512",
		build: func(args []string) (mbituart.Message, error) {
			if len(args) != 2 {
				return mbituart.Message{}, errUsage
			}
			pin, err := strconv.Atoi(args[0])
			if err != nil {
				return mbituart.Message{}, fmt.Errorf("invalid pin %q", args[0])
			}
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return mbituart.Message{}, fmt.Errorf("invalid value %q", args[1])
			}
			return mbituart.NewPinWrite(pin, value)
		},
	},
}

// findCommand looks up a command by name.
func findCommand(name string) (commandSpec, bool) {
	for _, c := range commandSpecs {
		if c.name == name {
			return c, true
		}
	}
	return commandSpec{}, false
}

// buildFromInput builds a message from a line of user input.
func (c commandSpec) buildFromInput(input string) (mbituart.Message, error) {
	input = strings.TrimSpace(input)
	var args []string
	switch {
	case input == "":
	case c.wholeLine:
		args = []string{input}
	default:
		args = strings.Fields(input)
	}
	msg, err := c.build(args)
	if errors.Is(err, errUsage) {
		return msg, fmt.Errorf("usage: %s %s", c.name, c.usage)
	}
	return msg, err
}

func parseToneLevel(s string) (mbituart.ToneLevel, error) {
	switch strings.ToLower(s) {
	case "low", "0":
		return mbituart.LevelLow, nil
	case "mid", "1":
		return mbituart.LevelMid, nil
	case "high", "2":
		return mbituart.LevelHigh, nil
	}
	return 0, fmt.Errorf("invalid tone level %q (use low, mid or high)", s)
}

func parsePinMode(s string) (mbituart.PinMode, error) {
	switch strings.ToLower(s) {
	case "none", "0":
		return mbituart.PinModeNone, nil
	case "onoff", "1":
		return mbituart.PinModeOnOff, nil
	case "value", "2":
		return mbituart.PinModeValue, nil
	}
	return 0, fmt.Errorf("invalid pin mode %q (use none, onoff or value)", s)
}
