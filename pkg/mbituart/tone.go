// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import "fmt"

// NoteLength is a tone duration in sixteenths of the firmware's beat.
type NoteLength int

// Note length values
const (
	Length1  NoteLength = 1
	Length2  NoteLength = 2
	Length4  NoteLength = 4
	Length8  NoteLength = 8
	Length16 NoteLength = 16
)

// ToneLevel selects the octave.
type ToneLevel int

// Tone level values
const (
	LevelLow  ToneLevel = 0
	LevelMid  ToneLevel = 1
	LevelHigh ToneLevel = 2
)

// Note is a semitone index within an octave, Do = 0 through Si = 11.
type Note int

// Note values
const (
	NoteDo Note = iota
	NoteDoSharp
	NoteRe
	NoteReSharp
	NoteMi
	NoteFa
	NoteFaSharp
	NoteSo
	NoteSoSharp
	NoteLa
	NoteLaSharp
	NoteSi
)

// NotesPerOctave is the number of notes in each tone level.
const NotesPerOctave = 12

// toneTable holds frequencies in Hz per level and note.
var toneTable = [3][NotesPerOctave]int{
	{131, 139, 147, 156, 165, 175, 185, 196, 208, 220, 233, 247},
	{262, 277, 294, 311, 330, 349, 370, 392, 415, 440, 466, 498},
	{523, 554, 587, 622, 659, 698, 740, 784, 831, 880, 932, 988},
}

var noteNames = [NotesPerOctave]string{
	"do", "do#", "re", "re#", "mi", "fa", "fa#", "so", "so#", "la", "la#", "si",
}

// String returns the solfege name of the note.
func (n Note) String() string {
	if n < 0 || int(n) >= NotesPerOctave {
		return fmt.Sprintf("note(%d)", int(n))
	}
	return noteNames[n]
}

// ParseNote accepts a solfege name or a note index.
func ParseNote(s string) (Note, error) {
	for i, name := range noteNames {
		if s == name {
			return Note(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n < NotesPerOctave {
		return Note(n), nil
	}
	return 0, fmt.Errorf("%w: unknown note %q", ErrInvalidPayload, s)
}

// ToneFrequency returns the frequency for a level and note.
func ToneFrequency(level ToneLevel, note Note) (int, error) {
	if level < LevelLow || level > LevelHigh {
		return 0, fmt.Errorf("%w: tone level %d", ErrInvalidPayload, level)
	}
	if note < NoteDo || note > NoteSi {
		return 0, fmt.Errorf("%w: note %d", ErrInvalidPayload, note)
	}
	return toneTable[level][note], nil
}

// ToneCommand returns the command code for a note length.
func ToneCommand(length NoteLength) (Command, error) {
	switch length {
	case Length1:
		return CmdPlayTone1, nil
	case Length2:
		return CmdPlayTone2, nil
	case Length4:
		return CmdPlayTone4, nil
	case Length8:
		return CmdPlayTone8, nil
	case Length16:
		return CmdPlayTone16, nil
	default:
		return "", fmt.Errorf("%w: note length %d", ErrInvalidPayload, length)
	}
}

// Expressions lists the built-in sound expressions.
var Expressions = []string{
	"giggle",
	"happy",
	"hello",
	"mysterious",
	"sad",
	"slide",
	"soaring",
	"spring",
	"twinkle",
	"yawn",
}

// IsExpression reports whether name is a built-in expression.
func IsExpression(name string) bool {
	for _, e := range Expressions {
		if e == name {
			return true
		}
	}
	return false
}
