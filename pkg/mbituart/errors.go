// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import "errors"

var (
	// ErrMalformedField is returned when a numeric or hex field fails to parse.
	ErrMalformedField = errors.New("malformed field")

	// ErrUnknownTag is returned for lines whose tag or subtag is not part of the protocol.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrUnknownCommand is returned when encoding a command code outside the fixed set.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidPayload is returned when a command argument is out of range.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrLineTooLong is returned by the framer when a line exceeds MaxLineLength.
	ErrLineTooLong = errors.New("line too long")
)
