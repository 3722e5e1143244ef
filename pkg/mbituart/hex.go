// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"strconv"
)

// DecodeSignedHex16 parses exactly four hex digits as a two's-complement
// 16-bit value.
func DecodeSignedHex16(s string) (int32, error) {
	if len(s) != HexFieldWidth {
		return 0, fmt.Errorf("%w: hex field %q must be %d characters", ErrMalformedField, s, HexFieldWidth)
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return 0, fmt.Errorf("%w: hex field %q has non-hex character at %d", ErrMalformedField, s, i)
		}
	}

	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedField, err)
	}

	d := uint32(v)
	if d&0x8000 != 0 {
		d |= 0xFFFF0000
	}
	return int32(d), nil
}

// DecodeHexTriple splits s into up to three 4-character fields starting at
// offset 0. Characters past the third field and an incomplete trailing
// field are ignored.
func DecodeHexTriple(s string) ([]int32, error) {
	out := make([]int32, 0, 3)
	for i := 0; i < 3; i++ {
		start := i * HexFieldWidth
		end := start + HexFieldWidth
		if end > len(s) {
			break
		}
		v, err := DecodeSignedHex16(s[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeSignedHex16 renders v as four upper-case hex digits.
func EncodeSignedHex16(v int16) string {
	return fmt.Sprintf("%04X", uint16(v))
}

// EncodeHexTriple renders up to three axis values in wire form.
func EncodeHexTriple(values ...int16) string {
	s := ""
	for i, v := range values {
		if i == 3 {
			break
		}
		s += EncodeSignedHex16(v)
	}
	return s
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
