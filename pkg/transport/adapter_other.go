// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package transport

import "tinygo.org/x/bluetooth"

// Custom adapter IDs are only supported on Linux.
func resolveAdapter(_ string) *bluetooth.Adapter {
	return bluetooth.DefaultAdapter
}
