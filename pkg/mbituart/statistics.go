// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mbituart

import (
	"fmt"
	"sync"
	"time"
)

// Statistics tracks line and command counts and error rates
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Inbound
	TotalLines      uint64
	ValidLines      uint64
	UnknownTags     uint64
	UnknownSubtags  uint64
	MalformedNumber uint64
	MalformedHex    uint64
	ShortVectors    uint64
	Overflows       uint64

	// Outbound
	CommandsSent uint64
	SendErrors   uint64

	// Rates (calculated)
	LineRate  float64 // lines/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one inbound line and its validation result
func (s *Statistics) Update(validationErrors []ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalLines++
	s.LastUpdateTime = time.Now()

	if len(validationErrors) == 0 {
		s.ValidLines++
		return
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyUnknownTag, AnomalyEmpty:
			s.UnknownTags++
		case AnomalyUnknownSubtag:
			s.UnknownSubtags++
		case AnomalyMalformedNumber:
			s.MalformedNumber++
		case AnomalyMalformedHex:
			s.MalformedHex++
		case AnomalyShortVector:
			// still applied by the decoder
			s.ShortVectors++
			s.ValidLines++
		case AnomalyLineTooLong:
			s.Overflows++
		}
	}
}

// RecordOverflow counts a line the framer dropped for length
func (s *Statistics) RecordOverflow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalLines++
	s.Overflows++
	s.LastUpdateTime = time.Now()
}

// RecordSend counts an outbound command
func (s *Statistics) RecordSend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.SendErrors++
		return
	}
	s.CommandsSent++
}

func (s *Statistics) errorCount() uint64 {
	return s.UnknownTags + s.UnknownSubtags + s.MalformedNumber + s.MalformedHex + s.Overflows + s.SendErrors
}

// CalculateRates calculates line and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.LineRate = float64(s.TotalLines) / elapsed
		s.ErrorRate = float64(s.errorCount()) / elapsed
	}
}

// Rates recalculates and returns the line and error rates.
func (s *Statistics) Rates() (lineRate, errorRate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	return s.LineRate, s.ErrorRate
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()

	pct := func(n uint64) float64 {
		if s.TotalLines == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalLines)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Lines:     %8d\n", s.TotalLines)
	result += fmt.Sprintf("Valid Lines:     %8d (%.1f%%)\n", s.ValidLines, pct(s.ValidLines))

	if s.UnknownTags > 0 {
		result += fmt.Sprintf("Unknown Tags:    %8d (%.1f%%)\n", s.UnknownTags, pct(s.UnknownTags))
	}
	if s.UnknownSubtags > 0 {
		result += fmt.Sprintf("Unknown Subtags: %8d (%.1f%%)\n", s.UnknownSubtags, pct(s.UnknownSubtags))
	}
	if s.MalformedNumber > 0 {
		result += fmt.Sprintf("Bad Numbers:     %8d (%.1f%%)\n", s.MalformedNumber, pct(s.MalformedNumber))
	}
	if s.MalformedHex > 0 {
		result += fmt.Sprintf("Bad Hex:         %8d (%.1f%%)\n", s.MalformedHex, pct(s.MalformedHex))
	}
	if s.ShortVectors > 0 {
		result += fmt.Sprintf("Short Vectors:   %8d (%.1f%%)\n", s.ShortVectors, pct(s.ShortVectors))
	}
	if s.Overflows > 0 {
		result += fmt.Sprintf("Overlong Lines:  %8d (%.1f%%)\n", s.Overflows, pct(s.Overflows))
	}

	result += fmt.Sprintf("Commands Sent:   %8d\n", s.CommandsSent)
	if s.SendErrors > 0 {
		result += fmt.Sprintf("Send Errors:     %8d\n", s.SendErrors)
	}
	result += fmt.Sprintf("Line Rate:       %8.1f lines/sec\n", s.LineRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalLines = 0
	s.ValidLines = 0
	s.UnknownTags = 0
	s.UnknownSubtags = 0
	s.MalformedNumber = 0
	s.MalformedHex = 0
	s.ShortVectors = 0
	s.Overflows = 0
	s.CommandsSent = 0
	s.SendErrors = 0
	s.LineRate = 0
	s.ErrorRate = 0
}

// Counts returns a consistent copy of the main counters.
func (s *Statistics) Counts() StatisticsCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatisticsCounts{
		TotalLines:   s.TotalLines,
		ValidLines:   s.ValidLines,
		Rejected:     s.UnknownTags + s.UnknownSubtags + s.MalformedNumber + s.MalformedHex + s.Overflows,
		ShortVectors: s.ShortVectors,
		CommandsSent: s.CommandsSent,
		SendErrors:   s.SendErrors,
	}
}

// StatisticsCounts is a point-in-time copy of the main counters
type StatisticsCounts struct {
	TotalLines   uint64 `json:"total_lines"`
	ValidLines   uint64 `json:"valid_lines"`
	Rejected     uint64 `json:"rejected"`
	ShortVectors uint64 `json:"short_vectors"`
	CommandsSent uint64 `json:"commands_sent"`
	SendErrors   uint64 `json:"send_errors"`
}
