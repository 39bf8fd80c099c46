// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame counters and error rates for a monitoring session
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames      uint64
	DecodedFrames    uint64
	ForeignFrames    uint64
	UnknownSelectors uint64
	RemoteRequests   uint64
	ReservedBitsSet  uint64
	ShortPayloads    uint64
	OutOfRange       uint64

	// Per-selector counts of decoded frames.
	BySelector [selectorMask + 1]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
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

// Update records the outcome of one Dispatch call.
func (s *Statistics) Update(f Frame, d Decoded, ok bool, err error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if err != nil {
		switch {
		case errors.Is(err, ErrReservedBits):
			s.ReservedBitsSet++
		case errors.Is(err, ErrTooShort):
			s.ShortPayloads++
		case errors.Is(err, ErrOutOfRange):
			s.OutOfRange++
		}
		return
	}

	if !ok {
		switch {
		case f.IsRemoteRequest():
			s.RemoteRequests++
		case errors.Is(checkSelector(f.Identifier()), ErrUnknownSelector):
			s.UnknownSelectors++
		default:
			s.ForeignFrames++
		}
		return
	}

	s.DecodedFrames++
	s.BySelector[d.Selector&selectorMask]++
}

func checkSelector(id uint32) error {
	_, _, err := DecomposeID(id)
	return err
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.ReservedBitsSet + s.ShortPayloads + s.OutOfRange
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var decodedPercent float64
	if s.TotalFrames > 0 {
		decodedPercent = float64(s.DecodedFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Decoded:         %8d (%.1f%%)\n", s.DecodedFrames, decodedPercent)

	if s.ForeignFrames > 0 {
		result += fmt.Sprintf("Foreign Frames:  %8d\n", s.ForeignFrames)
	}
	if s.RemoteRequests > 0 {
		result += fmt.Sprintf("Remote Requests: %8d\n", s.RemoteRequests)
	}
	if s.UnknownSelectors > 0 {
		result += fmt.Sprintf("Unknown Selector:%8d\n", s.UnknownSelectors)
	}
	if s.ReservedBitsSet > 0 {
		result += fmt.Sprintf("Reserved Bits:   %8d\n", s.ReservedBitsSet)
	}
	if s.ShortPayloads > 0 {
		result += fmt.Sprintf("Short Payloads:  %8d\n", s.ShortPayloads)
	}
	if s.OutOfRange > 0 {
		result += fmt.Sprintf("Out Of Range:    %8d\n", s.OutOfRange)
	}

	for _, sel := range Selectors() {
		if n := s.BySelector[sel&selectorMask]; n > 0 {
			result += fmt.Sprintf("  %-23s %6d\n", SelectorName(sel)+":", n)
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{StartTime: now, LastUpdateTime: now}
}
