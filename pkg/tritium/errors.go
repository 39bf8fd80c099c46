// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"errors"
	"fmt"
)

// Error sentinels. Decode paths always return one of these (possibly
// wrapped); malformed bus input is never a panic, since a shared bus
// routinely carries frames from other device roles and firmware versions.
var (
	// ErrForeignIdentifier marks an identifier whose base bits do not
	// match this protocol. Dispatch treats such frames as not-for-us.
	ErrForeignIdentifier = errors.New("tritium: identifier outside protocol base")

	// ErrReservedBits marks an identifier with reserved bits set.
	ErrReservedBits = errors.New("tritium: reserved identifier bits set")

	// ErrUnknownSelector marks a selector with no registered layout.
	ErrUnknownSelector = errors.New("tritium: unknown message selector")

	// ErrTooShort marks a payload shorter than its layout requires.
	ErrTooShort = errors.New("tritium: payload too short")

	// ErrOutOfRange marks a field value outside its protocol range.
	ErrOutOfRange = errors.New("tritium: value outside protocol range")

	// ErrShortBuffer marks an encode destination smaller than the layout.
	ErrShortBuffer = errors.New("tritium: destination buffer too small")

	// ErrBadVersion marks a bridge datagram with the wrong version magic.
	ErrBadVersion = errors.New("tritium: datagram protocol version mismatch")

	// ErrBusNumber marks a bus number outside 0..15.
	ErrBusNumber = errors.New("tritium: bus number out of range")
)

// LengthError reports a payload that is too short for its selector's layout.
type LengthError struct {
	Selector Selector
	Got      int
	Need     int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("tritium: %s payload too short: %d bytes (need %d)",
		SelectorName(e.Selector), e.Got, e.Need)
}

func (e *LengthError) Unwrap() error { return ErrTooShort }

// RangeError reports a decoded or to-be-encoded value outside the
// physically meaningful range the protocol defines for its field. The caller
// decides recovery; the codec neither clamps nor saturates.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("tritium: %s=%g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// inRange reports whether v lies in [min, max]. Written so NaN fails.
func inRange(v, min, max float64) bool {
	return v >= min && v <= max
}

// checkRange returns a RangeError unless v lies in [min, max].
func checkRange(field string, v, min, max float64) error {
	if !inRange(v, min, max) {
		return &RangeError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}
