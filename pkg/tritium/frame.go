// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"errors"
	"fmt"
	"time"
)

// Frame is the capability the core needs from an inbound CAN frame. Any
// transport value exposing these four accessors can be dispatched; the core
// holds no concrete transport type and never retains a Frame past the call
// that decodes it.
type Frame interface {
	Identifier() uint32
	Payload() []byte
	Length() int
	IsRemoteRequest() bool
}

// FrameBuilder is the outbound counterpart: a transport capability that
// turns an identifier plus payload bytes into a transport-specific frame.
type FrameBuilder interface {
	NewFrame(id uint32, payload []byte) (Frame, error)
}

// RawFrame is the package's own classical CAN frame value. Transports are
// free to use it directly or to supply their own Frame implementation.
type RawFrame struct {
	ID       uint32 // 11-bit standard or 29-bit extended
	Extended bool
	Remote   bool
	Len      uint8 // 0..8
	Data     [8]byte
}

func (f *RawFrame) Identifier() uint32    { return f.ID }
func (f *RawFrame) Payload() []byte       { return f.Data[:f.Len] }
func (f *RawFrame) Length() int           { return int(f.Len) }
func (f *RawFrame) IsRemoteRequest() bool { return f.Remote }

// Validate returns an error if the frame's identifier or length exceed the
// classical CAN limits.
func (f *RawFrame) Validate() error {
	if f.Len > MaxPayload {
		return fmt.Errorf("tritium: frame length %d exceeds %d bytes", f.Len, MaxPayload)
	}
	limit := uint32(MaxStandardID)
	if f.Extended {
		limit = MaxExtendedID
	}
	if f.ID > limit {
		return fmt.Errorf("tritium: identifier 0x%X does not fit", f.ID)
	}
	return nil
}

// NewRawFrame builds an extended-identifier data frame from id and payload.
func NewRawFrame(id uint32, payload []byte) (RawFrame, error) {
	if len(payload) > MaxPayload {
		return RawFrame{}, fmt.Errorf("tritium: payload %d exceeds %d bytes", len(payload), MaxPayload)
	}
	f := RawFrame{ID: id, Extended: true, Len: uint8(len(payload))}
	copy(f.Data[:], payload)
	return f, f.Validate()
}

// EncodeFrame encodes msg addressed from (or to) addr into a ready-to-send
// frame. The payload is written directly into the frame's fixed buffer.
func EncodeFrame(addr DeviceAddress, msg Message) (RawFrame, error) {
	f := RawFrame{ID: ComposeID(addr, msg.Selector()), Extended: true}
	n, err := msg.MarshalPayload(f.Data[:])
	if err != nil {
		return RawFrame{}, err
	}
	f.Len = uint8(n)
	return f, nil
}

// Decoded is one dispatched inbound message together with its addressing
// metadata. Time is the caller-supplied receive timestamp, so bus-level
// state machines (liveness tracking and the like) can be built above this
// layer.
type Decoded struct {
	Source   DeviceAddress
	Selector Selector
	Message  Message
	Time     time.Time
}

// Dispatch decodes one inbound frame.
//
// Frames that simply are not for this protocol — a foreign identifier base,
// a valid-but-unregistered selector, or a remote request — return ok=false
// with a nil error, because a shared bus carries traffic for other device
// roles. A non-nil error means the frame claimed to be protocol traffic but
// was malformed (reserved bits set, payload too short, value out of range).
func Dispatch(f Frame, now time.Time) (Decoded, bool, error) {
	if f.IsRemoteRequest() {
		return Decoded{}, false, nil
	}
	addr, sel, err := DecomposeID(f.Identifier())
	if err != nil {
		if errors.Is(err, ErrForeignIdentifier) || errors.Is(err, ErrUnknownSelector) {
			return Decoded{}, false, nil
		}
		return Decoded{}, false, err
	}
	payload := f.Payload()
	if n := f.Length(); n < len(payload) {
		payload = payload[:n]
	}
	msg, err := DecodeMessage(sel, payload)
	if err != nil {
		return Decoded{}, false, err
	}
	return Decoded{Source: addr, Selector: sel, Message: msg, Time: now}, true, nil
}
