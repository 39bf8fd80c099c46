// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

// Package capture reads and writes bus capture files: a stream of
// CBOR-encoded frame records, one per received frame. The format is
// self-delimiting, so a truncated capture loses at most its final record.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// encMode is the CBOR encoder mode for capture records.
// Deterministic encoding with nanosecond-precision timestamps.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for capture records.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// Record is one captured frame. Integer keys keep records compact.
type Record struct {
	Time     time.Time `cbor:"1,keyasint"`
	Bus      uint8     `cbor:"2,keyasint"`
	ID       uint32    `cbor:"3,keyasint"`
	Extended bool      `cbor:"4,keyasint"`
	Remote   bool      `cbor:"5,keyasint,omitempty"`
	Data     []byte    `cbor:"6,keyasint"`
}

// NewRecord snapshots a frame at the given receive time.
func NewRecord(t time.Time, bus tritium.BusNumber, f *tritium.RawFrame) Record {
	data := make([]byte, f.Len)
	copy(data, f.Data[:f.Len])
	return Record{
		Time:     t,
		Bus:      uint8(bus),
		ID:       f.ID,
		Extended: f.Extended,
		Remote:   f.Remote,
		Data:     data,
	}
}

// Frame rebuilds the captured frame.
func (r *Record) Frame() (tritium.RawFrame, error) {
	if len(r.Data) > tritium.MaxPayload {
		return tritium.RawFrame{}, fmt.Errorf("capture: record carries %d data bytes", len(r.Data))
	}
	f := tritium.RawFrame{
		ID:       r.ID,
		Extended: r.Extended,
		Remote:   r.Remote,
		Len:      uint8(len(r.Data)),
	}
	copy(f.Data[:], r.Data)
	return f, f.Validate()
}

// Writer appends records to a capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter wraps w. The caller retains ownership of w and closes it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	return w.enc.Encode(rec)
}

// WriteFrame snapshots and appends a frame in one step.
func (w *Writer) WriteFrame(t time.Time, bus tritium.BusNumber, f *tritium.RawFrame) error {
	return w.Write(NewRecord(t, bus, f))
}

// Reader iterates the records of a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream. A
// record cut off mid-bytes also reads as io.EOF.
func (r *Reader) Next() (Record, error) {
	var rec Record
	err := r.dec.Decode(&rec)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return Record{}, io.EOF
	}
	return rec, err
}
