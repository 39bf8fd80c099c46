// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"encoding/binary"
	"fmt"
)

// Bridge datagram wire format. Every UDP packet (and every TCP send) is a
// 30-byte datagram: a 16-byte header carrying the protocol version, bus
// number and client identifier, followed by a 14-byte CAN frame section.
// Incoming TCP streams carry bare 14-byte frame sections.
//
// Header bit layout (MSB-first across the buffer):
//
//	bits   8..59   protocol version (52 bits)
//	bits  60..63   bus number
//	bits  72..127  client identifier (56 bits)
//
// Frame section byte layout:
//
//	[0:4]  CAN identifier, big-endian
//	[4]    flags
//	[5]    DLC
//	[6:14] data, zero-padded past DLC
const (
	HeaderLen       = 16
	FrameSectionLen = 14
	DatagramLen     = HeaderLen + FrameSectionLen
	FilterLen       = 24
)

// Flags is the datagram flags bitfield.
type Flags uint8

const (
	FlagExtended  Flags = 1 << 0
	FlagRemote    Flags = 1 << 1
	FlagSettings  Flags = 1 << 6
	FlagHeartbeat Flags = 1 << 7
)

// FlagsFor derives the wire flags for a frame.
func FlagsFor(f *RawFrame) Flags {
	var fl Flags
	if f.Extended {
		fl |= FlagExtended
	}
	if f.Remote {
		fl |= FlagRemote
	}
	return fl
}

// BusNumber selects one of up to 16 CAN buses behind a bridge.
type BusNumber uint8

// DefaultBusNumber is the bus a bridge reports when unconfigured.
const DefaultBusNumber BusNumber = 13

// NewBusNumber validates v against the 4-bit field width.
func NewBusNumber(v uint8) (BusNumber, error) {
	if v > 0xF {
		return 0, fmt.Errorf("tritium: bus number %d: %w", v, ErrBusNumber)
	}
	return BusNumber(v), nil
}

// Datagram is one decoded bridge packet.
type Datagram struct {
	Bus      BusNumber
	ClientID uint64 // 56-bit sender identity, zero for anonymous
	Flags    Flags
	Frame    RawFrame
}

// IsHeartbeat reports whether the datagram is a bridge liveness
// announcement rather than bus traffic.
func (d *Datagram) IsHeartbeat() bool { return d.Flags&FlagHeartbeat != 0 }

// Encode writes the 30-byte wire form into buf.
func (d *Datagram) Encode(buf []byte) error {
	if len(buf) < DatagramLen {
		return ErrShortBuffer
	}
	clear(buf[:DatagramLen])
	setBits(buf, 8, 59, ProtocolVersion)
	setBits(buf, 60, 63, uint64(d.Bus))
	setBits(buf, 72, 127, d.ClientID)
	encodeFrameSection(buf[HeaderLen:DatagramLen], d.Flags, &d.Frame)
	return nil
}

// MarshalBinary returns the 30-byte wire form. Prefer Encode with a reused
// buffer on hot paths.
func (d *Datagram) MarshalBinary() ([]byte, error) {
	buf := make([]byte, DatagramLen)
	if err := d.Encode(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeDatagram parses a 30-byte bridge packet. Datagrams from a different
// protocol version fail with ErrBadVersion; nothing past the first 30 bytes
// is examined.
func DecodeDatagram(buf []byte) (Datagram, error) {
	if len(buf) < DatagramLen {
		return Datagram{}, fmt.Errorf("tritium: datagram %d bytes (need %d): %w",
			len(buf), DatagramLen, ErrTooShort)
	}
	if getBits(buf, 8, 59) != ProtocolVersion {
		return Datagram{}, ErrBadVersion
	}
	d := Datagram{
		Bus:      BusNumber(getBits(buf, 60, 63)),
		ClientID: getBits(buf, 72, 127),
	}
	var err error
	d.Flags, d.Frame, err = decodeFrameSection(buf[HeaderLen:DatagramLen])
	return d, err
}

// NewDatagram wraps a CAN frame for transmission on the given bus.
func NewDatagram(bus BusNumber, clientID uint64, f RawFrame) Datagram {
	return Datagram{Bus: bus, ClientID: clientID, Flags: FlagsFor(&f), Frame: f}
}

// NewBridgeHeartbeat builds the periodic bridge announcement: the heartbeat
// flag with a payload of the bus data rate (kbit/s, big-endian) followed by
// the bridge's MAC address.
func NewBridgeHeartbeat(mac [6]byte, bus BusNumber, dataRate uint16) Datagram {
	var f RawFrame
	f.Len = 8
	binary.BigEndian.PutUint16(f.Data[0:2], dataRate)
	copy(f.Data[2:8], mac[:])
	return Datagram{Bus: bus, Flags: FlagHeartbeat, Frame: f}
}

// EncodeFrameSection writes the bare 14-byte frame section (the TCP stream
// element) into buf.
func EncodeFrameSection(buf []byte, f *RawFrame) error {
	if len(buf) < FrameSectionLen {
		return ErrShortBuffer
	}
	if err := f.Validate(); err != nil {
		return err
	}
	encodeFrameSection(buf[:FrameSectionLen], FlagsFor(f), f)
	return nil
}

// DecodeFrameSection parses a bare 14-byte frame section.
func DecodeFrameSection(buf []byte) (RawFrame, error) {
	if len(buf) < FrameSectionLen {
		return RawFrame{}, fmt.Errorf("tritium: frame section %d bytes (need %d): %w",
			len(buf), FrameSectionLen, ErrTooShort)
	}
	_, f, err := decodeFrameSection(buf[:FrameSectionLen])
	return f, err
}

func encodeFrameSection(buf []byte, fl Flags, f *RawFrame) {
	clear(buf[:FrameSectionLen])
	binary.BigEndian.PutUint32(buf[0:4], f.ID)
	buf[4] = byte(fl)
	buf[5] = f.Len
	copy(buf[6:14], f.Data[:])
}

func decodeFrameSection(buf []byte) (Flags, RawFrame, error) {
	fl := Flags(buf[4])
	f := RawFrame{
		ID:       binary.BigEndian.Uint32(buf[0:4]),
		Extended: fl&FlagExtended != 0,
		Remote:   fl&FlagRemote != 0,
		Len:      buf[5],
	}
	copy(f.Data[:], buf[6:14])
	if f.Len > MaxPayload {
		return 0, RawFrame{}, fmt.Errorf("tritium: frame DLC %d exceeds %d", f.Len, MaxPayload)
	}
	return fl, f, nil
}

// Filter is the settings datagram a TCP client writes on connect to select
// which identifiers the bridge forwards. FwdRange is the count of
// consecutive identifiers starting at FwdIdentifier.
type Filter struct {
	FwdIdentifier uint32
	FwdRange      uint32
	Bus           BusNumber
	ClientID      uint64
}

// Encode writes the 24-byte filter setup packet into buf.
func (f *Filter) Encode(buf []byte) error {
	if len(buf) < FilterLen {
		return ErrShortBuffer
	}
	clear(buf[:FilterLen])
	binary.BigEndian.PutUint32(buf[0:4], f.FwdIdentifier)
	binary.BigEndian.PutUint32(buf[4:8], f.FwdRange)
	buf[8] = byte(f.Bus)
	setBits(buf, 72, 123, ProtocolVersion)
	setBits(buf, 132, 187, f.ClientID)
	return nil
}

// DecodeFilter parses a 24-byte filter setup packet.
func DecodeFilter(buf []byte) (Filter, error) {
	if len(buf) < FilterLen {
		return Filter{}, fmt.Errorf("tritium: filter packet %d bytes (need %d): %w",
			len(buf), FilterLen, ErrTooShort)
	}
	if getBits(buf, 72, 123) != ProtocolVersion {
		return Filter{}, ErrBadVersion
	}
	return Filter{
		FwdIdentifier: binary.BigEndian.Uint32(buf[0:4]),
		FwdRange:      binary.BigEndian.Uint32(buf[4:8]),
		Bus:           BusNumber(buf[8]),
		ClientID:      getBits(buf, 132, 187),
	}, nil
}

// HeartbeatInfo is the decoded payload of a bridge heartbeat.
type HeartbeatInfo struct {
	DataRate uint16 // kbit/s
	MAC      [6]byte
}

// BridgeHeartbeatInfo extracts the data rate and MAC from a heartbeat
// datagram.
func BridgeHeartbeatInfo(d *Datagram) (HeartbeatInfo, error) {
	if !d.IsHeartbeat() {
		return HeartbeatInfo{}, fmt.Errorf("tritium: not a heartbeat datagram (flags 0x%02X)", byte(d.Flags))
	}
	if d.Frame.Len < 8 {
		return HeartbeatInfo{}, fmt.Errorf("tritium: heartbeat payload %d bytes (need 8): %w",
			d.Frame.Len, ErrTooShort)
	}
	var info HeartbeatInfo
	info.DataRate = binary.BigEndian.Uint16(d.Frame.Data[0:2])
	copy(info.MAC[:], d.Frame.Data[2:8])
	return info, nil
}
