// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeFrame_Dispatch_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		addr DeviceAddress
		msg  Message
	}{
		{"heartbeat", 0x05, Heartbeat{Sequence: 9, DataRate: 1000, ProtoRev: 1}},
		{"status", 0x21, Status{WarnFlags: WarnBusVoltageLow}},
		{"drive command", 0x40, DriveCommand{VelocityRPM: -500, CurrentFrac: 0.2}},
		{"reset, empty payload", 0x7F, ResetCommand{}},
		{"odometer", 0xFF, Odometer{DistanceM: 1000, ChargeAh: 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := EncodeFrame(tt.addr, tt.msg)
			if err != nil {
				t.Fatalf("EncodeFrame failed: %v", err)
			}
			if !f.Extended {
				t.Error("protocol frames must use extended identifiers")
			}

			d, ok, err := Dispatch(&f, now)
			if err != nil || !ok {
				t.Fatalf("Dispatch = (ok=%v, err=%v), want decoded", ok, err)
			}
			if d.Source != tt.addr {
				t.Errorf("source = 0x%02X, want 0x%02X", d.Source, tt.addr)
			}
			if d.Selector != tt.msg.Selector() {
				t.Errorf("selector = 0x%02X, want 0x%02X", d.Selector, tt.msg.Selector())
			}
			if d.Message != tt.msg {
				t.Errorf("message = %+v, want %+v", d.Message, tt.msg)
			}
			if !d.Time.Equal(now) {
				t.Errorf("time = %v, want %v", d.Time, now)
			}
		})
	}
}

func TestEncodeFrame_RejectsBadSetpoint(t *testing.T) {
	_, err := EncodeFrame(0x40, DriveCommand{VelocityRPM: 99999})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("EncodeFrame = %v, want ErrOutOfRange", err)
	}
}

func TestDispatch_SkipsNonProtocolTraffic(t *testing.T) {
	tests := []struct {
		name  string
		frame RawFrame
	}{
		{
			name:  "remote request",
			frame: RawFrame{ID: ComposeID(0x05, SelHeartbeat), Extended: true, Remote: true},
		},
		{
			name:  "foreign identifier base",
			frame: RawFrame{ID: 0x18FF50E5, Extended: true, Len: 8},
		},
		{
			name:  "standard identifier",
			frame: RawFrame{ID: 0x7E0, Len: 8},
		},
		{
			name:  "valid base, unregistered selector",
			frame: RawFrame{ID: IdentifierBase<<21 | 0x05<<AddressShift | 0x1E, Extended: true, Len: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := Dispatch(&tt.frame, time.Now())
			if err != nil {
				t.Fatalf("Dispatch returned error %v for not-for-us traffic", err)
			}
			if ok {
				t.Error("Dispatch decoded a frame it should have skipped")
			}
		})
	}
}

func TestDispatch_MalformedProtocolTraffic(t *testing.T) {
	tests := []struct {
		name  string
		frame RawFrame
		want  error
	}{
		{
			name:  "reserved identifier bits",
			frame: RawFrame{ID: ComposeID(0x05, SelStatus) | 1<<15, Extended: true, Len: 6},
			want:  ErrReservedBits,
		},
		{
			name:  "truncated status payload",
			frame: RawFrame{ID: ComposeID(0x05, SelStatus), Extended: true, Len: 4},
			want:  ErrTooShort,
		},
		{
			name: "out-of-range measurement",
			frame: func() RawFrame {
				f := RawFrame{ID: ComposeID(0x05, SelBusMeas), Extended: true, Len: 8}
				copy(f.Data[:], f32le(2000, 0))
				return f
			}(),
			want: ErrOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := Dispatch(&tt.frame, time.Now())
			if ok {
				t.Fatal("Dispatch decoded a malformed frame")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Dispatch error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRawFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   RawFrame
		wantErr bool
	}{
		{"valid extended", RawFrame{ID: MaxExtendedID, Extended: true, Len: 8}, false},
		{"valid standard", RawFrame{ID: MaxStandardID, Len: 0}, false},
		{"standard id too wide", RawFrame{ID: 0x800}, true},
		{"extended id too wide", RawFrame{ID: 0x20000000, Extended: true}, true},
		{"length over eight", RawFrame{ID: 1, Len: 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatDecoded(t *testing.T) {
	f, err := EncodeFrame(0x05, BusMeasurement{BusVoltage: 148.5, BusCurrent: -3})
	if err != nil {
		t.Fatal(err)
	}
	d, ok, err := Dispatch(&f, time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC))
	if err != nil || !ok {
		t.Fatalf("Dispatch = (ok=%v, err=%v)", ok, err)
	}

	out := FormatDecoded(&d)
	for _, want := range []string{"BUS_MEASUREMENT", "addr=0x05", "148.5 V", "-3.0 A"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRawFrame(t *testing.T) {
	f := RawFrame{ID: 0x0A8000A5, Extended: true, Len: 2, Data: [8]byte{0xDE, 0xAD}}
	out := FormatRawFrame(&f)
	for _, want := range []string{"0x0A8000A5", "ext", "len=2", "DE AD"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted frame missing %q: %s", want, out)
		}
	}
}
