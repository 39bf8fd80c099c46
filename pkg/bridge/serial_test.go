// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"testing"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

func TestSLCAN_Encode(t *testing.T) {
	tests := []struct {
		name  string
		frame tritium.RawFrame
		want  string
	}{
		{
			name:  "extended data frame",
			frame: tritium.RawFrame{ID: 0x0A8000A0, Extended: true, Len: 2, Data: [8]byte{0xDE, 0xAD}},
			want:  "T0A8000A02DEAD\r",
		},
		{
			name:  "standard data frame",
			frame: tritium.RawFrame{ID: 0x123, Len: 3, Data: [8]byte{0x01, 0x02, 0x03}},
			want:  "t1233010203\r",
		},
		{
			name:  "empty payload",
			frame: tritium.RawFrame{ID: 0x7FF, Len: 0},
			want:  "t7FF0\r",
		},
		{
			name:  "extended remote request",
			frame: tritium.RawFrame{ID: 0x0A8000A0, Extended: true, Remote: true, Len: 8},
			want:  "R0A8000A08\r",
		},
		{
			name:  "standard remote request",
			frame: tritium.RawFrame{ID: 0x101, Remote: true, Len: 0},
			want:  "r1010\r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppendSLCAN(nil, &tt.frame)
			if err != nil {
				t.Fatalf("AppendSLCAN failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("AppendSLCAN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSLCAN_RoundTrip(t *testing.T) {
	frames := []tritium.RawFrame{
		{ID: tritium.ComposeID(0x05, tritium.SelHeartbeat), Extended: true, Len: 8,
			Data: [8]byte{0, 0, 0, 1, 0x01, 0xF4, 2, 0}},
		{ID: 0x1FFFFFFF, Extended: true, Len: 1, Data: [8]byte{0xFF}},
		{ID: 0x000, Len: 0},
		{ID: 0x456, Remote: true, Len: 4},
	}

	for _, f := range frames {
		line, err := AppendSLCAN(nil, &f)
		if err != nil {
			t.Fatalf("AppendSLCAN(%+v) failed: %v", f, err)
		}
		got, ok, err := ParseSLCAN(line[:len(line)-1]) // strip CR
		if err != nil || !ok {
			t.Fatalf("ParseSLCAN(%q) = (ok=%v, err=%v)", line, ok, err)
		}
		if got != f {
			t.Errorf("round trip %q:\n sent %+v\n got  %+v", line, f, got)
		}
	}
}

func TestSLCAN_ParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{"empty line", "", false},
		{"status report", "F00", false},
		{"command ack", "z", false},
		{"truncated id", "T0A80", true},
		{"dlc over eight", "T0A8000A09" + "000000000000000000", true},
		{"payload short of dlc", "T0A8000A04DEAD", true},
		{"bad hex in id", "tXYZ0", true},
		{"bad hex in payload", "t1231GG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ParseSLCAN([]byte(tt.line))
			if ok {
				t.Fatalf("ParseSLCAN(%q) claimed a frame", tt.line)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSLCAN(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestSLCANBitrate(t *testing.T) {
	if cmd, err := slcanBitrate(500); err != nil || cmd != "S6" {
		t.Errorf("slcanBitrate(500) = (%q, %v), want S6", cmd, err)
	}
	if _, err := slcanBitrate(333); err == nil {
		t.Error("slcanBitrate(333) accepted an unsupported rate")
	}
}
