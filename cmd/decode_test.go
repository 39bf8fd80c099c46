// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"encoding/hex"
	"testing"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

func TestParseFrameArg(t *testing.T) {
	want, err := tritium.EncodeFrame(0x05, tritium.Heartbeat{Sequence: 1, DataRate: 500, ProtoRev: 2})
	if err != nil {
		t.Fatal(err)
	}

	var section [tritium.FrameSectionLen]byte
	if err := tritium.EncodeFrameSection(section[:], &want); err != nil {
		t.Fatal(err)
	}
	d := tritium.NewDatagram(13, 0, want)
	datagram, err := d.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		arg  string
	}{
		{"id#data form", "0A8000A0#0000000101F40200"},
		{"frame section hex", hex.EncodeToString(section[:])},
		{"datagram hex", hex.EncodeToString(datagram)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFrameArg(tt.arg)
			if err != nil {
				t.Fatalf("parseFrameArg(%q) failed: %v", tt.arg, err)
			}
			if got != want {
				t.Errorf("parseFrameArg(%q) = %+v, want %+v", tt.arg, got, want)
			}
		})
	}
}

func TestParseFrameArg_Rejects(t *testing.T) {
	args := []string{
		"",                    // empty
		"zz#00",               // bad id hex
		"123456789#00",        // id too wide
		"0A8000A0#0102030405060708FF", // nine payload bytes
		"DEADBEEF",            // neither section nor datagram length
	}
	for _, arg := range args {
		if _, err := parseFrameArg(arg); err == nil {
			t.Errorf("parseFrameArg(%q) accepted bad input", arg)
		}
	}
}
