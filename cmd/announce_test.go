// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import "testing"

func TestParseMAC(t *testing.T) {
	want := [6]byte{0x02, 0x00, 0x5E, 0x10, 0x20, 0x30}
	for _, s := range []string{"02:00:5e:10:20:30", "02-00-5E-10-20-30", "02005e102030"} {
		got, err := parseMAC(s)
		if err != nil {
			t.Fatalf("parseMAC(%q) failed: %v", s, err)
		}
		if got != want {
			t.Errorf("parseMAC(%q) = %X, want %X", s, got, want)
		}
	}
}

func TestParseMAC_Rejects(t *testing.T) {
	for _, s := range []string{"", "02:00:5e:10:20", "02:00:5e:10:20:30:40", "gg:00:5e:10:20:30"} {
		if _, err := parseMAC(s); err == nil {
			t.Errorf("parseMAC(%q) accepted bad input", s)
		}
	}
}
