// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import "testing"

func TestRegistry_Consistent(t *testing.T) {
	sels := Selectors()
	if len(sels) != 9 {
		t.Fatalf("registry holds %d selectors, want 9", len(sels))
	}

	seenName := make(map[string]Selector)
	for _, sel := range sels {
		layout, ok := LayoutFor(sel)
		if !ok {
			t.Fatalf("Selectors() returned unregistered selector 0x%02X", sel)
		}
		if layout.Selector != sel {
			t.Errorf("layout for 0x%02X carries selector 0x%02X", sel, layout.Selector)
		}
		if layout.Length < 0 || layout.Length > MaxPayload {
			t.Errorf("%s declares length %d outside 0..%d", layout.Name, layout.Length, MaxPayload)
		}
		if layout.decode == nil {
			t.Errorf("%s has no decode function", layout.Name)
		}
		if uint8(sel) > selectorMask {
			t.Errorf("selector 0x%02X does not fit the 5-bit field", sel)
		}
		if prev, dup := seenName[layout.Name]; dup {
			t.Errorf("name %q registered for both 0x%02X and 0x%02X", layout.Name, prev, sel)
		}
		seenName[layout.Name] = sel
	}
}

func TestRegistry_DeclaredLengths(t *testing.T) {
	tests := []struct {
		sel  Selector
		name string
		len  int
	}{
		{SelHeartbeat, "HEARTBEAT", 8},
		{SelStatus, "STATUS", 6},
		{SelBusMeas, "BUS_MEASUREMENT", 8},
		{SelVelocity, "VELOCITY_MEASUREMENT", 8},
		{SelTemperature, "TEMPERATURE_MEASUREMENT", 8},
		{SelDrive, "DRIVE_COMMAND", 8},
		{SelPower, "POWER_COMMAND", 8},
		{SelReset, "RESET_COMMAND", 0},
		{SelOdometer, "ODOMETER", 6},
	}

	for _, tt := range tests {
		layout, ok := LayoutFor(tt.sel)
		if !ok {
			t.Errorf("selector 0x%02X not registered", tt.sel)
			continue
		}
		if layout.Name != tt.name || layout.Length != tt.len {
			t.Errorf("selector 0x%02X = %s/%d, want %s/%d",
				tt.sel, layout.Name, layout.Length, tt.name, tt.len)
		}
	}
}

func TestRegistry_Unregistered(t *testing.T) {
	for sel := Selector(0x09); uint8(sel) <= selectorMask; sel++ {
		if Registered(sel) {
			t.Errorf("selector 0x%02X unexpectedly registered", sel)
		}
		if name := SelectorName(sel); name != "UNKNOWN" {
			t.Errorf("SelectorName(0x%02X) = %q, want UNKNOWN", sel, name)
		}
	}
}
