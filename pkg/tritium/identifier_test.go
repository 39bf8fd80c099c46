// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"errors"
	"testing"
)

func TestComposeID_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		addr DeviceAddress
		sel  Selector
		want uint32
	}{
		{
			name: "heartbeat from address 0x05",
			addr: 0x05,
			sel:  SelHeartbeat,
			want: IdentifierBase<<21 | 0x05<<AddressShift | uint32(SelHeartbeat),
		},
		{
			name: "address zero, selector zero",
			addr: 0x00,
			sel:  SelHeartbeat,
			want: 0x0A800000,
		},
		{
			name: "drive command to address 0x20",
			addr: 0x20,
			sel:  SelDrive,
			want: 0x0A800000 | 0x20<<5 | 0x05,
		},
		{
			name: "highest address, highest selector",
			addr: 0xFF,
			sel:  SelOdometer,
			want: 0x0A800000 | 0xFF<<5 | 0x08,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeID(tt.addr, tt.sel)
			if got != tt.want {
				t.Errorf("ComposeID(0x%02X, 0x%02X) = 0x%08X, want 0x%08X",
					tt.addr, tt.sel, got, tt.want)
			}
			if got > MaxExtendedID {
				t.Errorf("identifier 0x%08X exceeds 29 bits", got)
			}
		})
	}
}

func TestDecomposeID_RoundTrip(t *testing.T) {
	// Every address paired with every registered selector must survive a
	// compose/decompose round trip.
	for addr := 0; addr <= 0xFF; addr++ {
		for _, sel := range Selectors() {
			id := ComposeID(DeviceAddress(addr), sel)
			gotAddr, gotSel, err := DecomposeID(id)
			if err != nil {
				t.Fatalf("DecomposeID(ComposeID(0x%02X, 0x%02X)) failed: %v", addr, sel, err)
			}
			if gotAddr != DeviceAddress(addr) || gotSel != sel {
				t.Fatalf("round trip (0x%02X, 0x%02X) -> (0x%02X, 0x%02X)",
					addr, sel, gotAddr, gotSel)
			}
		}
	}
}

func TestDecomposeID_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   uint32
		want error
	}{
		{
			name: "foreign base",
			id:   0x18FF50E5, // J1939 traffic shares the bus
			want: ErrForeignIdentifier,
		},
		{
			name: "standard-width identifier",
			id:   0x123,
			want: ErrForeignIdentifier,
		},
		{
			name: "identifier wider than 29 bits",
			id:   0x20000000 | ComposeID(0x05, SelStatus),
			want: ErrForeignIdentifier,
		},
		{
			name: "reserved bit set",
			id:   ComposeID(0x05, SelStatus) | 1<<13,
			want: ErrReservedBits,
		},
		{
			name: "all reserved bits set",
			id:   ComposeID(0x05, SelStatus) | reservedMask,
			want: ErrReservedBits,
		},
		{
			name: "unregistered selector",
			id:   IdentifierBase<<21 | 0x05<<AddressShift | 0x1F,
			want: ErrUnknownSelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecomposeID(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecomposeID(0x%08X) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestDecomposeID_DistinctPairsDistinctIDs(t *testing.T) {
	seen := make(map[uint32]string)
	for addr := 0; addr <= 0xFF; addr++ {
		for _, sel := range Selectors() {
			id := ComposeID(DeviceAddress(addr), sel)
			key := SelectorName(sel)
			if prev, dup := seen[id]; dup {
				t.Fatalf("identifier 0x%08X produced by both %s and (0x%02X, %s)",
					id, prev, addr, key)
			}
			seen[id] = key
		}
	}
}
