// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import "fmt"

// DeviceAddress names a node on the bus. Addresses are assigned by external
// provisioning (configuration or build-time constants); the protocol defines
// no on-bus address claim.
type DeviceAddress uint8

// Selector identifies the semantic kind of a message within a device's
// address space. Valid selectors occupy 5 bits.
type Selector uint8

// ComposeID packs a device address and selector into a 29-bit extended CAN
// identifier. It is a pure bit-packing operation and is total for every
// address and every 5-bit selector.
func ComposeID(addr DeviceAddress, sel Selector) uint32 {
	return IdentifierBase<<baseShift |
		uint32(addr)<<AddressShift |
		uint32(sel)&selectorMask
}

// DecomposeID splits a 29-bit identifier back into its device address and
// selector. It fails with ErrForeignIdentifier when the base bits do not
// match this protocol, ErrReservedBits when any reserved bit is set, and
// ErrUnknownSelector when the selector field has no registered layout.
//
// DecomposeID(ComposeID(a, s)) == (a, s) for every valid pair.
func DecomposeID(id uint32) (DeviceAddress, Selector, error) {
	if id > MaxExtendedID || id>>baseShift != IdentifierBase {
		return 0, 0, fmt.Errorf("tritium: id 0x%08X: %w", id, ErrForeignIdentifier)
	}
	if id&reservedMask != 0 {
		return 0, 0, fmt.Errorf("tritium: id 0x%08X: %w", id, ErrReservedBits)
	}
	addr := DeviceAddress(id >> AddressShift & addressMask)
	sel := Selector(id & selectorMask)
	if !Registered(sel) {
		return 0, 0, fmt.Errorf("tritium: id 0x%08X selector 0x%02X: %w", id, uint8(sel), ErrUnknownSelector)
	}
	return addr, sel, nil
}
