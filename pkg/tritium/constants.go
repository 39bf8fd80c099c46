// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import "time"

// Bridge network constants
const (
	// BroadcastGroup is the multicast group bridges announce on.
	BroadcastGroup = "239.255.60.60"
	// Port is the IANA-assigned Tritium CAN port.
	Port = 4876
	// ProtocolVersion is the 52-bit version magic carried in every
	// datagram header ("Tritium" truncated to 52 bits).
	ProtocolVersion uint64 = 0x5472697469756
	// HeartbeatInterval is how often a bridge announces itself.
	HeartbeatInterval = time.Second
)

// Identifier field layout. A protocol identifier is always a 29-bit extended
// CAN identifier:
//
//	bits 28..21  protocol base (IdentifierBase)
//	bits 20..13  reserved, must be zero
//	bits 12..5   device address
//	bits  4..0   message selector
const (
	// IdentifierBase marks an extended identifier as belonging to this
	// protocol.
	IdentifierBase = 0x54

	// MaxExtendedID is the largest 29-bit CAN identifier.
	MaxExtendedID = 0x1FFFFFFF
	// MaxStandardID is the largest 11-bit CAN identifier.
	MaxStandardID = 0x7FF

	baseShift    = 21
	reservedMask = 0xFF << 13
	// AddressShift is the bit offset of the device address field.
	AddressShift = 5
	addressMask  = 0xFF
	selectorMask = 0x1F
)

// Message selectors. Every selector maps to exactly one payload layout; the
// set is closed and new kinds require a registry update.
const (
	SelHeartbeat   Selector = 0x00
	SelStatus      Selector = 0x01
	SelBusMeas     Selector = 0x02
	SelVelocity    Selector = 0x03
	SelTemperature Selector = 0x04
	SelDrive       Selector = 0x05
	SelPower       Selector = 0x06
	SelReset       Selector = 0x07
	SelOdometer    Selector = 0x08
)

// Payload lengths in bytes, per selector.
const (
	LenHeartbeat   = 8
	LenStatus      = 6
	LenBusMeas     = 8
	LenVelocity    = 8
	LenTemperature = 8
	LenDrive       = 8
	LenPower       = 8
	LenReset       = 0
	LenOdometer    = 6
)

// MaxPayload is the classical CAN frame data limit.
const MaxPayload = 8

// Status fault flag bits.
const (
	FaultOverVoltage     uint16 = 1 << 0
	FaultUnderVoltage    uint16 = 1 << 1
	FaultOverCurrent     uint16 = 1 << 2
	FaultOverTemperature uint16 = 1 << 3
	FaultSensor          uint16 = 1 << 4
	FaultWatchdog        uint16 = 1 << 5
)

// Status warning flag bits.
const (
	WarnBusVoltageLow  uint16 = 1 << 0
	WarnBusVoltageHigh uint16 = 1 << 1
	WarnTemperature    uint16 = 1 << 2
)

// Physically meaningful ranges. Decode reports violations through
// RangeError; it never clamps. Encode rejects the same ranges so an
// out-of-range setpoint can not silently reach the bus.
const (
	MinBusVoltage = 0.0
	MaxBusVoltage = 900.0

	MaxBusCurrent = 400.0 // amps, symmetric

	MaxMotorRPM = 20000.0 // symmetric

	MaxVehicleMS = 150.0 // metres per second, symmetric

	MinTemperature = -50.0
	MaxTemperature = 250.0
)

// Fixed-point scale factors for the odometer layout.
const (
	OdometerDistanceScale = 0.1  // metres per bit
	OdometerChargeScale   = 0.01 // amp-hours per bit
)
