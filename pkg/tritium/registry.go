// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

// Layout describes the wire layout registered for one selector. The
// registry is the single source of truth binding selectors to payload
// layouts; dispatch resolves a Layout before interpreting any bytes.
type Layout struct {
	Selector Selector
	Name     string
	Length   int // required payload bytes, <= MaxPayload

	decode func([]byte) (Message, error)
}

var layouts = [...]Layout{
	{SelHeartbeat, "HEARTBEAT", LenHeartbeat, decodeHeartbeat},
	{SelStatus, "STATUS", LenStatus, decodeStatus},
	{SelBusMeas, "BUS_MEASUREMENT", LenBusMeas, decodeBusMeasurement},
	{SelVelocity, "VELOCITY_MEASUREMENT", LenVelocity, decodeVelocityMeasurement},
	{SelTemperature, "TEMPERATURE_MEASUREMENT", LenTemperature, decodeTemperatureMeasurement},
	{SelDrive, "DRIVE_COMMAND", LenDrive, decodeDriveCommand},
	{SelPower, "POWER_COMMAND", LenPower, decodePowerCommand},
	{SelReset, "RESET_COMMAND", LenReset, decodeResetCommand},
	{SelOdometer, "ODOMETER", LenOdometer, decodeOdometer},
}

// LayoutFor returns the layout registered for sel.
func LayoutFor(sel Selector) (Layout, bool) {
	for _, l := range layouts {
		if l.Selector == sel {
			return l, true
		}
	}
	return Layout{}, false
}

// Registered reports whether sel has a registered layout.
func Registered(sel Selector) bool {
	_, ok := LayoutFor(sel)
	return ok
}

// Selectors returns every registered selector in registry order.
func Selectors() []Selector {
	out := make([]Selector, len(layouts))
	for i, l := range layouts {
		out[i] = l.Selector
	}
	return out
}

// SelectorName returns the registry name for sel, or "UNKNOWN".
func SelectorName(sel Selector) string {
	if l, ok := LayoutFor(sel); ok {
		return l.Name
	}
	return "UNKNOWN"
}
