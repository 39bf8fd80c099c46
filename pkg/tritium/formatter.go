// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"fmt"
	"strings"
)

// FormatDecoded renders a dispatched message the way the monitor commands
// print it: a timestamped header line plus one indented line per field.
func FormatDecoded(d *Decoded) string {
	ts := d.Time.Format("15:04:05.000")
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (0x%02X) addr=0x%02X\n",
		ts, SelectorName(d.Selector), uint8(d.Selector), uint8(d.Source))
	b.WriteString(formatFields(d.Message))
	return b.String()
}

func formatFields(m Message) string {
	switch v := m.(type) {
	case Heartbeat:
		return fmt.Sprintf("  Seq: %d  Rate: %d kbit/s  Rev: %d\n",
			v.Sequence, v.DataRate, v.ProtoRev)
	case Status:
		return fmt.Sprintf("  Faults: %s  Warnings: %s  Errors: %d\n",
			formatFaultFlags(v.FaultFlags), formatWarnFlags(v.WarnFlags), v.ErrorCount)
	case BusMeasurement:
		return fmt.Sprintf("  Bus: %.1f V  %.1f A\n", v.BusVoltage, v.BusCurrent)
	case VelocityMeasurement:
		return fmt.Sprintf("  Motor: %.0f RPM  Vehicle: %.1f m/s\n", v.MotorRPM, v.VehicleMS)
	case TemperatureMeasurement:
		return fmt.Sprintf("  Heatsink: %.1f°C  Motor: %.1f°C\n", v.HeatsinkC, v.MotorC)
	case DriveCommand:
		return fmt.Sprintf("  Velocity: %.0f RPM  Current: %.0f%%\n",
			v.VelocityRPM, v.CurrentFrac*100)
	case PowerCommand:
		return fmt.Sprintf("  Bus current limit: %.0f%%\n", v.BusCurrentFrac*100)
	case ResetCommand:
		return "  (no payload)\n"
	case Odometer:
		return fmt.Sprintf("  Distance: %.1f m  Charge: %.2f Ah\n", v.DistanceM, v.ChargeAh)
	default:
		return ""
	}
}

func formatFaultFlags(flags uint16) string {
	if flags == 0 {
		return "none"
	}
	names := []struct {
		bit  uint16
		name string
	}{
		{FaultOverVoltage, "OVER_VOLTAGE"},
		{FaultUnderVoltage, "UNDER_VOLTAGE"},
		{FaultOverCurrent, "OVER_CURRENT"},
		{FaultOverTemperature, "OVER_TEMP"},
		{FaultSensor, "SENSOR"},
		{FaultWatchdog, "WATCHDOG"},
	}
	parts := []string{}
	for _, n := range names {
		if flags&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := flags &^ (FaultOverVoltage | FaultUnderVoltage | FaultOverCurrent |
		FaultOverTemperature | FaultSensor | FaultWatchdog); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%04X", rest))
	}
	return strings.Join(parts, "|")
}

func formatWarnFlags(flags uint16) string {
	if flags == 0 {
		return "none"
	}
	names := []struct {
		bit  uint16
		name string
	}{
		{WarnBusVoltageLow, "BUS_LOW"},
		{WarnBusVoltageHigh, "BUS_HIGH"},
		{WarnTemperature, "TEMP"},
	}
	parts := []string{}
	for _, n := range names {
		if flags&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := flags &^ (WarnBusVoltageLow | WarnBusVoltageHigh | WarnTemperature); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%04X", rest))
	}
	return strings.Join(parts, "|")
}

// FormatRawFrame renders an undecoded frame as an identifier plus hex dump.
func FormatRawFrame(f *RawFrame) string {
	var hexView strings.Builder
	for i := 0; i < int(f.Len); i++ {
		if i > 0 {
			hexView.WriteByte(' ')
		}
		fmt.Fprintf(&hexView, "%02X", f.Data[i])
	}
	kind := "std"
	if f.Extended {
		kind = "ext"
	}
	if f.Remote {
		kind += " rtr"
	}
	return fmt.Sprintf("0x%08X [%s] len=%d  %-23s", f.ID, kind, f.Len, hexView.String())
}
