// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"encoding/binary"
	"math"
)

// Message is one decoded protocol message. The set of implementations is
// closed and keyed by Selector; see the registry for the full table.
//
// MarshalPayload writes the wire form into buf (which must hold at least the
// layout's declared length) and returns the number of bytes written. It
// never allocates; out-of-range field values are reported, not clamped.
type Message interface {
	Selector() Selector
	MarshalPayload(buf []byte) (int, error)
}

// DecodeMessage decodes payload against the layout registered for sel.
// Payloads shorter than the layout's length fail with ErrTooShort; trailing
// bytes past the declared length are ignored, since bridges may pad data
// frames to the full 8 bytes. Each call produces an independent value.
func DecodeMessage(sel Selector, payload []byte) (Message, error) {
	layout, ok := LayoutFor(sel)
	if !ok {
		return nil, ErrUnknownSelector
	}
	if len(payload) < layout.Length {
		return nil, &LengthError{Selector: sel, Got: len(payload), Need: layout.Length}
	}
	return layout.decode(payload[:layout.Length])
}

// Heartbeat is the periodic liveness message every node broadcasts. The
// sequence counter increments once per transmission and wraps.
type Heartbeat struct {
	Sequence uint32
	DataRate uint16 // bus data rate in kbit/s
	ProtoRev uint8
}

func (Heartbeat) Selector() Selector { return SelHeartbeat }

func (m Heartbeat) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenHeartbeat {
		return 0, ErrShortBuffer
	}
	binary.BigEndian.PutUint32(buf[0:4], m.Sequence)
	binary.BigEndian.PutUint16(buf[4:6], m.DataRate)
	buf[6] = m.ProtoRev
	buf[7] = 0
	return LenHeartbeat, nil
}

func decodeHeartbeat(p []byte) (Message, error) {
	return Heartbeat{
		Sequence: binary.BigEndian.Uint32(p[0:4]),
		DataRate: binary.BigEndian.Uint16(p[4:6]),
		ProtoRev: p[6],
	}, nil
}

// Status carries the node's fault and warning flag words plus a running
// error counter.
type Status struct {
	FaultFlags uint16
	WarnFlags  uint16
	ErrorCount uint16
}

func (Status) Selector() Selector { return SelStatus }

func (m Status) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenStatus {
		return 0, ErrShortBuffer
	}
	binary.BigEndian.PutUint16(buf[0:2], m.FaultFlags)
	binary.BigEndian.PutUint16(buf[2:4], m.WarnFlags)
	binary.BigEndian.PutUint16(buf[4:6], m.ErrorCount)
	return LenStatus, nil
}

func decodeStatus(p []byte) (Message, error) {
	return Status{
		FaultFlags: binary.BigEndian.Uint16(p[0:2]),
		WarnFlags:  binary.BigEndian.Uint16(p[2:4]),
		ErrorCount: binary.BigEndian.Uint16(p[4:6]),
	}, nil
}

// BusMeasurement reports DC bus voltage and current.
type BusMeasurement struct {
	BusVoltage float32 // volts
	BusCurrent float32 // amps, positive when drawing from the bus
}

func (BusMeasurement) Selector() Selector { return SelBusMeas }

func (m BusMeasurement) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenBusMeas {
		return 0, ErrShortBuffer
	}
	if err := checkRange("bus voltage", float64(m.BusVoltage), MinBusVoltage, MaxBusVoltage); err != nil {
		return 0, err
	}
	if err := checkRange("bus current", float64(m.BusCurrent), -MaxBusCurrent, MaxBusCurrent); err != nil {
		return 0, err
	}
	putFloat32(buf[0:4], m.BusVoltage)
	putFloat32(buf[4:8], m.BusCurrent)
	return LenBusMeas, nil
}

func decodeBusMeasurement(p []byte) (Message, error) {
	m := BusMeasurement{
		BusVoltage: getFloat32(p[0:4]),
		BusCurrent: getFloat32(p[4:8]),
	}
	if err := checkRange("bus voltage", float64(m.BusVoltage), MinBusVoltage, MaxBusVoltage); err != nil {
		return nil, err
	}
	if err := checkRange("bus current", float64(m.BusCurrent), -MaxBusCurrent, MaxBusCurrent); err != nil {
		return nil, err
	}
	return m, nil
}

// VelocityMeasurement reports motor shaft speed and vehicle velocity.
type VelocityMeasurement struct {
	MotorRPM  float32
	VehicleMS float32 // metres per second
}

func (VelocityMeasurement) Selector() Selector { return SelVelocity }

func (m VelocityMeasurement) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenVelocity {
		return 0, ErrShortBuffer
	}
	if err := checkRange("motor rpm", float64(m.MotorRPM), -MaxMotorRPM, MaxMotorRPM); err != nil {
		return 0, err
	}
	if err := checkRange("vehicle velocity", float64(m.VehicleMS), -MaxVehicleMS, MaxVehicleMS); err != nil {
		return 0, err
	}
	putFloat32(buf[0:4], m.MotorRPM)
	putFloat32(buf[4:8], m.VehicleMS)
	return LenVelocity, nil
}

func decodeVelocityMeasurement(p []byte) (Message, error) {
	m := VelocityMeasurement{
		MotorRPM:  getFloat32(p[0:4]),
		VehicleMS: getFloat32(p[4:8]),
	}
	if err := checkRange("motor rpm", float64(m.MotorRPM), -MaxMotorRPM, MaxMotorRPM); err != nil {
		return nil, err
	}
	if err := checkRange("vehicle velocity", float64(m.VehicleMS), -MaxVehicleMS, MaxVehicleMS); err != nil {
		return nil, err
	}
	return m, nil
}

// TemperatureMeasurement reports heatsink and motor winding temperatures.
type TemperatureMeasurement struct {
	HeatsinkC float32
	MotorC    float32
}

func (TemperatureMeasurement) Selector() Selector { return SelTemperature }

func (m TemperatureMeasurement) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenTemperature {
		return 0, ErrShortBuffer
	}
	if err := checkRange("heatsink temperature", float64(m.HeatsinkC), MinTemperature, MaxTemperature); err != nil {
		return 0, err
	}
	if err := checkRange("motor temperature", float64(m.MotorC), MinTemperature, MaxTemperature); err != nil {
		return 0, err
	}
	putFloat32(buf[0:4], m.HeatsinkC)
	putFloat32(buf[4:8], m.MotorC)
	return LenTemperature, nil
}

func decodeTemperatureMeasurement(p []byte) (Message, error) {
	m := TemperatureMeasurement{
		HeatsinkC: getFloat32(p[0:4]),
		MotorC:    getFloat32(p[4:8]),
	}
	if err := checkRange("heatsink temperature", float64(m.HeatsinkC), MinTemperature, MaxTemperature); err != nil {
		return nil, err
	}
	if err := checkRange("motor temperature", float64(m.MotorC), MinTemperature, MaxTemperature); err != nil {
		return nil, err
	}
	return m, nil
}

// DriveCommand is the motor setpoint: a velocity target and a current limit
// expressed as a fraction of the controller's maximum.
type DriveCommand struct {
	VelocityRPM float32
	CurrentFrac float32 // 0..1
}

func (DriveCommand) Selector() Selector { return SelDrive }

func (m DriveCommand) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenDrive {
		return 0, ErrShortBuffer
	}
	if err := checkRange("velocity setpoint", float64(m.VelocityRPM), -MaxMotorRPM, MaxMotorRPM); err != nil {
		return 0, err
	}
	if err := checkRange("current fraction", float64(m.CurrentFrac), 0, 1); err != nil {
		return 0, err
	}
	putFloat32(buf[0:4], m.VelocityRPM)
	putFloat32(buf[4:8], m.CurrentFrac)
	return LenDrive, nil
}

func decodeDriveCommand(p []byte) (Message, error) {
	m := DriveCommand{
		VelocityRPM: getFloat32(p[0:4]),
		CurrentFrac: getFloat32(p[4:8]),
	}
	if err := checkRange("velocity setpoint", float64(m.VelocityRPM), -MaxMotorRPM, MaxMotorRPM); err != nil {
		return nil, err
	}
	if err := checkRange("current fraction", float64(m.CurrentFrac), 0, 1); err != nil {
		return nil, err
	}
	return m, nil
}

// PowerCommand caps the bus current draw as a fraction of the controller's
// maximum. Bytes 0..3 are reserved on the wire and encode as zero.
type PowerCommand struct {
	BusCurrentFrac float32 // 0..1
}

func (PowerCommand) Selector() Selector { return SelPower }

func (m PowerCommand) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenPower {
		return 0, ErrShortBuffer
	}
	if err := checkRange("bus current fraction", float64(m.BusCurrentFrac), 0, 1); err != nil {
		return 0, err
	}
	clear(buf[0:4])
	putFloat32(buf[4:8], m.BusCurrentFrac)
	return LenPower, nil
}

func decodePowerCommand(p []byte) (Message, error) {
	m := PowerCommand{BusCurrentFrac: getFloat32(p[4:8])}
	if err := checkRange("bus current fraction", float64(m.BusCurrentFrac), 0, 1); err != nil {
		return nil, err
	}
	return m, nil
}

// ResetCommand requests a soft reset of the addressed node. Its payload is
// empty.
type ResetCommand struct{}

func (ResetCommand) Selector() Selector { return SelReset }

func (ResetCommand) MarshalPayload(buf []byte) (int, error) {
	return 0, nil
}

func decodeResetCommand(p []byte) (Message, error) {
	return ResetCommand{}, nil
}

// Odometer reports accumulated distance and charge as fixed-point counters:
// distance in 0.1 m units, charge in 0.01 Ah units. Values are rounded to
// the wire resolution on encode; values past the counter width are rejected.
type Odometer struct {
	DistanceM float64
	ChargeAh  float64
}

func (Odometer) Selector() Selector { return SelOdometer }

func (m Odometer) MarshalPayload(buf []byte) (int, error) {
	if len(buf) < LenOdometer {
		return 0, ErrShortBuffer
	}
	if err := checkRange("distance", m.DistanceM, 0, float64(math.MaxUint32)*OdometerDistanceScale); err != nil {
		return 0, err
	}
	if err := checkRange("charge", m.ChargeAh, 0, float64(math.MaxUint16)*OdometerChargeScale); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[0:4], uint32(math.Round(m.DistanceM/OdometerDistanceScale)))
	binary.BigEndian.PutUint16(buf[4:6], uint16(math.Round(m.ChargeAh/OdometerChargeScale)))
	return LenOdometer, nil
}

func decodeOdometer(p []byte) (Message, error) {
	return Odometer{
		DistanceM: float64(binary.BigEndian.Uint32(p[0:4])) * OdometerDistanceScale,
		ChargeAh:  float64(binary.BigEndian.Uint16(p[4:6])) * OdometerChargeScale,
	}, nil
}

// Float helpers. Measurement and command floats are IEEE-754 single
// precision, little-endian on the wire.

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
