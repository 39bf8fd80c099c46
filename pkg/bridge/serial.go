// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// SLCAN line codec. One bus frame is one ASCII line terminated by CR:
//
//	'T' iiiiiiii l dd..   extended data frame, 8 hex id digits
//	't' iii      l dd..   standard data frame, 3 hex id digits
//	'R' iiiiiiii l        extended remote request
//	'r' iii      l        standard remote request
//
// where l is the single-digit DLC and dd.. is the payload in hex.

// AppendSLCAN appends the SLCAN line for f (including the trailing CR) to
// dst and returns the extended slice.
func AppendSLCAN(dst []byte, f *tritium.RawFrame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return dst, err
	}
	switch {
	case f.Extended && f.Remote:
		dst = append(dst, 'R')
	case f.Extended:
		dst = append(dst, 'T')
	case f.Remote:
		dst = append(dst, 'r')
	default:
		dst = append(dst, 't')
	}
	if f.Extended {
		dst = appendHex(dst, f.ID, 8)
	} else {
		dst = appendHex(dst, f.ID, 3)
	}
	dst = append(dst, '0'+f.Len)
	if !f.Remote {
		for _, b := range f.Payload() {
			dst = appendHex(dst, uint32(b), 2)
		}
	}
	return append(dst, '\r'), nil
}

func appendHex(dst []byte, v uint32, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		dst = append(dst, "0123456789ABCDEF"[v>>(4*i)&0xF])
	}
	return dst
}

// ParseSLCAN decodes one SLCAN line (without the trailing CR). Lines that
// are not frames — status reports, command acks — return ok=false.
func ParseSLCAN(line []byte) (tritium.RawFrame, bool, error) {
	if len(line) == 0 {
		return tritium.RawFrame{}, false, nil
	}
	var f tritium.RawFrame
	var idDigits int
	switch line[0] {
	case 'T':
		f.Extended = true
		idDigits = 8
	case 't':
		idDigits = 3
	case 'R':
		f.Extended, f.Remote = true, true
		idDigits = 8
	case 'r':
		f.Remote = true
		idDigits = 3
	default:
		return tritium.RawFrame{}, false, nil
	}
	if len(line) < 1+idDigits+1 {
		return tritium.RawFrame{}, false, fmt.Errorf("bridge: slcan line too short: %q", line)
	}
	id, err := strconv.ParseUint(string(line[1:1+idDigits]), 16, 32)
	if err != nil {
		return tritium.RawFrame{}, false, fmt.Errorf("bridge: slcan identifier: %w", err)
	}
	f.ID = uint32(id)
	dlc := line[1+idDigits] - '0'
	if dlc > tritium.MaxPayload {
		return tritium.RawFrame{}, false, fmt.Errorf("bridge: slcan DLC %d", dlc)
	}
	f.Len = dlc
	if !f.Remote {
		hexData := line[1+idDigits+1:]
		if len(hexData) != 2*int(dlc) {
			return tritium.RawFrame{}, false, fmt.Errorf("bridge: slcan line carries %d hex digits for DLC %d", len(hexData), dlc)
		}
		if _, err := hex.Decode(f.Data[:dlc], hexData); err != nil {
			return tritium.RawFrame{}, false, fmt.Errorf("bridge: slcan payload: %w", err)
		}
	}
	return f, true, f.Validate()
}

// slcanBitrate maps a bus rate in kbit/s to the adapter's setup command.
func slcanBitrate(kbps int) (string, error) {
	rates := map[int]string{
		10: "S0", 20: "S1", 50: "S2", 100: "S3", 125: "S4",
		250: "S5", 500: "S6", 750: "S7", 1000: "S8",
	}
	cmd, ok := rates[kbps]
	if !ok {
		return "", fmt.Errorf("bridge: unsupported bit rate %d kbit/s", kbps)
	}
	return cmd, nil
}

// SerialConfig configures an SLCAN adapter on a serial port.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyACM0.
	Port string
	// BaudRate of the serial link itself. Zero means 115200.
	BaudRate int
	// Bitrate of the CAN bus in kbit/s. Zero means 500.
	Bitrate int
}

// SerialBus drives an SLCAN adapter.
type SerialBus struct {
	port serial.Port

	recv chan tritium.RawFrame
	errs chan error
	done chan struct{}

	sendMu  sync.Mutex
	sendBuf []byte
}

// DialSerial opens the port, configures the bus rate and opens the channel.
func DialSerial(cfg SerialConfig) (*SerialBus, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	bitrate := cfg.Bitrate
	if bitrate == 0 {
		bitrate = 500
	}
	rateCmd, err := slcanBitrate(bitrate)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("bridge: open %s: %w", cfg.Port, err)
	}
	port.SetReadTimeout(time.Millisecond)
	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	if _, err := port.Write([]byte(rateCmd + "\r")); err != nil {
		port.Close()
		return nil, fmt.Errorf("bridge: set bit rate: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := port.Write([]byte("O\r")); err != nil {
		port.Close()
		return nil, fmt.Errorf("bridge: open channel: %w", err)
	}

	b := &SerialBus{
		port: port,
		recv: make(chan tritium.RawFrame, recvBuffer),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *SerialBus) readLoop() {
	line := make([]byte, 0, 32)
	buf := make([]byte, 64)
	for {
		select {
		case <-b.done:
			close(b.recv)
			return
		default:
		}
		n, err := b.port.Read(buf)
		if err != nil {
			select {
			case <-b.done:
			default:
				select {
				case b.errs <- err:
				default:
				}
			}
			close(b.recv)
			return
		}
		for _, c := range buf[:n] {
			if c != '\r' {
				if c != '\n' && c != 0x07 { // bell acks an unknown command
					line = append(line, c)
				}
				continue
			}
			f, ok, err := ParseSLCAN(line)
			line = line[:0]
			if err != nil || !ok {
				continue
			}
			deliver(b.recv, b.errs, f)
		}
	}
}

// Send queues one frame on the adapter.
func (b *SerialBus) Send(f tritium.RawFrame) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	line, err := AppendSLCAN(b.sendBuf[:0], &f)
	if err != nil {
		return err
	}
	b.sendBuf = line[:0]
	_, err = b.port.Write(line)
	return err
}

// Poll returns the next received frame without blocking.
func (b *SerialBus) Poll() (tritium.RawFrame, bool, error) {
	return pollChan(b.recv, b.errs)
}

// Close closes the adapter channel and the port.
func (b *SerialBus) Close() error {
	select {
	case <-b.done:
		return nil
	default:
		close(b.done)
	}
	b.sendMu.Lock()
	b.port.Write([]byte("C\r"))
	b.sendMu.Unlock()
	time.Sleep(10 * time.Millisecond)
	return b.port.Close()
}
