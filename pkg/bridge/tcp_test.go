// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// pollWait polls the bus until a frame arrives or the deadline expires.
func pollWait(t *testing.T, b Bus, deadline time.Duration) tritium.RawFrame {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		f, ok, err := b.Poll()
		if err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if ok {
			return f
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no frame before deadline")
	return tritium.RawFrame{}
}

func TestTCPBus_Exchange(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	type serverResult struct {
		filter   tritium.Filter
		datagram tritium.Datagram
		err      error
	}
	results := make(chan serverResult, 1)

	outbound, err := tritium.EncodeFrame(0x40, tritium.DriveCommand{VelocityRPM: 100, CurrentFrac: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	inbound, err := tritium.EncodeFrame(0x40, tritium.VelocityMeasurement{MotorRPM: 99})
	if err != nil {
		t.Fatal(err)
	}

	// Bridge side: accept, read the filter, push one frame section, then
	// read the client's datagram.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			results <- serverResult{err: err}
			return
		}
		defer conn.Close()

		var res serverResult
		var fbuf [tritium.FilterLen]byte
		if _, res.err = io.ReadFull(conn, fbuf[:]); res.err != nil {
			results <- res
			return
		}
		if res.filter, res.err = tritium.DecodeFilter(fbuf[:]); res.err != nil {
			results <- res
			return
		}

		var section [tritium.FrameSectionLen]byte
		if res.err = tritium.EncodeFrameSection(section[:], &inbound); res.err != nil {
			results <- res
			return
		}
		if _, res.err = conn.Write(section[:]); res.err != nil {
			results <- res
			return
		}

		var dbuf [tritium.DatagramLen]byte
		if _, res.err = io.ReadFull(conn, dbuf[:]); res.err != nil {
			results <- res
			return
		}
		res.datagram, res.err = tritium.DecodeDatagram(dbuf[:])
		results <- res
	}()

	bus, err := DialTCP(TCPConfig{
		Addr:     ln.Addr().String(),
		Bus:      13,
		ClientID: 0xC0FFEE,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	got := pollWait(t, bus, 2*time.Second)
	if got != inbound {
		t.Errorf("received %+v, want %+v", got, inbound)
	}

	if err := bus.Send(outbound); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	res := <-results
	if res.err != nil {
		t.Fatalf("bridge side failed: %v", res.err)
	}
	if res.filter.Bus != 13 || res.filter.ClientID != 0xC0FFEE {
		t.Errorf("filter = %+v, want bus 13, client 0xC0FFEE", res.filter)
	}
	if res.filter.FwdIdentifier != 0 || res.filter.FwdRange != 0 {
		t.Errorf("default filter should request all traffic, got %+v", res.filter)
	}
	if res.datagram.Frame != outbound {
		t.Errorf("bridge received %+v, want %+v", res.datagram.Frame, outbound)
	}
	if res.datagram.Bus != 13 || res.datagram.ClientID != 0xC0FFEE {
		t.Errorf("datagram header = bus %d client 0x%X", res.datagram.Bus, res.datagram.ClientID)
	}
}

func TestTCPBus_Closed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		io.Copy(io.Discard, conn)
	}()

	bus, err := DialTCP(TCPConfig{Addr: ln.Addr().String()})
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	f, _ := tritium.EncodeFrame(0x01, tritium.ResetCommand{})
	if err := bus.Send(f); err != ErrClosed {
		t.Errorf("Send after close = %v, want ErrClosed", err)
	}
}
