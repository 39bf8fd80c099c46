// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// TCPConfig configures a point-to-point stream attachment to one bridge.
type TCPConfig struct {
	// Addr is the bridge's host:port. A bare host gets the protocol port.
	Addr string
	// Bus selects the bridge bus.
	Bus tritium.BusNumber
	// ClientID stamps outbound datagrams.
	ClientID uint64
	// Filter, when non-nil, narrows which identifiers the bridge forwards
	// to us. Nil requests all traffic.
	Filter *tritium.Filter
	// DialTimeout bounds connection setup. Zero means 10 seconds.
	DialTimeout time.Duration
}

// TCPBus is a stream connection to one bridge. The client writes full
// 30-byte datagrams; the bridge replies with bare 14-byte frame sections.
type TCPBus struct {
	conn net.Conn
	cfg  TCPConfig

	recv chan tritium.RawFrame
	errs chan error
	done chan struct{}

	sendMu  sync.Mutex
	sendBuf [tritium.DatagramLen]byte
}

// DialTCP connects to a bridge, installs the forwarding filter and starts
// the receive loop.
func DialTCP(cfg TCPConfig) (*TCPBus, error) {
	addr := cfg.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, fmt.Sprint(tritium.Port))
	}
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", addr, err)
	}

	filter := tritium.Filter{Bus: cfg.Bus, ClientID: cfg.ClientID}
	if cfg.Filter != nil {
		filter = *cfg.Filter
		filter.Bus = cfg.Bus
		filter.ClientID = cfg.ClientID
	}
	var fbuf [tritium.FilterLen]byte
	if err := filter.Encode(fbuf[:]); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Write(fbuf[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bridge: send filter: %w", err)
	}

	b := &TCPBus{
		conn: conn,
		cfg:  cfg,
		recv: make(chan tritium.RawFrame, recvBuffer),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *TCPBus) readLoop() {
	var section [tritium.FrameSectionLen]byte
	for {
		if _, err := io.ReadFull(b.conn, section[:]); err != nil {
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
		f, err := tritium.DecodeFrameSection(section[:])
		if err != nil {
			// A malformed section means the stream framing is gone;
			// there is no way to resynchronize.
			select {
			case b.errs <- fmt.Errorf("bridge: stream desync: %w", err):
			default:
			}
			close(b.recv)
			return
		}
		deliver(b.recv, b.errs, f)
	}
}

// Send writes one frame to the bridge.
func (b *TCPBus) Send(f tritium.RawFrame) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	if err := f.Validate(); err != nil {
		return err
	}
	d := tritium.NewDatagram(b.cfg.Bus, b.cfg.ClientID, f)
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if err := d.Encode(b.sendBuf[:]); err != nil {
		return err
	}
	_, err := b.conn.Write(b.sendBuf[:])
	return err
}

// Poll returns the next received frame without blocking.
func (b *TCPBus) Poll() (tritium.RawFrame, bool, error) {
	return pollChan(b.recv, b.errs)
}

// Close shuts the stream down.
func (b *TCPBus) Close() error {
	select {
	case <-b.done:
		return nil
	default:
		close(b.done)
	}
	return b.conn.Close()
}
