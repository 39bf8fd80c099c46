// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// Announcement is one bridge heartbeat seen on the multicast group.
type Announcement struct {
	Addr *net.UDPAddr
	Bus  tritium.BusNumber
	Info tritium.HeartbeatInfo
	Time time.Time
}

// UDPConfig configures a multicast attachment to a bridge network.
type UDPConfig struct {
	// Group is the multicast group, defaulting to tritium.BroadcastGroup.
	Group string
	// Port defaults to tritium.Port.
	Port int
	// Bus selects which bridge bus to exchange traffic with.
	Bus tritium.BusNumber
	// ClientID stamps outbound datagrams and filters out our own
	// multicast echoes. Zero means anonymous (echoes are not filtered).
	ClientID uint64
	// Interface optionally pins the multicast join to one interface.
	Interface *net.Interface
}

func (c *UDPConfig) groupAddr() (*net.UDPAddr, error) {
	group := c.Group
	if group == "" {
		group = tritium.BroadcastGroup
	}
	port := c.Port
	if port == 0 {
		port = tritium.Port
	}
	ip := net.ParseIP(group)
	if ip == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("bridge: %q is not a multicast group", group)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// UDPBus exchanges frames with every bridge on the local multicast group.
// All members see all traffic; the bridge forwards group datagrams onto the
// wire and wire frames back onto the group.
type UDPBus struct {
	conn  *net.UDPConn // multicast receive
	out   *net.UDPConn // unicast-socket send to the group
	group *net.UDPAddr
	cfg   UDPConfig

	recv chan tritium.RawFrame
	errs chan error
	hb   chan Announcement
	done chan struct{}

	sendMu  sync.Mutex
	sendBuf [tritium.DatagramLen]byte
}

// DialUDP joins the multicast group and starts the receive loop.
func DialUDP(cfg UDPConfig) (*UDPBus, error) {
	group, err := cfg.groupAddr()
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenMulticastUDP("udp4", cfg.Interface, group)
	if err != nil {
		return nil, fmt.Errorf("bridge: join %v: %w", group, err)
	}
	out, err := net.DialUDP("udp4", nil, group)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bridge: dial %v: %w", group, err)
	}

	b := &UDPBus{
		conn:  conn,
		out:   out,
		group: group,
		cfg:   cfg,
		recv:  make(chan tritium.RawFrame, recvBuffer),
		errs:  make(chan error, 1),
		hb:    make(chan Announcement, 16),
		done:  make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *UDPBus) readLoop() {
	buf := make([]byte, 64)
	for {
		n, from, err := b.conn.ReadFromUDP(buf)
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
		d, err := tritium.DecodeDatagram(buf[:n])
		if err != nil {
			// Not our protocol, or a corrupt packet. Ignore.
			continue
		}
		if d.IsHeartbeat() {
			info, err := tritium.BridgeHeartbeatInfo(&d)
			if err != nil {
				continue
			}
			select {
			case b.hb <- Announcement{Addr: from, Bus: d.Bus, Info: info, Time: time.Now()}:
			default:
			}
			continue
		}
		if d.Bus != b.cfg.Bus {
			continue
		}
		if b.cfg.ClientID != 0 && d.ClientID == b.cfg.ClientID {
			continue // our own multicast echo
		}
		deliver(b.recv, b.errs, d.Frame)
	}
}

// Send multicasts one frame to every bridge on the group.
func (b *UDPBus) Send(f tritium.RawFrame) error {
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
	_, err := b.out.Write(b.sendBuf[:])
	return err
}

// Announce multicasts a bridge heartbeat, identifying this endpoint as a
// bridge carrying the given MAC and CAN data rate. Bridges announce once
// per second; callers drive the cadence.
func (b *UDPBus) Announce(mac [6]byte, dataRate uint16) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	d := tritium.NewBridgeHeartbeat(mac, b.cfg.Bus, dataRate)
	d.ClientID = b.cfg.ClientID
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if err := d.Encode(b.sendBuf[:]); err != nil {
		return err
	}
	_, err := b.out.Write(b.sendBuf[:])
	return err
}

// Poll returns the next received frame without blocking.
func (b *UDPBus) Poll() (tritium.RawFrame, bool, error) {
	return pollChan(b.recv, b.errs)
}

// Heartbeats exposes bridge announcements seen on the group. The channel
// drops when not drained; it is never closed.
func (b *UDPBus) Heartbeats() <-chan Announcement {
	return b.hb
}

// Close leaves the multicast group and stops the receive loop.
func (b *UDPBus) Close() error {
	select {
	case <-b.done:
		return nil
	default:
		close(b.done)
	}
	b.out.Close()
	return b.conn.Close()
}
