// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// WSConfig configures a WebSocket tunnel to a bridge gateway. Each binary
// WebSocket message carries one 30-byte datagram in either direction.
type WSConfig struct {
	// URL is the gateway endpoint, ws:// or wss://.
	URL string
	// Username and Password are sent as HTTP Basic auth when both set.
	Username string
	Password string
	// InsecureSkipVerify disables TLS certificate checks for wss://.
	InsecureSkipVerify bool
	// Bus selects the bridge bus.
	Bus tritium.BusNumber
	// ClientID stamps outbound datagrams and filters our own echoes.
	ClientID uint64
}

// WSBus tunnels bridge datagrams over a WebSocket.
type WSBus struct {
	conn *websocket.Conn
	cfg  WSConfig

	recv chan tritium.RawFrame
	errs chan error
	hb   chan Announcement
	done chan struct{}

	sendMu  sync.Mutex
	sendBuf [tritium.DatagramLen]byte
}

// DialWS connects to a gateway and starts the receive loop.
func DialWS(cfg WSConfig) (*WSBus, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("bridge: invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("bridge: unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge: websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge: websocket dial failed: %w", err)
	}

	b := &WSBus{
		conn: conn,
		cfg:  cfg,
		recv: make(chan tritium.RawFrame, recvBuffer),
		errs: make(chan error, 1),
		hb:   make(chan Announcement, 16),
		done: make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *WSBus) readLoop() {
	for {
		messageType, data, err := b.conn.ReadMessage()
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
		if messageType != websocket.BinaryMessage {
			continue
		}
		d, err := tritium.DecodeDatagram(data)
		if err != nil {
			continue
		}
		if d.IsHeartbeat() {
			info, err := tritium.BridgeHeartbeatInfo(&d)
			if err != nil {
				continue
			}
			select {
			case b.hb <- Announcement{Bus: d.Bus, Info: info, Time: time.Now()}:
			default:
			}
			continue
		}
		if d.Bus != b.cfg.Bus {
			continue
		}
		if b.cfg.ClientID != 0 && d.ClientID == b.cfg.ClientID {
			continue
		}
		deliver(b.recv, b.errs, d.Frame)
	}
}

// Send writes one frame through the tunnel.
func (b *WSBus) Send(f tritium.RawFrame) error {
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
	return b.conn.WriteMessage(websocket.BinaryMessage, b.sendBuf[:])
}

// Poll returns the next received frame without blocking.
func (b *WSBus) Poll() (tritium.RawFrame, bool, error) {
	return pollChan(b.recv, b.errs)
}

// Heartbeats exposes bridge announcements seen through the tunnel.
func (b *WSBus) Heartbeats() <-chan Announcement {
	return b.hb
}

// Close shuts the tunnel down.
func (b *WSBus) Close() error {
	select {
	case <-b.done:
		return nil
	default:
		close(b.done)
	}
	return b.conn.Close()
}
