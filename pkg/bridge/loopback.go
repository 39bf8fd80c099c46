// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"sync"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// Loopback is an in-memory CAN network for tests and simulations. Every
// endpoint opened from the same Loopback sees the frames the others send.
type Loopback struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopback creates an empty in-memory network.
func NewLoopback() *Loopback {
	return &Loopback{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open attaches a new endpoint. Endpoints opened after Close are born
// closed.
func (l *Loopback) Open() Bus {
	ep := &loopEndpoint{
		net: l,
		ch:  make(chan tritium.RawFrame, recvBuffer),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		ep.dead = true
		return ep
	}
	l.endpoints[ep] = struct{}{}
	return ep
}

// Close detaches every endpoint.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for ep := range l.endpoints {
		ep.mu.Lock()
		ep.dead = true
		ep.mu.Unlock()
	}
	l.endpoints = nil
	return nil
}

type loopEndpoint struct {
	net  *Loopback
	ch   chan tritium.RawFrame
	mu   sync.Mutex
	dead bool
}

// Send broadcasts the frame to every other endpoint on the network.
func (e *loopEndpoint) Send(f tritium.RawFrame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	if dead {
		return ErrClosed
	}

	e.net.mu.RLock()
	targets := make([]*loopEndpoint, 0, len(e.net.endpoints))
	for ep := range e.net.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.net.mu.RUnlock()

	for _, t := range targets {
		select {
		case t.ch <- f:
		default:
			// Receiver is not draining; drop rather than block the
			// sender, like a saturated real bus would.
		}
	}
	return nil
}

// Poll returns the next pending frame without blocking.
func (e *loopEndpoint) Poll() (tritium.RawFrame, bool, error) {
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	select {
	case f := <-e.ch:
		return f, true, nil
	default:
		if dead {
			return tritium.RawFrame{}, false, ErrClosed
		}
		return tritium.RawFrame{}, false, nil
	}
}

// Close detaches the endpoint. Frames already queued remain pollable.
func (e *loopEndpoint) Close() error {
	e.net.mu.Lock()
	if e.net.endpoints != nil {
		delete(e.net.endpoints, e)
	}
	e.net.mu.Unlock()
	e.mu.Lock()
	e.dead = true
	e.mu.Unlock()
	return nil
}
