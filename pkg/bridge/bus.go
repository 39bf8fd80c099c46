// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package bridge

import (
	"errors"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

// ErrClosed is returned by Send and Poll after a bus has been closed.
var ErrClosed = errors.New("bridge: bus closed")

// ErrDroppedFrame is reported when the receive buffer overflows and a frame
// is discarded.
var ErrDroppedFrame = errors.New("bridge: receive buffer full, frame dropped")

// Bus is one attachment to a CAN network.
//
// Send queues a frame for transmission. Poll is non-blocking: it returns
// the next received frame with ok=true, or ok=false with a nil error when
// nothing is pending. A non-nil error from either call is terminal for the
// bus apart from ErrDroppedFrame, which only reports lost inbound frames.
type Bus interface {
	Send(f tritium.RawFrame) error
	Poll() (f tritium.RawFrame, ok bool, err error)
	Close() error
}

// recvBuffer is the shared inbound-channel depth across transports.
const recvBuffer = 256

// pollChan drains one frame from a background reader's channel without
// blocking.
func pollChan(recv <-chan tritium.RawFrame, errs <-chan error) (tritium.RawFrame, bool, error) {
	select {
	case err := <-errs:
		return tritium.RawFrame{}, false, err
	case f, ok := <-recv:
		if !ok {
			return tritium.RawFrame{}, false, ErrClosed
		}
		return f, true, nil
	default:
		return tritium.RawFrame{}, false, nil
	}
}

// deliver pushes a frame into recv, reporting overflow on errs without
// blocking the reader.
func deliver(recv chan<- tritium.RawFrame, errs chan<- error, f tritium.RawFrame) {
	select {
	case recv <- f:
	default:
		select {
		case errs <- ErrDroppedFrame:
		default:
		}
	}
}
