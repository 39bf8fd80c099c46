// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

// Package tritium implements the Tritium CAN network protocol: the 29-bit
// identifier addressing scheme, the per-selector payload layouts, and the
// CAN-Ethernet bridge datagram format.
//
// The package is the protocol definition layer only. Encode and decode are
// synchronous pure functions over caller-supplied buffers, with no I/O and no
// allocation on the hot paths, so they are safe to call from polling loops
// and tight control loops. Transports live in pkg/bridge and talk to this
// package through the Frame capability interface.
package tritium
