// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

// Package bridge connects the protocol core to real CAN traffic. It
// implements the Bus interface over the transports a Tritium network
// actually uses: UDP multicast and TCP streams to an Ethernet bridge, a
// WebSocket tunnel for browser-reachable deployments, an SLCAN serial
// adapter, and an in-memory loopback for tests.
//
// Every network transport runs one background reader goroutine feeding a
// buffered channel, so Poll never blocks: it drains the channel with a
// select-default and reports "no frame" when the channel is empty.
package bridge
