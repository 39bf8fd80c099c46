// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools
//
// Triscope - Tritium CAN Network Analyzer
//
// A CLI tool for monitoring, decoding and exercising Tritium CAN
// networks over Ethernet bridges, WebSocket gateways and SLCAN adapters.

package main

import (
	"os"

	"github.com/tritium-tools/triscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
