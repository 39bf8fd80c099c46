// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/bridge"
)

var discoveryTimeout int

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover bridges on the local network",
	Long: `Listen for bridge heartbeats and report every bridge seen.

Bridges announce themselves once per second on the multicast group with a
heartbeat datagram carrying their bus number, configured CAN data rate and
MAC address. Discovery listens for the timeout window and prints each
distinct bridge once.

Works over the default UDP multicast attachment or a WebSocket gateway
(--url); a TCP or serial attachment carries no heartbeats.

Examples:
  # Discover bridges on the local segment
  triscope discovery

  # Discover through a WebSocket gateway
  triscope discovery --url ws://gateway.local/can

Exit codes:
  0 - At least one bridge found
  1 - No bridges seen before the timeout
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 5, "Timeout in seconds for discovery")
}

// announcer is the subset of bus implementations that surface bridge
// heartbeats.
type announcer interface {
	Heartbeats() <-chan bridge.Announcement
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	if tcpAddr != "" || serialPort != "" {
		fmt.Fprintln(os.Stderr, "discovery requires a UDP or WebSocket attachment")
		os.Exit(2)
	}

	bus, connInfo, err := OpenBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer bus.Close()

	hb, ok := bus.(announcer)
	if !ok {
		fmt.Fprintln(os.Stderr, "this attachment carries no bridge heartbeats")
		os.Exit(2)
	}

	fmt.Printf("Triscope - Bridge Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", discoveryTimeout)

	seen := map[[6]byte]bridge.Announcement{}
	deadline := time.After(time.Duration(discoveryTimeout) * time.Second)

listen:
	for {
		select {
		case a := <-hb.Heartbeats():
			if _, dup := seen[a.Info.MAC]; dup {
				continue
			}
			seen[a.Info.MAC] = a
			addr := "-"
			if a.Addr != nil {
				addr = a.Addr.IP.String()
			}
			fmt.Printf("Bridge %02X:%02X:%02X:%02X:%02X:%02X  bus %-2d  %4d kbit/s  %s\n",
				a.Info.MAC[0], a.Info.MAC[1], a.Info.MAC[2],
				a.Info.MAC[3], a.Info.MAC[4], a.Info.MAC[5],
				a.Bus, a.Info.DataRate, addr)
		case <-deadline:
			break listen
		case <-cmd.Context().Done():
			break listen
		}
	}

	fmt.Printf("\n%d bridge(s) found\n", len(seen))
	if len(seen) == 0 {
		os.Exit(1)
	}
	return nil
}
