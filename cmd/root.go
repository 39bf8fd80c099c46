// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// TCP bridge flags
	tcpAddr string

	// UDP multicast flags
	udpGroup string
	udpPort  int

	// WebSocket gateway flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// SLCAN serial flags
	serialPort string
	baudRate   int
	bitrate    int

	// Shared bridge flags
	busNumber uint8
	clientID  uint64
)

var rootCmd = &cobra.Command{
	Use:   "triscope",
	Short: "Tritium CAN Network Analyzer",
	Long: `Triscope - A CLI tool for monitoring, decoding and exercising Tritium
CAN networks over an Ethernet bridge, a WebSocket gateway or an SLCAN
serial adapter.

Connection modes (first match wins):
  TCP bridge:    --tcp bridge.local[:4876]
  SLCAN:         --serial /dev/ttyACM0 [--baud 115200] [--bitrate 500]
  WebSocket:     --url ws://host/can [--username user]
  UDP (default): multicast group 239.255.60.60:4876

For WebSocket authentication, the password is read from the TRISCOPE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tcpAddr, "tcp", "t", "", "Bridge TCP address (host[:port])")

	rootCmd.PersistentFlags().StringVar(&udpGroup, "group", "", "UDP multicast group (default 239.255.60.60)")
	rootCmd.PersistentFlags().IntVar(&udpPort, "port", 0, "UDP port (default 4876)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket gateway URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&serialPort, "serial", "s", "", "SLCAN serial device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().IntVar(&bitrate, "bitrate", 500, "CAN bit rate in kbit/s (serial only)")

	rootCmd.PersistentFlags().Uint8Var(&busNumber, "bus", 13, "Bridge bus number (0-15)")
	rootCmd.PersistentFlags().Uint64Var(&clientID, "client-id", 0, "Client identifier stamped on outbound datagrams")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
