// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/bridge"
	"github.com/tritium-tools/triscope/pkg/tritium"
)

var (
	announceMAC  string
	announceRate uint16
)

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Broadcast bridge heartbeats (impersonates a bridge; test rigs only)",
	Long: `Multicast a bridge heartbeat once per second until interrupted.

Makes this host show up in 'triscope discovery' as a bridge with the given
MAC address and CAN data rate. Meant for exercising discovery tooling on a
bench without bridge hardware; only works over the UDP attachment.`,
	RunE: runAnnounce,
}

func init() {
	rootCmd.AddCommand(announceCmd)
	announceCmd.Flags().StringVar(&announceMAC, "mac", "02:00:5e:00:00:01", "MAC address to announce")
	announceCmd.Flags().Uint16Var(&announceRate, "rate", 500, "CAN data rate in kbit/s")
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	mac, err := parseMAC(announceMAC)
	if err != nil {
		return err
	}

	if tcpAddr != "" || serialPort != "" || wsURL != "" {
		fmt.Fprintln(os.Stderr, "announce requires the UDP attachment")
		os.Exit(2)
	}

	b, connInfo, err := OpenBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer b.Close()

	udp, ok := b.(*bridge.UDPBus)
	if !ok {
		fmt.Fprintln(os.Stderr, "announce requires the UDP attachment")
		os.Exit(2)
	}

	fmt.Printf("Announcing bridge %s on %s every %s\n", announceMAC, connInfo, tritium.HeartbeatInterval)
	fmt.Printf("Press Ctrl+C to stop\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(tritium.HeartbeatInterval)
	defer ticker.Stop()
	for {
		if err := udp.Announce(mac, announceRate); err != nil {
			return fmt.Errorf("announce: %w", err)
		}
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
		}
	}
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	clean := make([]byte, 0, 12)
	for i := 0; i < len(s); i++ {
		if s[i] == ':' || s[i] == '-' {
			continue
		}
		clean = append(clean, s[i])
	}
	raw, err := hex.DecodeString(string(clean))
	if err != nil || len(raw) != 6 {
		return mac, fmt.Errorf("bad MAC address %q", s)
	}
	copy(mac[:], raw)
	return mac, nil
}
