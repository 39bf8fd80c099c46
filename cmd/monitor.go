// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/capture"
	"github.com/tritium-tools/triscope/pkg/tritium"
)

var (
	monitorShowRaw     bool
	monitorCaptureFile string
	monitorInterval    int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream decoded bus traffic to the terminal",
	Long: `Decode and print every protocol message seen on the bus.

Frames carrying a foreign identifier base or an unknown selector are
silently skipped unless --raw is given, in which case they are printed as
hex dumps. Malformed protocol frames (reserved bits, short payloads,
out-of-range values) are always reported.

With --capture, every received frame is also appended to a capture file
for later offline decoding with 'triscope decode'.

Examples:
  # Watch bus 13 over the default UDP multicast group
  triscope monitor

  # Monitor through a bridge TCP connection, recording everything
  triscope monitor --tcp bridge.local --capture drive.tcap`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowRaw, "raw", false, "Also print undecodable frames as hex")
	monitorCmd.Flags().StringVar(&monitorCaptureFile, "capture", "", "Append received frames to a capture file")
	monitorCmd.Flags().IntVar(&monitorInterval, "stats-interval", 30, "Statistics summary interval in seconds (0 disables)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	bus, connInfo, err := OpenBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer bus.Close()

	var rec *capture.Writer
	if monitorCaptureFile != "" {
		f, err := os.OpenFile(monitorCaptureFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open capture file: %w", err)
		}
		defer f.Close()
		rec = capture.NewWriter(f)
	}

	fmt.Printf("Triscope - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stats := tritium.NewStatistics()
	var nextSummary time.Time
	if monitorInterval > 0 {
		nextSummary = time.Now().Add(time.Duration(monitorInterval) * time.Second)
	}

	for ctx.Err() == nil {
		f, ok, err := bus.Poll()
		if err != nil {
			return fmt.Errorf("bus error: %w", err)
		}
		if !ok {
			if monitorInterval > 0 && time.Now().After(nextSummary) {
				fmt.Print(stats.String())
				nextSummary = time.Now().Add(time.Duration(monitorInterval) * time.Second)
			}
			select {
			case <-ctx.Done():
			case <-time.After(time.Millisecond):
			}
			continue
		}

		now := time.Now()
		if rec != nil {
			if err := rec.WriteFrame(now, tritium.BusNumber(busNumber), &f); err != nil {
				return fmt.Errorf("capture write: %w", err)
			}
		}

		d, decoded, err := tritium.Dispatch(&f, now)
		stats.Update(&f, d, decoded, err)
		switch {
		case err != nil:
			fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m %v\n  %s\n",
				now.Format("15:04:05.000"), err, tritium.FormatRawFrame(&f))
		case decoded:
			fmt.Print(tritium.FormatDecoded(&d))
		case monitorShowRaw:
			fmt.Printf("[%s] %s\n", now.Format("15:04:05.000"), tritium.FormatRawFrame(&f))
		}
	}

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
