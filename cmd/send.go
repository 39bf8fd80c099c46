// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/tritium"
)

var (
	sendAddr uint8

	driveRPM      float32
	driveCurrent  float32
	powerFraction float32

	heartbeatSeq  uint32
	heartbeatRate uint16
	heartbeatRev  uint8
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a protocol message onto the bus",
	Long: `Encode one message and transmit it.

Range checks run before anything touches the wire: an out-of-range
setpoint fails locally instead of reaching a controller.

Examples:
  # Command device 0x40 to 1500 RPM at 75% current over TCP
  triscope send drive --addr 0x40 --rpm 1500 --current 0.75 --tcp bridge.local

  # Soft-reset device 0x21
  triscope send reset --addr 0x21`,
}

var sendDriveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Send a DRIVE_COMMAND setpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(tritium.DriveCommand{
			VelocityRPM: driveRPM,
			CurrentFrac: driveCurrent,
		})
	},
}

var sendPowerCmd = &cobra.Command{
	Use:   "power",
	Short: "Send a POWER_COMMAND bus current limit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(tritium.PowerCommand{BusCurrentFrac: powerFraction})
	},
}

var sendResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Send a RESET_COMMAND",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(tritium.ResetCommand{})
	},
}

var sendHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Send one HEARTBEAT (impersonates a node; test rigs only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(tritium.Heartbeat{
			Sequence: heartbeatSeq,
			DataRate: heartbeatRate,
			ProtoRev: heartbeatRev,
		})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().Uint8Var(&sendAddr, "addr", 0, "Target device address (0-255)")

	sendDriveCmd.Flags().Float32Var(&driveRPM, "rpm", 0, "Velocity setpoint in RPM")
	sendDriveCmd.Flags().Float32Var(&driveCurrent, "current", 0, "Current limit as a fraction (0-1)")
	sendCmd.AddCommand(sendDriveCmd)

	sendPowerCmd.Flags().Float32Var(&powerFraction, "fraction", 0, "Bus current limit as a fraction (0-1)")
	sendCmd.AddCommand(sendPowerCmd)

	sendCmd.AddCommand(sendResetCmd)

	sendHeartbeatCmd.Flags().Uint32Var(&heartbeatSeq, "seq", 0, "Sequence counter")
	sendHeartbeatCmd.Flags().Uint16Var(&heartbeatRate, "rate", 500, "Bus data rate in kbit/s")
	sendHeartbeatCmd.Flags().Uint8Var(&heartbeatRev, "rev", 1, "Protocol revision")
	sendCmd.AddCommand(sendHeartbeatCmd)
}

func sendMessage(msg tritium.Message) error {
	f, err := tritium.EncodeFrame(tritium.DeviceAddress(sendAddr), msg)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	bus, connInfo, err := OpenBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer bus.Close()

	if err := bus.Send(f); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fmt.Printf("Sent via %s\n", connInfo)
	fmt.Printf("  %s (0x%02X) to addr=0x%02X\n",
		tritium.SelectorName(msg.Selector()), uint8(msg.Selector()), sendAddr)
	fmt.Printf("  %s\n", tritium.FormatRawFrame(&f))
	return nil
}
