// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/capture"
	"github.com/tritium-tools/triscope/pkg/tritium"
)

var decodeFile string

var decodeCmd = &cobra.Command{
	Use:   "decode [hex ...]",
	Short: "Decode frames offline",
	Long: `Decode captured or pasted bus data without a connection.

Each argument is hex: 60 digits decode as a 30-byte bridge datagram, 28
digits as a bare 14-byte frame section, and the form ID#DATA as an
identifier plus payload. With --file, a capture recorded by
'triscope monitor --capture' is replayed instead.

Examples:
  triscope decode 0A8000A0#0000000101F40200
  triscope decode --file drive.tcap`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeFile, "file", "", "Capture file to replay")
}

func runDecode(cmd *cobra.Command, args []string) error {
	if decodeFile == "" && len(args) == 0 {
		return errors.New("nothing to decode: pass hex arguments or --file")
	}

	for _, arg := range args {
		f, err := parseFrameArg(arg)
		if err != nil {
			return fmt.Errorf("%q: %w", arg, err)
		}
		printOffline(f, time.Now())
	}

	if decodeFile != "" {
		file, err := os.Open(decodeFile)
		if err != nil {
			return err
		}
		defer file.Close()

		r := capture.NewReader(file)
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("read capture: %w", err)
			}
			f, err := rec.Frame()
			if err != nil {
				fmt.Printf("skipping bad record: %v\n", err)
				continue
			}
			printOffline(f, rec.Time)
		}
	}
	return nil
}

// parseFrameArg accepts a 30-byte datagram, a 14-byte frame section or an
// ID#DATA pair, all in hex.
func parseFrameArg(arg string) (tritium.RawFrame, error) {
	if id, data, found := strings.Cut(arg, "#"); found {
		if len(id) == 0 || len(id) > 8 {
			return tritium.RawFrame{}, fmt.Errorf("bad identifier %q", id)
		}
		idBytes, err := hex.DecodeString(strings.Repeat("0", 8-len(id)) + id)
		if err != nil || len(idBytes) != 4 {
			return tritium.RawFrame{}, fmt.Errorf("bad identifier %q", id)
		}
		payload, err := hex.DecodeString(data)
		if err != nil {
			return tritium.RawFrame{}, fmt.Errorf("bad payload hex: %w", err)
		}
		ident := uint32(idBytes[0])<<24 | uint32(idBytes[1])<<16 |
			uint32(idBytes[2])<<8 | uint32(idBytes[3])
		return tritium.NewRawFrame(ident, payload)
	}

	raw, err := hex.DecodeString(arg)
	if err != nil {
		return tritium.RawFrame{}, fmt.Errorf("bad hex: %w", err)
	}
	switch len(raw) {
	case tritium.DatagramLen:
		d, err := tritium.DecodeDatagram(raw)
		if err != nil {
			return tritium.RawFrame{}, err
		}
		return d.Frame, nil
	case tritium.FrameSectionLen:
		return tritium.DecodeFrameSection(raw)
	default:
		return tritium.RawFrame{}, fmt.Errorf("%d bytes: want %d (datagram), %d (frame section) or ID#DATA",
			len(raw), tritium.DatagramLen, tritium.FrameSectionLen)
	}
}

func printOffline(f tritium.RawFrame, at time.Time) {
	d, ok, err := tritium.Dispatch(&f, at)
	switch {
	case err != nil:
		fmt.Printf("[%s] MALFORMED: %v\n  %s\n", at.Format("15:04:05.000"), err, tritium.FormatRawFrame(&f))
	case ok:
		fmt.Print(tritium.FormatDecoded(&d))
	default:
		fmt.Printf("[%s] %s\n", at.Format("15:04:05.000"), tritium.FormatRawFrame(&f))
	}
}
