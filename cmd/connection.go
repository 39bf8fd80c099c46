// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/tritium-tools/triscope/pkg/bridge"
	"github.com/tritium-tools/triscope/pkg/tritium"
)

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("TRISCOPE_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// OpenBus opens the bus selected by the connection flags: TCP, serial and
// WebSocket in that order, falling back to UDP multicast.
func OpenBus() (bridge.Bus, string, error) {
	bus, err := tritium.NewBusNumber(busNumber)
	if err != nil {
		return nil, "", err
	}

	if tcpAddr != "" {
		b, err := bridge.DialTCP(bridge.TCPConfig{
			Addr:     tcpAddr,
			Bus:      bus,
			ClientID: clientID,
		})
		if err != nil {
			return nil, "", err
		}
		return b, fmt.Sprintf("TCP: %s (bus %d)", tcpAddr, bus), nil
	}

	if serialPort != "" {
		b, err := bridge.DialSerial(bridge.SerialConfig{
			Port:     serialPort,
			BaudRate: baudRate,
			Bitrate:  bitrate,
		})
		if err != nil {
			return nil, "", err
		}
		return b, fmt.Sprintf("SLCAN: %s @ %d baud, %d kbit/s", serialPort, baudRate, bitrate), nil
	}

	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		b, err := bridge.DialWS(bridge.WSConfig{
			URL:                wsURL,
			Username:           wsUsername,
			Password:           password,
			InsecureSkipVerify: wsNoSSLVerify,
			Bus:                bus,
			ClientID:           clientID,
		})
		if err != nil {
			return nil, "", err
		}
		return b, fmt.Sprintf("WebSocket: %s (bus %d)", wsURL, bus), nil
	}

	b, err := bridge.DialUDP(bridge.UDPConfig{
		Group:    udpGroup,
		Port:     udpPort,
		Bus:      bus,
		ClientID: clientID,
	})
	if err != nil {
		return nil, "", err
	}
	group := udpGroup
	if group == "" {
		group = tritium.BroadcastGroup
	}
	port := udpPort
	if port == 0 {
		port = tritium.Port
	}
	return b, fmt.Sprintf("UDP multicast: %s:%d (bus %d)", group, port, bus), nil
}
