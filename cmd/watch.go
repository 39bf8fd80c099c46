// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tritium Tools

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tritium-tools/triscope/pkg/bridge"
	"github.com/tritium-tools/triscope/pkg/tritium"
)

var watchShowAll bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live terminal dashboard of bus traffic",
	Long: `Full-screen dashboard showing per-device telemetry, bus statistics
and an event log, updated live.

Each device seen on the bus gets one panel tracking its latest heartbeat,
status flags, measurements and odometer. Malformed frames are logged as
errors; use --show-all to log every decoded message as well.

Keys: q to quit, up/down to scroll the event log.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchShowAll, "show-all", false, "Log every decoded message (not just errors)")
}

// Event log entry
type eventEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Per-device telemetry snapshot, filled in as messages arrive.
type deviceState struct {
	addr     tritium.DeviceAddress
	lastSeen time.Time

	heartbeat   *tritium.Heartbeat
	status      *tritium.Status
	busMeas     *tritium.BusMeasurement
	velocity    *tritium.VelocityMeasurement
	temperature *tritium.TemperatureMeasurement
	odometer    *tritium.Odometer
}

// Messages
type watchTickMsg time.Time
type watchFrameMsg struct {
	frame   tritium.RawFrame
	decoded tritium.Decoded
	ok      bool
	err     error
}
type watchBusErrMsg struct{ err error }

type watchModel struct {
	connInfo string
	showAll  bool

	stats   *tritium.Statistics
	devices map[tritium.DeviceAddress]*deviceState

	events    []eventEntry
	maxEvents int
	log       viewport.Model
	follow    bool

	width    int
	height   int
	quitting bool
	busErr   error
}

func initialWatchModel(connInfo string, showAll bool) watchModel {
	log := viewport.New(76, 10)
	return watchModel{
		connInfo:  connInfo,
		showAll:   showAll,
		stats:     tritium.NewStatistics(),
		devices:   make(map[tritium.DeviceAddress]*deviceState),
		events:    make([]eventEntry, 0),
		maxEvents: 200,
		log:       log,
		follow:    true,
		width:     80,
		height:    24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		watchTickCmd(),
		tea.EnterAltScreen,
	)
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "down", "pgup", "pgdown":
			m.follow = false
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			if m.log.AtBottom() {
				m.follow = true
			}
			return m, cmd
		case "end":
			m.follow = true
			m.log.GotoBottom()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Width = msg.Width - 4
		logHeight := msg.Height - 16 - 3*len(m.devices)
		if logHeight < 5 {
			logHeight = 5
		}
		m.log.Height = logHeight
		m.refreshLog()

	case watchTickMsg:
		m.stats.CalculateRates()
		return m, watchTickCmd()

	case watchBusErrMsg:
		m.busErr = msg.err
		m.addEvent(fmt.Sprintf("BUS ERROR: %v", msg.err), true)

	case watchFrameMsg:
		m.stats.Update(&msg.frame, msg.decoded, msg.ok, msg.err)
		if msg.err != nil {
			m.addEvent(fmt.Sprintf("MALFORMED: %v", msg.err), true)
		} else if msg.ok {
			m.applyDecoded(msg.decoded)
			if m.showAll {
				m.addEvent(fmt.Sprintf("%s from 0x%02X",
					tritium.SelectorName(msg.decoded.Selector), uint8(msg.decoded.Source)), false)
			}
		}
	}

	return m, nil
}

func (m *watchModel) addEvent(message string, isError bool) {
	m.events = append(m.events, eventEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}
	m.refreshLog()
}

func (m *watchModel) applyDecoded(d tritium.Decoded) {
	dev, ok := m.devices[d.Source]
	if !ok {
		dev = &deviceState{addr: d.Source}
		m.devices[d.Source] = dev
	}
	dev.lastSeen = d.Time

	switch v := d.Message.(type) {
	case tritium.Heartbeat:
		dev.heartbeat = &v
	case tritium.Status:
		if dev.status != nil && v.FaultFlags != dev.status.FaultFlags {
			m.addEvent(fmt.Sprintf("0x%02X fault flags changed: 0x%04X -> 0x%04X",
				uint8(d.Source), dev.status.FaultFlags, v.FaultFlags), v.FaultFlags != 0)
		}
		dev.status = &v
	case tritium.BusMeasurement:
		dev.busMeas = &v
	case tritium.VelocityMeasurement:
		dev.velocity = &v
	case tritium.TemperatureMeasurement:
		dev.temperature = &v
	case tritium.Odometer:
		dev.odometer = &v
	}
}

func (m *watchModel) refreshLog() {
	var b strings.Builder
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	if len(m.events) == 0 {
		b.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, e := range m.events {
		ts := headerStyle.Render(e.timestamp.Format("15:04:05.000"))
		if e.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, errorStyle.Render("✗ "+e.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, infoStyle.Render("ℹ "+e.message)))
		}
	}
	m.log.SetContent(b.String())
	if m.follow {
		m.log.GotoBottom()
	}
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)
	warnStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("TRISCOPE - BUS WATCH"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.busErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Bus error: %v", m.busErr)))
		s.WriteString("\n\n")
	}

	// Statistics box
	m.stats.CalculateRates()
	var decodedPercent float64
	if m.stats.TotalFrames > 0 {
		decodedPercent = float64(m.stats.DecodedFrames) * 100.0 / float64(m.stats.TotalFrames)
	}
	errorCount := m.stats.ReservedBitsSet + m.stats.ShortPayloads + m.stats.OutOfRange

	stat := strings.Builder{}
	stat.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		labelStyle.Render("Decoded:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.DecodedFrames, decodedPercent)),
		labelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", errorCount)),
	))
	if m.stats.ForeignFrames > 0 || m.stats.UnknownSelectors > 0 {
		stat.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Foreign:"), headerStyle.Render(fmt.Sprintf("%d", m.stats.ForeignFrames)),
			labelStyle.Render("Unknown selector:"), headerStyle.Render(fmt.Sprintf("%d", m.stats.UnknownSelectors)),
		))
	}
	stat.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f f/s", m.stats.FrameRate)),
		labelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return valueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))
	s.WriteString(boxStyle.Render(stat.String()))
	s.WriteString("\n\n")

	// Device panels
	if len(m.devices) > 0 {
		addrs := make([]tritium.DeviceAddress, 0, len(m.devices))
		for a := range m.devices {
			addrs = append(addrs, a)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

		for _, a := range addrs {
			dev := m.devices[a]
			line := strings.Builder{}
			line.WriteString(labelStyle.Render(fmt.Sprintf("Device 0x%02X", uint8(a))))
			if stale := time.Since(dev.lastSeen); stale > 3*tritium.HeartbeatInterval {
				line.WriteString(warnStyle.Render(fmt.Sprintf("  (stale, last seen %.0fs ago)", stale.Seconds())))
			}
			line.WriteString("\n")

			if dev.heartbeat != nil {
				line.WriteString(fmt.Sprintf("%s %s\n",
					labelStyle.Render("Heartbeat:"),
					valueStyle.Render(fmt.Sprintf("seq %d  %d kbit/s  rev %d",
						dev.heartbeat.Sequence, dev.heartbeat.DataRate, dev.heartbeat.ProtoRev))))
			}
			if dev.status != nil {
				flags := valueStyle.Render("OK")
				if dev.status.FaultFlags != 0 {
					flags = errorStyle.Render(fmt.Sprintf("FAULT 0x%04X", dev.status.FaultFlags))
				} else if dev.status.WarnFlags != 0 {
					flags = warnStyle.Render(fmt.Sprintf("WARN 0x%04X", dev.status.WarnFlags))
				}
				line.WriteString(fmt.Sprintf("%s %s  %s %d\n",
					labelStyle.Render("Status:"), flags,
					labelStyle.Render("Errors:"), dev.status.ErrorCount))
			}
			if dev.busMeas != nil {
				line.WriteString(fmt.Sprintf("%s %s\n",
					labelStyle.Render("Bus:"),
					valueStyle.Render(fmt.Sprintf("%.1f V  %.1f A", dev.busMeas.BusVoltage, dev.busMeas.BusCurrent))))
			}
			if dev.velocity != nil {
				line.WriteString(fmt.Sprintf("%s %s\n",
					labelStyle.Render("Velocity:"),
					valueStyle.Render(fmt.Sprintf("%.0f RPM  %.1f m/s", dev.velocity.MotorRPM, dev.velocity.VehicleMS))))
			}
			if dev.temperature != nil {
				line.WriteString(fmt.Sprintf("%s %s\n",
					labelStyle.Render("Temp:"),
					valueStyle.Render(fmt.Sprintf("heatsink %.1f°C  motor %.1f°C", dev.temperature.HeatsinkC, dev.temperature.MotorC))))
			}
			if dev.odometer != nil {
				line.WriteString(fmt.Sprintf("%s %s\n",
					labelStyle.Render("Odometer:"),
					valueStyle.Render(fmt.Sprintf("%.1f km  %.2f Ah", dev.odometer.DistanceM/1000, dev.odometer.ChargeAh))))
			}
			s.WriteString(boxStyle.Render(strings.TrimRight(line.String(), "\n")))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.log.View()))

	return s.String()
}

func runWatch(cmd *cobra.Command, args []string) error {
	bus, connInfo, err := OpenBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	m := initialWatchModel(connInfo, watchShowAll)
	p := tea.NewProgram(m)

	// Poll pump goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			f, ok, err := bus.Poll()
			if err != nil {
				if err == bridge.ErrDroppedFrame {
					p.Send(watchBusErrMsg{err: err})
					continue
				}
				p.Send(watchBusErrMsg{err: err})
				return
			}
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			d, decoded, derr := tritium.Dispatch(&f, time.Now())
			p.Send(watchFrameMsg{frame: f, decoded: d, ok: decoded, err: derr})
		}
	}()

	_, err = p.Run()
	return err
}
