// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// Shared styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// TUI model
type model struct {
	connInfo      string
	showAll       bool
	adapter       *link.Adapter
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	skippedLines  int
	connected     time.Time
	width         int
	height        int
	quitting      bool
	closedErr     error
}

// Messages
type tickMsg time.Time
type lineMsg struct {
	event            interface{}
	validationErrors []mbituart.ValidationError
}
type connClosedMsg struct {
	err error
}

// formatUptime formats a duration as a human-friendly string
func formatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, adapter *link.Adapter, showAll bool) model {
	return model{
		connInfo:      connInfo,
		showAll:       showAll,
		adapter:       adapter,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		connected:     time.Now(),
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.adapter.Statistics().Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case connClosedMsg:
		m.closedErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
		} else {
			m.addLogEntry("Connection closed", true)
		}

	case lineMsg:
		m.handleLine(msg)
	}

	return m, nil
}

func (m *model) handleLine(msg lineMsg) {
	switch ev := msg.event.(type) {
	case link.Rejection:
		if !m.synchronized {
			// Partial lines are normal until the first complete one
			m.skippedLines++
			return
		}
		for _, v := range msg.validationErrors {
			m.addLogEntry(fmt.Sprintf("%q: %s", ev.Line, v.Message), true)
		}
		if len(msg.validationErrors) == 0 && ev.Err != nil {
			m.addLogEntry(fmt.Sprintf("%q: %v", ev.Line, ev.Err), true)
		}

	case link.Event:
		if !m.synchronized {
			m.synchronized = true
			if m.skippedLines > 0 {
				m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d lines", m.skippedLines), false)
			} else {
				m.addLogEntry("Synchronized", false)
			}
		}
		for _, v := range msg.validationErrors {
			m.addLogEntry(fmt.Sprintf("%q: %s", ev.Reading.Line, v.Message), false)
		}
		if m.showAll || ev.Reading.Field == mbituart.FieldGesture {
			m.addLogEntry(mbituart.FormatReading(ev.Reading), false)
		}
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("MBITLINK - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset stats, 'q' quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All lines"
			}
			return "Errors and gestures"
		}())))
	s.WriteString("\n\n")

	switch {
	case m.closedErr != nil:
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for first line..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Receiving"))
		s.WriteString(headerStyle.Render(" for " + formatUptime(time.Since(m.connected))))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(renderStatistics(m.adapter.Statistics())))
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("Sensors:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(renderSensorPanel(m.adapter.State())))
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.eventLog, m.height-26)))

	return s.String()
}

// renderStatistics renders the line counters and rates.
func renderStatistics(stats *mbituart.Statistics) string {
	c := stats.Counts()
	lineRate, errorRate := stats.Rates()

	var validPercent, errorPercent float64
	if c.TotalLines > 0 {
		validPercent = float64(c.ValidLines) * 100.0 / float64(c.TotalLines)
		errorPercent = float64(c.Rejected) * 100.0 / float64(c.TotalLines)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", c.TotalLines)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", c.ValidLines, validPercent)),
		statsLabelStyle.Render("Rejected:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", c.Rejected, errorPercent)),
	))
	if c.ShortVectors > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Short vectors:"), warningStyle.Render(fmt.Sprintf("%d", c.ShortVectors))))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(fmt.Sprintf("%d", c.CommandsSent)),
		statsLabelStyle.Render("Send errors:"), func() string {
			if c.SendErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", c.SendErrors))
			}
			return statsValueStyle.Render("0")
		}(),
	))
	b.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Line Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f lines/s", lineRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if errorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", errorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", errorRate))
		}(),
	))
	return b.String()
}

// renderSensorPanel renders the LED matrix next to the sensor readings.
func renderSensorPanel(state *mbituart.SensorState) string {
	snap := state.Snapshot()

	flag := func(v int) string {
		if v != 0 {
			return statsValueStyle.Render("●")
		}
		return headerStyle.Render("○")
	}
	axes := func(v []int32) string {
		parts := make([]string, len(v))
		for i, a := range v {
			parts[i] = fmt.Sprintf("%6d", a)
		}
		return strings.Join(parts, " ")
	}

	var r strings.Builder
	r.WriteString(fmt.Sprintf("%s A %s  B %s   %s logo %s  0 %s  1 %s  2 %s\n",
		statsLabelStyle.Render("Buttons:"), flag(snap.ButtonA), flag(snap.ButtonB),
		statsLabelStyle.Render("Touch:"), flag(snap.TouchLogo),
		flag(snap.TouchPins[0]), flag(snap.TouchPins[1]), flag(snap.TouchPins[2]),
	))
	gesture := snap.Gesture
	if gesture == "" {
		gesture = "-"
	}
	r.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Gesture:"), statsValueStyle.Render(gesture),
		statsLabelStyle.Render("Sound:"), flag(snap.PlayingSound),
	))
	r.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Light:"), statsValueStyle.Render(fmt.Sprintf("%3d", snap.LightLevel)),
		statsLabelStyle.Render("Temp:"), statsValueStyle.Render(fmt.Sprintf("%d°C", snap.Temperature)),
		statsLabelStyle.Render("Mic:"), statsValueStyle.Render(fmt.Sprintf("%3d", snap.Microphone)),
	))
	r.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Magnetic:"), statsValueStyle.Render(axes(snap.MagneticForce[:]))))
	r.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Accel:   "), statsValueStyle.Render(axes(snap.Acceleration[:]))))
	r.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Rotation:"), statsValueStyle.Render(axes(snap.Rotation[:]))))

	var tilts []string
	for _, dir := range []mbituart.TiltDirection{mbituart.TiltFront, mbituart.TiltBack, mbituart.TiltLeft, mbituart.TiltRight} {
		if tilted, _ := state.IsTilted(dir); tilted {
			tilts = append(tilts, string(dir))
		}
	}
	tilt := "level"
	if len(tilts) > 0 {
		tilt = strings.Join(tilts, "+")
	}
	r.WriteString(fmt.Sprintf("%s %s", statsLabelStyle.Render("Tilt:"), warningStyle.Render(tilt)))

	return lipgloss.JoinHorizontal(lipgloss.Top, renderMatrix(snap.LEDMatrix), "   ", r.String())
}

// renderMatrix draws the 5x5 display, column 0 on the left.
func renderMatrix(rows [mbituart.MatrixRows]byte) string {
	var b strings.Builder
	for i, row := range rows {
		for col := 0; col < 5; col++ {
			if row&(1<<col) != 0 {
				b.WriteString(errorStyle.Render("█"))
			} else {
				b.WriteString(headerStyle.Render("·"))
			}
		}
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderEventLog renders the last height entries.
func renderEventLog(entries []eventLogEntry, height int) string {
	if height < 5 {
		height = 5
	}
	if len(entries) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	startIdx := len(entries) - height
	if startIdx < 0 {
		startIdx = 0
	}

	var b strings.Builder
	for i := startIdx; i < len(entries); i++ {
		entry := entries[i]
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message)))
		}
	}
	return b.String()
}
