// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusCommandList = iota
	focusArgsInput
	focusButton
)

var (
	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("12"))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12")).
			Padding(0, 2)

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("10"))

	busyButtonStyle = buttonStyle.
			Background(lipgloss.Color("240"))
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	ctx      context.Context
	connMgr  *connectionManager
	connInfo string
	adapter  *link.Adapter

	commandList list.Model
	argsInput   textinput.Model
	selected    int

	eventLog      []eventLogEntry
	maxLogEntries int

	// Command in flight, shown until its settle delay has passed
	busy       bool
	pending    mbituart.Message
	lastResult string
	lastFailed bool

	// UI state
	focusedField   int
	width          int
	height         int
	synchronized   bool
	skippedLines   int
	prepared       bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlBatchMsg struct {
	events []interface{}
}

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

type preparedMsg struct {
	err error
}

type commandResultMsg struct {
	msg     mbituart.Message
	err     error
	elapsed time.Duration
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(ctx context.Context, connMgr *connectionManager, connInfo string) controlModel {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 36

	items := make([]list.Item, len(commandSpecs))
	for i, c := range commandSpecs {
		items[i] = c
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	commandList := list.New(items, delegate, 30, 10)
	commandList.Title = "Commands"
	commandList.SetShowStatusBar(false)
	commandList.SetShowHelp(false)
	commandList.SetFilteringEnabled(false)

	m := controlModel{
		ctx:           ctx,
		connMgr:       connMgr,
		connInfo:      connInfo,
		adapter:       connMgr.adapter,
		commandList:   commandList,
		argsInput:     ti,
		selected:      -1,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		focusedField:  focusCommandList,
		width:         80,
		height:        24,
	}
	m.syncSelection()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		return m, controlTickCmd()

	case controlBatchMsg:
		for _, ev := range msg.events {
			m.processEvent(ev)
		}

	case commandResultMsg:
		m.busy = false
		if msg.err != nil {
			m.lastResult = fmt.Sprintf("%s failed: %v", mbituart.FormatMessage(msg.msg), msg.err)
			m.lastFailed = true
			m.addLogEntry(m.lastResult, true)
		} else {
			m.lastResult = fmt.Sprintf("%s done in %v", mbituart.FormatMessage(msg.msg), msg.elapsed.Round(time.Millisecond))
			m.lastFailed = false
			m.addLogEntry("Sent "+mbituart.FormatMessage(msg.msg), false)
		}

	case preparedMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Failed to enable sensors: %v", msg.err), true)
		} else {
			m.prepared = true
			m.addLogEntry("Sensor reporting enabled", false)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.prepared = false
		m.synchronized = false
		m.skippedLines = 0
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)
		} else {
			m.addLogEntry("Connection lost - reconnecting...", true)
		}

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusArgsInput {
		m.argsInput, cmd = m.argsInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusCommandList {
		m.commandList, cmd = m.commandList.Update(msg)
		cmds = append(cmds, cmd)
		m.syncSelection()
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// q is text while typing arguments
		if m.focusedField != focusArgsInput {
			m.quitting = true
			return m, tea.Quit
		}

	case "r":
		if m.focusedField != focusArgsInput {
			m.adapter.Statistics().Reset()
			m.addLogEntry("Statistics reset", false)
			return m, nil
		}

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		return m.handleEnter()

	case "up", "k", "down", "j":
		if m.focusedField == focusCommandList {
			var cmd tea.Cmd
			m.commandList, cmd = m.commandList.Update(msg)
			m.syncSelection()
			return m, cmd
		}
	}

	// Pass through to focused component
	if m.focusedField == focusArgsInput {
		var cmd tea.Cmd
		m.argsInput, cmd = m.argsInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Only the list reacts to the mouse; the panels are laid out by lipgloss
	m.commandList, _ = m.commandList.Update(msg)
	m.syncSelection()

	return m, nil
}

func (m *controlModel) cycleFocus(delta int) *controlModel {
	maxFocus := focusButton
	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	// Skip the argument field for commands that take none
	if m.focusedField == focusArgsInput && m.selectedCommand().usage == "" {
		m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)
	}

	if m.focusedField == focusArgsInput {
		m.argsInput.Focus()
	} else {
		m.argsInput.Blur()
	}

	return m
}

func (m *controlModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.focusedField == focusCommandList {
		if m.selectedCommand().usage == "" {
			return m.sendCommand()
		}
		m.focusedField = focusArgsInput
		m.argsInput.Focus()
		return m, textinput.Blink
	}
	return m.sendCommand()
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Header
	s.WriteString(titleStyle.Render("MBITLINK CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	helpText := "q=quit Tab=switch r=reset stats"
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", connStatus, helpText)))
	s.WriteString("\n\n")

	// Layout: left panel (commands) | right panel (arguments)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 40 {
		rightWidth = 40
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusCommandList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	commandPanel := listStyle.Render(m.commandList.View())
	controlPanel := boxStyle.Width(rightWidth).Render(m.renderControlPanel())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, commandPanel, " ", controlPanel))
	s.WriteString("\n")

	s.WriteString(boxStyle.Width(m.width - 4).Render(renderStatistics(m.adapter.Statistics())))
	s.WriteString("\n")

	s.WriteString(boxStyle.Width(m.width - 4).Render(renderSensorPanel(m.adapter.State())))
	s.WriteString("\n")

	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.eventLog, 8)))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderControlPanel() string {
	var s strings.Builder

	c := m.selectedCommand()
	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Command:"), statsValueStyle.Render(c.title)))
	if c.usage != "" {
		s.WriteString(headerStyle.Render(c.name+" "+c.usage) + "\n\n")

		s.WriteString(statsLabelStyle.Render("Arguments: "))
		if m.focusedField == focusArgsInput {
			s.WriteString(m.argsInput.View())
		} else {
			// Show as plain text when not focused
			val := m.argsInput.Value()
			if val == "" {
				val = m.argsInput.Placeholder
			}
			s.WriteString(fmt.Sprintf("[%s]", val))
		}
	} else {
		s.WriteString(headerStyle.Render("(no arguments)"))
	}
	s.WriteString("\n\n")

	switch {
	case m.busy:
		s.WriteString(busyButtonStyle.Render("[ Settling... ]"))
		s.WriteString(" ")
		s.WriteString(headerStyle.Render(mbituart.FormatMessage(m.pending)))
	case m.focusedField == focusButton:
		s.WriteString(focusedButtonStyle.Render("[ Send ]"))
	default:
		s.WriteString(buttonStyle.Render("[ Send ]"))
	}
	s.WriteString("\n\n")

	switch {
	case m.lastResult == "":
		s.WriteString(headerStyle.Render("No command sent yet"))
	case m.lastFailed:
		s.WriteString(errorStyle.Render(m.lastResult))
	default:
		s.WriteString(statsValueStyle.Render(m.lastResult))
	}
	s.WriteString("\n")

	if !m.prepared {
		s.WriteString(warningStyle.Render("Enabling sensor reporting..."))
	} else if !m.synchronized {
		s.WriteString(warningStyle.Render("Waiting for first line..."))
	}

	return s.String()
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processEvent(ev interface{}) {
	switch e := ev.(type) {
	case link.Rejection:
		if !m.synchronized {
			m.skippedLines++
			return
		}
		m.addLogEntry(fmt.Sprintf("%q: %v", e.Line, e.Err), true)

	case link.Event:
		if !m.synchronized {
			m.synchronized = true
			if m.skippedLines > 0 {
				m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d lines", m.skippedLines), false)
			} else {
				m.addLogEntry("Synchronized", false)
			}
		}
		switch e.Reading.Field {
		case mbituart.FieldGesture, mbituart.FieldButtonA, mbituart.FieldButtonB, mbituart.FieldTouchLogo:
			m.addLogEntry(mbituart.FormatReading(e.Reading), false)
		}
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *controlModel) sendCommand() (tea.Model, tea.Cmd) {
	// Don't allow commands while connection is lost
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}
	if m.busy {
		m.addLogEntry(fmt.Sprintf("Busy: %s is still settling", mbituart.FormatMessage(m.pending)), true)
		return m, nil
	}

	c := m.selectedCommand()
	input := m.argsInput.Value()
	if input == "" {
		input = m.argsInput.Placeholder
	}

	msg, err := c.buildFromInput(input)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid %s command: %v", c.name, err), true)
		return m, nil
	}

	m.busy = true
	m.pending = msg
	return m, issueCmd(m.ctx, m.adapter, msg)
}

// issueCmd sends msg and reports back once its settle delay has passed.
func issueCmd(ctx context.Context, adapter *link.Adapter, msg mbituart.Message) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := adapter.Issue(ctx, msg)
		return commandResultMsg{msg: msg, err: err, elapsed: time.Since(start)}
	}
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) selectedCommand() commandSpec {
	idx := m.commandList.Index()
	if idx < 0 || idx >= len(commandSpecs) {
		return commandSpecs[0]
	}
	return commandSpecs[idx]
}

// syncSelection clears the argument field when the selected command changes.
func (m *controlModel) syncSelection() {
	idx := m.commandList.Index()
	if idx == m.selected {
		return
	}
	m.selected = idx
	c := m.selectedCommand()
	m.argsInput.SetValue("")
	m.argsInput.Placeholder = c.placeholder
}

func (m *controlModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.commandList.SetSize(28, listHeight)
}
