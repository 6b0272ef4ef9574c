// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/waybridge/lib/control"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/server"
)

const pollTimeout = 2 * time.Second

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(lipgloss.Color("255"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type statusMsg struct {
	status *server.Status
	err    error
	at     time.Time
}

type tickMsg struct{}

type model struct {
	socketPath string
	interval   time.Duration
	keys       keyMap

	status  *server.Status
	err     error
	updated time.Time

	selected int
	width    int
}

func newModel(socketPath string, interval time.Duration) model {
	return model{socketPath: socketPath, interval: interval, keys: defaultKeyMap}
}

func (m model) Init() tea.Cmd { return m.poll() }

// poll fetches one status from the control socket.
func (m model) poll() tea.Cmd {
	socketPath := m.socketPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()
		var status server.Status
		if err := control.Call(ctx, socketPath, "status", nil, &status); err != nil {
			return statusMsg{err: err, at: time.Now()}
		}
		return statusMsg{status: &status, at: time.Now()}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.status != nil && m.selected < len(m.status.Clients)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.poll()
		}
		return m, nil
	case tickMsg:
		return m, m.poll()
	case statusMsg:
		m.err = msg.err
		if msg.status != nil {
			m.status = msg.status
			m.updated = msg.at
			m.selected = min(m.selected, max(len(m.status.Clients)-1, 0))
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) View() string {
	var lines []string
	lines = append(lines, headerStyle.Render("waybridge-top  "+m.socketPath))
	if m.err != nil {
		lines = append(lines, errorStyle.Render("error: "+m.err.Error()))
	}
	if m.status == nil {
		lines = append(lines, faintStyle.Render("waiting for status..."))
		return m.fit(lines)
	}
	status := m.status
	lines = append(lines, faintStyle.Render(fmt.Sprintf("display %s  updated %s",
		status.Socket, m.updated.Format(time.TimeOnly))), "")

	lines = append(lines, sectionStyle.Render(fmt.Sprintf("Clients (%d)", len(status.Clients))))
	if len(status.Clients) == 0 {
		lines = append(lines, faintStyle.Render("  none connected"))
	}
	for i, client := range status.Clients {
		row := fmt.Sprintf("  %-12s pid %-8d uid %-6d %-20s %4d objects",
			client.ID, client.PID, client.UID, client.Process, client.Objects)
		if i == m.selected {
			row = selectedStyle.Render(row)
		}
		lines = append(lines, row)
	}

	if m.selected < len(status.Clients) {
		lines = append(lines, "")
		lines = append(lines, clientDetail(status.Registry, status.Clients[m.selected])...)
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Seats (%d)", len(status.Seats))))
	for _, seat := range status.Seats {
		capabilities := []string{}
		if seat.Keyboard {
			capabilities = append(capabilities, "keyboard")
		}
		if seat.Cursor {
			capabilities = append(capabilities, "pointer")
		}
		focus := "-"
		if seat.Focus.Valid() {
			focus = seat.Focus.String()
		}
		lines = append(lines, fmt.Sprintf("  %-10s %-16s [%s] focus %s",
			seat.ID, seat.Name, strings.Join(capabilities, ","), focus))
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Outputs (%d)", len(status.Outputs))))
	for _, output := range status.Outputs {
		lines = append(lines, fmt.Sprintf("  %-10s %-16s %dx%d scale %d",
			output.ID, output.Name, output.Width, output.Height, output.Scale))
	}

	lines = append(lines, "", m.helpLine())
	return m.fit(lines)
}

// clientDetail lists the registry slots held by client.
func clientDetail(snapshot registry.Snapshot, client server.ClientStatus) []string {
	lines := []string{sectionStyle.Render("Objects of " + client.ID.String())}
	for _, record := range snapshot.Clients {
		if record.ID != client.ID {
			continue
		}
		for _, slot := range record.Slots {
			lines = append(lines, fmt.Sprintf("  %-24s %d", slot.Kind, len(slot.Keys)))
		}
		for _, seat := range record.Seats {
			lines = append(lines, fmt.Sprintf("  %-24s pointers %d keyboards %d touches %d",
				"wl_seat "+seat.SeatID.String(), len(seat.Pointers), len(seat.Keyboards), len(seat.Touches)))
		}
	}
	return lines
}

func (m model) helpLine() string {
	var parts []string
	for _, binding := range m.keys.help() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return faintStyle.Render(strings.Join(parts, "  "))
}

// fit truncates every line to the terminal width.
func (m model) fit(lines []string) string {
	if m.width > 0 {
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, m.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}
