// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/control"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/testutil"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/server"
)

func sampleStatus() *server.Status {
	return &server.Status{
		Socket: "wayland-1",
		Clients: []server.ClientStatus{
			{ID: 1, PID: 100, UID: 1000, Process: "foot", Objects: 6},
			{ID: 2, PID: 200, UID: 1000, Process: "mpv", Objects: 3},
		},
		Seats:   []server.SeatStatus{{ID: 0, Name: "seat0", Keyboard: true, Focus: 5}},
		Outputs: []server.OutputStatus{{ID: 1, Name: "DP-1", Width: 2560, Height: 1440, Scale: 1}},
		Registry: registry.Snapshot{Clients: []registry.ClientSnapshot{
			{ID: 1, Slots: []registry.SlotSnapshot{{Kind: registry.KindSurface, Keys: []engine.ObjectKey{7, 8}}}},
			{ID: 2},
		}},
	}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestPollReadsControlSocket(t *testing.T) {
	path := filepath.Join(testutil.SocketDir(t), "control.sock")
	controlServer := control.NewServer(path, logging.Discard())
	controlServer.Handle("status", func(context.Context, []byte) (any, error) { return sampleStatus(), nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- controlServer.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		testutil.RequireReceive(t, done, 5*time.Second, "Serve did not return")
	})
	testutil.RequireClosed(t, controlServer.Ready(), 5*time.Second, "control server never became ready")

	msg := newModel(path, time.Second).poll()()
	result, ok := msg.(statusMsg)
	if !ok {
		t.Fatalf("poll returned %T, want statusMsg", msg)
	}
	if result.err != nil {
		t.Fatalf("poll: %v", result.err)
	}
	if len(result.status.Clients) != 2 || result.status.Clients[1].Process != "mpv" {
		t.Fatalf("clients = %+v, want foot and mpv", result.status.Clients)
	}
	if got := result.status.Registry.Count(registry.KindSurface); got != 2 {
		t.Fatalf("surfaces = %d, want 2", got)
	}
}

func TestViewShowsSelectedClient(t *testing.T) {
	m := update(t, newModel("/run/waybridge.sock", time.Second), statusMsg{status: sampleStatus(), at: time.Now()})
	view := m.View()
	for _, want := range []string{"Clients (2)", "foot", "Objects of client-1", "seat0", "DP-1", "2560x1440"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("selected = %d after down, want 1", m.selected)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("selected = %d past the last client, want 1", m.selected)
	}
	if view := m.View(); !strings.Contains(view, "Objects of client-2") {
		t.Fatalf("view does not follow selection:\n%s", view)
	}
}

func TestSelectionClampsWhenClientsLeave(t *testing.T) {
	m := update(t, newModel("sock", time.Second), statusMsg{status: sampleStatus()})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	fewer := sampleStatus()
	fewer.Clients = fewer.Clients[:1]
	m = update(t, m, statusMsg{status: fewer})
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}
}

func TestPollErrorKeepsLastStatus(t *testing.T) {
	m := update(t, newModel("sock", time.Second), statusMsg{status: sampleStatus()})
	m = update(t, m, statusMsg{err: errors.New("connection refused")})
	if m.status == nil {
		t.Fatalf("status dropped after a failed poll")
	}
	if view := m.View(); !strings.Contains(view, "connection refused") || !strings.Contains(view, "foot") {
		t.Fatalf("view should show the error and the last status:\n%s", view)
	}
}

func TestViewTruncatesToWidth(t *testing.T) {
	m := update(t, newModel("sock", time.Second), statusMsg{status: sampleStatus()})
	m = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	for _, line := range strings.Split(m.View(), "\n") {
		if width := ansi.StringWidth(line); width > 20 {
			t.Fatalf("line %q is %d cells wide, want at most 20", line, width)
		}
	}
}
