// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"testing"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/engine/wltest"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/server"
)

type xdgClient struct {
	*wltest.Client
	compositor uint32
	wmBase     uint32
}

func dialXdg(t *testing.T, h *harness) *xdgClient {
	t.Helper()
	client := h.dial(t)
	return &xdgClient{
		Client:     client,
		compositor: client.Bind(engine.CompositorInterface, 4),
		wmBase:     client.Bind(engine.XdgWmBaseInterface, 3),
	}
}

// surface creates a wl_surface and its xdg_surface.
func (c *xdgClient) surface() (surface, xdgSurface uint32) {
	surface = c.NewID(engine.SurfaceInterface)
	c.Request(c.compositor, "create_surface", surface)
	xdgSurface = c.NewID(engine.XdgSurfaceInterface)
	c.Request(c.wmBase, "get_xdg_surface", xdgSurface, surface)
	return surface, xdgSurface
}

func shellRequests(events []server.Event) []server.ShellRequest {
	return eventsOf[server.ShellRequest](events)
}

func TestXdgToplevelLifecycle(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := dialXdg(t, h)
	surface, xdgSurface := client.surface()
	toplevel := client.NewID(engine.XdgToplevelInterface)
	client.Request(xdgSurface, "get_toplevel", toplevel)
	events := client.Roundtrip(h.pump)

	if configures := wltest.Find(events, "xdg_toplevel", "configure"); len(configures) != 1 {
		t.Fatalf("toplevel configures = %v, want 1", configures)
	}
	surfaceConfigures := wltest.Find(events, "xdg_surface", "configure")
	if len(surfaceConfigures) != 1 {
		t.Fatalf("xdg_surface configures = %v, want 1", surfaceConfigures)
	}
	serial := surfaceConfigures[0].Uint(0)

	hostEvents := h.take()
	id := surfaceIdentity(t, hostEvents, surface)
	requests := shellRequests(hostEvents)
	if len(requests) != 1 || requests[0].Request != server.ShellNewToplevel || requests[0].Surface != id {
		t.Fatalf("shell requests = %+v, want new toplevel for %s", requests, id)
	}
	if requests[0].Resource.ID() != toplevel {
		t.Fatalf("new toplevel resource = %s, want xdg_toplevel@%d", requests[0].Resource, toplevel)
	}
	if kind, _ := h.server.SurfaceKind(id); kind != server.SurfaceToplevel {
		t.Fatalf("SurfaceKind = %s, want toplevel", kind)
	}

	client.Request(toplevel, "set_title", "editor")
	client.Request(toplevel, "set_app_id", "org.example.editor")
	client.Request(xdgSurface, "ack_configure", serial)
	client.Request(toplevel, "set_maximized")
	client.Request(surface, "commit")
	client.Roundtrip(h.pump)
	hostEvents = h.take()

	requests = shellRequests(hostEvents)
	want := []server.ShellRequestKind{server.ShellSetTitle, server.ShellSetAppID, server.ShellAckConfigure, server.ShellMaximize}
	if len(requests) != len(want) {
		t.Fatalf("shell requests = %+v, want %v", requests, want)
	}
	for i, kind := range want {
		if requests[i].Request != kind {
			t.Fatalf("shell request[%d] = %s, want %s", i, requests[i].Request, kind)
		}
	}
	if requests[0].Text != "editor" || requests[1].Text != "org.example.editor" {
		t.Fatalf("texts = %q, %q", requests[0].Text, requests[1].Text)
	}
	if requests[2].Serial != serial {
		t.Fatalf("ack serial = %d, want %d", requests[2].Serial, serial)
	}
	commits := eventsOf[server.Commit](hostEvents)
	if len(commits) != 1 || commits[0].SurfaceKind != server.SurfaceToplevel || commits[0].Attached {
		t.Fatalf("commits = %+v, want one toplevel commit without a buffer", commits)
	}
}

func TestXdgPopupUsesPositioner(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := dialXdg(t, h)
	_, parent := client.surface()
	client.Request(parent, "get_toplevel", client.NewID(engine.XdgToplevelInterface))

	positioner := client.NewID(engine.XdgPositionerInterface)
	client.Request(client.wmBase, "create_positioner", positioner)
	client.Request(positioner, "set_size", int32(40), int32(30))
	client.Request(positioner, "set_anchor_rect", int32(10), int32(20), int32(100), int32(50))
	client.Request(positioner, "set_anchor", uint32(8))
	client.Request(positioner, "set_gravity", uint32(8))

	child, xdgChild := client.surface()
	popup := client.NewID(engine.XdgPopupInterface)
	client.Request(xdgChild, "get_popup", popup, parent, positioner)
	events := client.Roundtrip(h.pump)

	configures := wltest.Find(events, "xdg_popup", "configure")
	if len(configures) != 1 {
		t.Fatalf("popup configures = %v, want 1", configures)
	}
	if x, y := configures[0].Int(0), configures[0].Int(1); x != 110 || y != 70 {
		t.Fatalf("popup position = %d,%d, want 110,70", x, y)
	}

	hostEvents := h.take()
	id := surfaceIdentity(t, hostEvents, child)
	var created *server.ShellRequest
	for _, request := range shellRequests(hostEvents) {
		if request.Request == server.ShellNewPopup {
			created = &request
		}
	}
	if created == nil {
		t.Fatalf("no new popup request in %v", hostEvents)
	}
	if created.Surface != id || created.Parent.ID() != parent {
		t.Fatalf("new popup = %+v, want %s under xdg_surface@%d", created, id, parent)
	}
	if created.Geometry != (server.Rect{X: 110, Y: 70, Width: 40, Height: 30}) {
		t.Fatalf("popup geometry = %+v", created.Geometry)
	}
	if created.Positioner.Anchor != 8 || created.Positioner.Width != 40 {
		t.Fatalf("popup positioner = %+v", created.Positioner)
	}

	client.Request(positioner, "set_offset", int32(5), int32(0))
	client.Request(popup, "reposition", positioner, uint32(42))
	events = client.Roundtrip(h.pump)
	repositioned := wltest.Find(events, "xdg_popup", "repositioned")
	if len(repositioned) != 1 || repositioned[0].Uint(0) != 42 {
		t.Fatalf("repositioned = %v, want token 42", repositioned)
	}
	requests := shellRequests(h.take())
	if len(requests) != 1 || requests[0].Request != server.ShellReposition || requests[0].Token != 42 ||
		requests[0].Geometry.X != 115 {
		t.Fatalf("shell requests = %+v, want reposition to x 115", requests)
	}
}

func TestIncompletePositionerIsProtocolError(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := dialXdg(t, h)
	_, parent := client.surface()
	client.Request(parent, "get_toplevel", client.NewID(engine.XdgToplevelInterface))
	positioner := client.NewID(engine.XdgPositionerInterface)
	client.Request(client.wmBase, "create_positioner", positioner)
	client.Request(positioner, "set_size", int32(40), int32(30))

	_, xdgChild := client.surface()
	client.Request(xdgChild, "get_popup", client.NewID(engine.XdgPopupInterface), parent, positioner)
	client.WaitDisconnect(h.pump)

	protocolErrors := client.ProtocolErrors()
	if len(protocolErrors) != 1 || protocolErrors[0].Uint(0) != client.wmBase || protocolErrors[0].Uint(1) != 5 {
		t.Fatalf("protocol errors = %v, want invalid_positioner on xdg_wm_base@%d", protocolErrors, client.wmBase)
	}
}

func TestSurfaceTakesOneRoleObject(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := dialXdg(t, h)
	surface, _ := client.surface()
	client.Request(client.wmBase, "get_xdg_surface", client.NewID(engine.XdgSurfaceInterface), surface)
	client.WaitDisconnect(h.pump)

	protocolErrors := client.ProtocolErrors()
	if len(protocolErrors) != 1 || protocolErrors[0].Uint(0) != client.wmBase || protocolErrors[0].Uint(1) != 0 {
		t.Fatalf("protocol errors = %v, want role on xdg_wm_base@%d", protocolErrors, client.wmBase)
	}
}

func TestWlShellSurfaceRequests(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := h.dial(t)
	compositor := client.Bind(engine.CompositorInterface, 4)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	shell := client.Bind(engine.ShellInterface, 1)
	shellSurface := client.NewID(engine.ShellSurfaceInterface)
	client.Request(shell, "get_shell_surface", shellSurface, surface)
	client.Request(shellSurface, "set_toplevel")
	client.Request(shellSurface, "set_title", "terminal")
	client.Roundtrip(h.pump)

	requests := shellRequests(h.take())
	if len(requests) != 2 || requests[0].Request != server.ShellNewToplevel ||
		requests[1].Request != server.ShellSetTitle || requests[1].Text != "terminal" {
		t.Fatalf("shell requests = %+v, want new toplevel then set title", requests)
	}
}

func TestSubsurfaceRecordsParent(t *testing.T) {
	h := newHarness(t, server.Options{})
	client := h.dial(t)
	compositor := client.Bind(engine.CompositorInterface, 4)
	parent := client.NewID(engine.SurfaceInterface)
	child := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", parent)
	client.Request(compositor, "create_surface", child)
	subcompositor := client.Bind(engine.SubcompositorInterface, 1)
	subsurface := client.NewID(engine.SubsurfaceInterface)
	client.Request(subcompositor, "get_subsurface", subsurface, child, parent)
	client.Roundtrip(h.pump)

	events := h.take()
	childID := surfaceIdentity(t, events, child)
	var found bool
	for _, event := range eventsOf[server.Instantiation](events) {
		if event.Slot == registry.KindSubsurface {
			found = true
			if event.Surface != childID || event.Parent.ID() != parent {
				t.Fatalf("subsurface instantiation = %+v, want %s under wl_surface@%d", event, childID, parent)
			}
		}
	}
	if !found {
		t.Fatalf("no subsurface instantiation in %v", events)
	}

	client.Request(subcompositor, "get_subsurface", client.NewID(engine.SubsurfaceInterface), parent, parent)
	client.WaitDisconnect(h.pump)
	if protocolErrors := client.ProtocolErrors(); len(protocolErrors) != 1 {
		t.Fatalf("protocol errors = %v, want one bad_parent", protocolErrors)
	}
}
