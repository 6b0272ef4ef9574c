// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/engine/wltest"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/server"
)

func TestCreateSeatRejectsDuplicateID(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(1, "seat1"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	if err := h.server.CreateSeat(1, "again"); !errors.Is(err, server.ErrSeatExists) {
		t.Fatalf("second CreateSeat = %v, want ErrSeatExists", err)
	}
	seat, ok := h.server.Seat(1)
	if !ok || seat.Name() != "seat1" {
		t.Fatalf("Seat(1) = %v, %v, want seat1", seat, ok)
	}
}

func TestKeyboardAddDelSymmetry(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}

	if !h.server.AddKeyboard(0, 200, 25) {
		t.Fatalf("AddKeyboard = false, want true")
	}
	if h.server.AddKeyboard(0, 400, 50) {
		t.Fatalf("second AddKeyboard = true, want false")
	}
	keyboard, ok := h.server.Keyboard(0)
	if !ok || keyboard.RepeatDelay != 200 || keyboard.RepeatRate != 25 {
		t.Fatalf("Keyboard(0) = %+v, %v, want delay 200 rate 25", keyboard, ok)
	}
	if !h.server.DelKeyboard(0) {
		t.Fatalf("DelKeyboard = false, want true")
	}
	if _, ok := h.server.Keyboard(0); ok {
		t.Fatalf("Keyboard(0) present after DelKeyboard")
	}
	if h.server.DelKeyboard(0) {
		t.Fatalf("second DelKeyboard = true, want false")
	}
	if !h.server.AddKeyboard(0, 200, 25) {
		t.Fatalf("AddKeyboard after DelKeyboard = false, want true")
	}
	if h.server.AddKeyboard(9, 200, 25) {
		t.Fatalf("AddKeyboard on an unknown seat = true, want false")
	}
}

func TestCursorAddDel(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	if !h.server.AddCursor(0) || h.server.AddCursor(0) {
		t.Fatalf("AddCursor twice did not succeed exactly once")
	}
	if _, ok := h.server.Cursor(0); !ok {
		t.Fatalf("Cursor(0) missing after AddCursor")
	}
	if !h.server.DelCursor(0) || h.server.DelCursor(0) {
		t.Fatalf("DelCursor twice did not succeed exactly once")
	}
	if _, ok := h.server.Cursor(0); ok {
		t.Fatalf("Cursor(0) present after DelCursor")
	}
}

func lastCapabilities(t *testing.T, events []wltest.Event, seat uint32) uint32 {
	t.Helper()
	var value uint32
	found := false
	for _, event := range wltest.Find(events, "wl_seat", "capabilities") {
		if event.Object == seat {
			value, found = event.Uint(0), true
		}
	}
	if !found {
		t.Fatalf("no capabilities event for wl_seat@%d in %v", seat, events)
	}
	return value
}

func TestCapabilitiesBroadcastToBoundSeats(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	client := h.dial(t)
	seat := client.Bind(engine.SeatInterface, 5)
	events := client.Roundtrip(h.pump)
	if got := lastCapabilities(t, events, seat); got != 0 {
		t.Fatalf("initial capabilities = %#x, want 0", got)
	}
	names := wltest.Find(events, "wl_seat", "name")
	if len(names) != 1 || names[0].String(0) != "seat0" {
		t.Fatalf("name events = %v, want seat0", names)
	}

	h.server.AddKeyboard(0, 200, 25)
	h.server.AddCursor(0)
	if got := lastCapabilities(t, client.Roundtrip(h.pump), seat); got != 3 {
		t.Fatalf("capabilities = %#x, want pointer|keyboard", got)
	}
	h.server.DelKeyboard(0)
	if got := lastCapabilities(t, client.Roundtrip(h.pump), seat); got != 1 {
		t.Fatalf("capabilities = %#x, want pointer", got)
	}
}

func TestKeyboardReceivesKeymapAndRepeat(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	h.server.AddKeyboard(0, 200, 25)
	client := h.dial(t)
	seat := client.Bind(engine.SeatInterface, 5)
	keyboard := client.NewID(engine.KeyboardInterface)
	client.Request(seat, "get_keyboard", keyboard)
	events := client.Roundtrip(h.pump)

	keymaps := wltest.Find(events, "wl_keyboard", "keymap")
	if len(keymaps) != 1 || keymaps[0].Uint(0) != 0 {
		t.Fatalf("keymap events = %v, want one no_keymap", keymaps)
	}
	repeats := wltest.Find(events, "wl_keyboard", "repeat_info")
	if len(repeats) != 1 || repeats[0].Int(0) != 25 || repeats[0].Int(1) != 200 {
		t.Fatalf("repeat_info events = %v, want rate 25 delay 200", repeats)
	}

	instantiations := eventsOf[server.Instantiation](h.take())
	last := instantiations[len(instantiations)-1]
	if last.Resource.ID() != keyboard || last.Seat != 0 || last.Parent.ID() != seat {
		t.Fatalf("keyboard instantiation = %+v, want wl_keyboard@%d under wl_seat@%d", last, keyboard, seat)
	}
	records := h.server.Registry().SeatRecords(0)
	if len(records) != 1 || len(records[0].Keyboards()) != 1 {
		t.Fatalf("seat records = %v, want one seat with one keyboard", records)
	}
}

func TestKeyboardFocusFollowsSurface(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	h.server.AddKeyboard(0, 200, 25)
	client := h.dial(t)
	compositor := client.Bind(engine.CompositorInterface, 4)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	seat := client.Bind(engine.SeatInterface, 5)
	keyboard := client.NewID(engine.KeyboardInterface)
	client.Request(seat, "get_keyboard", keyboard)
	client.Roundtrip(h.pump)
	id := surfaceIdentity(t, h.take(), surface)

	if h.server.SetKeyboardFocus(0, id+100) {
		t.Fatalf("SetKeyboardFocus on an unknown surface = true, want false")
	}
	if !h.server.SetKeyboardFocus(0, id) {
		t.Fatalf("SetKeyboardFocus = false, want true")
	}
	enters := wltest.Find(client.Roundtrip(h.pump), "wl_keyboard", "enter")
	if len(enters) != 1 || enters[0].Object != keyboard || enters[0].Uint(1) != surface {
		t.Fatalf("enter events = %v, want one on wl_keyboard@%d for wl_surface@%d", enters, keyboard, surface)
	}
	focus := eventsOf[server.SeatEvent](h.take())
	if len(focus) != 1 || focus[0].Change != server.SeatKeyboardFocus || focus[0].Surface != id {
		t.Fatalf("seat events = %+v, want focus on %s", focus, id)
	}

	client.Request(surface, "destroy")
	client.Roundtrip(h.pump)
	cleared := eventsOf[server.SeatEvent](h.take())
	if len(cleared) != 1 || cleared[0].Surface != 0 || cleared[0].Previous != id {
		t.Fatalf("seat events after destroy = %+v, want focus cleared from %s", cleared, id)
	}
	if current, _ := h.server.Seat(0); current.Focus() != 0 {
		t.Fatalf("focus after destroy = %s, want none", current.Focus())
	}
}

func TestSetCursorTracksImage(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	h.server.AddCursor(0)
	client := h.dial(t)
	compositor := client.Bind(engine.CompositorInterface, 4)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	seat := client.Bind(engine.SeatInterface, 5)
	pointer := client.NewID(engine.PointerInterface)
	client.Request(seat, "get_pointer", pointer)
	client.Request(pointer, "set_cursor", uint32(7), surface, int32(3), int32(4))
	client.Roundtrip(h.pump)
	events := h.take()
	id := surfaceIdentity(t, events, surface)

	images := eventsOf[server.SeatEvent](events)
	if len(images) != 1 || images[0].Change != server.SeatCursorImage || images[0].Surface != id ||
		images[0].HotspotX != 3 || images[0].HotspotY != 4 || images[0].Serial != 7 {
		t.Fatalf("seat events = %+v, want cursor image %s at 3,4", images, id)
	}
	cursor, _ := h.server.Cursor(0)
	if cursor.Surface != id || cursor.HotspotX != 3 || cursor.HotspotY != 4 {
		t.Fatalf("Cursor(0) = %+v, want %s at 3,4", cursor, id)
	}
	if kind, _ := h.server.SurfaceKind(id); kind != server.SurfaceCursor {
		t.Fatalf("SurfaceKind = %s, want cursor", kind)
	}

	client.Request(surface, "destroy")
	client.Roundtrip(h.pump)
	if cursor, _ := h.server.Cursor(0); cursor.Surface != 0 {
		t.Fatalf("cursor surface after destroy = %s, want none", cursor.Surface)
	}
}

func TestDestroySeatRemovesGlobal(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	if err := h.server.CreateSeat(1, "seat1"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	client := h.dial(t)
	if got := len(h.server.Seats()); got != 2 {
		t.Fatalf("Seats = %d, want 2", got)
	}

	if !h.server.DestroySeat(0) {
		t.Fatalf("DestroySeat = false, want true")
	}
	if h.server.DestroySeat(0) {
		t.Fatalf("second DestroySeat = true, want false")
	}
	client.Roundtrip(h.pump)
	var seats int
	for _, global := range client.Globals() {
		if global.Interface == "wl_seat" {
			seats++
		}
	}
	if seats != 1 {
		t.Fatalf("advertised seats = %d, want 1", seats)
	}
	if remaining := h.server.Seats(); len(remaining) != 1 || remaining[0].ID() != 1 {
		t.Fatalf("Seats = %v, want only seat 1", remaining)
	}
}

func TestKeyboardAndCursorAreCopies(t *testing.T) {
	h := newHarness(t, server.Options{})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	h.server.AddKeyboard(0, 200, 25)
	h.server.AddCursor(0)

	keyboard, _ := h.server.Keyboard(0)
	keyboard.RepeatRate = 99
	if current, _ := h.server.Keyboard(0); current.RepeatRate != 25 {
		t.Fatalf("RepeatRate = %d after changing a copy, want 25", current.RepeatRate)
	}
	cursor, _ := h.server.Cursor(0)
	cursor.HotspotX = 7
	if current, _ := h.server.Cursor(0); current.HotspotX != 0 {
		t.Fatalf("HotspotX = %d after changing a copy, want 0", current.HotspotX)
	}
}

// focusThenDisconnect focuses a client's surface, disconnects the
// client, and returns the surface identity and the events the
// disconnect produced.
func focusThenDisconnect(t *testing.T, policy server.DestructionPolicy) (identity.SurfaceID, []server.Event) {
	t.Helper()
	h := newHarness(t, server.Options{DestructionPolicy: policy})
	if err := h.server.CreateSeat(0, "seat0"); err != nil {
		t.Fatalf("CreateSeat: %v", err)
	}
	h.server.AddKeyboard(0, 200, 25)
	client := h.dial(t)
	compositor := client.Bind(engine.CompositorInterface, 4)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	client.Roundtrip(h.pump)
	id := surfaceIdentity(t, h.take(), surface)
	if !h.server.SetKeyboardFocus(0, id) {
		t.Fatalf("SetKeyboardFocus = false, want true")
	}
	h.pump()
	h.take()

	client.Close()
	h.waitFor(t, "client removal", func() bool { return len(h.server.Registry().Clients()) == 0 })
	if current, _ := h.server.Seat(0); current.Focus() != 0 {
		t.Fatalf("focus after disconnect = %s, want none", current.Focus())
	}
	return id, h.take()
}

func TestSilentDisconnectClearsFocusWithoutNamingSurface(t *testing.T) {
	id, events := focusThenDisconnect(t, server.DestructionSilent)
	if destroyed := eventsOf[server.Destruction](events); len(destroyed) != 0 {
		t.Fatalf("destruction events under DestructionSilent = %+v, want none", destroyed)
	}
	focus := eventsOf[server.SeatEvent](events)
	if len(focus) != 1 || focus[0].Change != server.SeatKeyboardFocus || focus[0].Surface != 0 || focus[0].Previous != 0 {
		t.Fatalf("seat events after disconnect = %+v, want focus cleared without naming %s", focus, id)
	}
}

func TestReportedDisconnectNamesPreviousFocus(t *testing.T) {
	id, events := focusThenDisconnect(t, server.DestructionReport)
	focus := eventsOf[server.SeatEvent](events)
	if len(focus) != 1 || focus[0].Previous != id {
		t.Fatalf("seat events after disconnect = %+v, want focus cleared from %s", focus, id)
	}
}
