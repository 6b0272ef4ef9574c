// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

const (
	pointerErrorRole uint32 = 0

	keymapFormatNoKeymap uint32 = 0

	seatCapabilityPointer  uint32 = 1
	seatCapabilityKeyboard uint32 = 2
)

func bindSeat(dispatch any, resource *engine.Resource, seatID identity.SeatID) {
	st := state(dispatch)
	if !st.instantiateSeat(resource, seatID) {
		return
	}
	seat, ok := st.server.seat(seatID)
	if !ok {
		return
	}
	st.send(resource, "capabilities", seat.capabilities())
	st.sendSince(resource, 2, "name", seat.name)
}

func handleSeatRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	switch request.Name() {
	case "get_pointer":
		st.instantiateCapability(resource, request.NewResource(0), registry.KindPointer, handlePointerRequest)
	case "get_keyboard":
		keyboard := request.NewResource(0)
		if st.instantiateCapability(resource, keyboard, registry.KindKeyboard, ignoreRequest) {
			st.initKeyboard(keyboard)
		}
	case "get_touch":
		st.instantiateCapability(resource, request.NewResource(0), registry.KindTouch, ignoreRequest)
	}
}

// initKeyboard sends a new wl_keyboard its keymap, repeat settings,
// and enter when the seat's focus is on one of the client's surfaces.
// Key events are outside the bridge, so the keymap is always
// no_keymap.
func (st *dispatchState) initKeyboard(keyboard *engine.Resource) {
	fd, err := unix.Open("/dev/null", unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		st.logger.Warn("opening keymap placeholder", "error", err)
	} else {
		st.send(keyboard, "keymap", keymapFormatNoKeymap, engine.FD(fd), uint32(0))
		unix.Close(fd)
	}

	seat, ok := st.server.seat(seatIDOf(keyboard))
	if !ok || seat.keyboard == nil {
		return
	}
	st.sendSince(keyboard, 4, "repeat_info", seat.keyboard.RepeatRate, seat.keyboard.RepeatDelay)
	if focus, live := st.surfaces[seat.focus]; live && focus.Client() == keyboard.Client() {
		st.send(keyboard, "enter", st.server.display.NextSerial(), focus, []byte{})
	}
}

func handlePointerRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	if request.Name() != "set_cursor" {
		return
	}
	st := state(dispatch)
	surface := request.Object(1)
	if surface != nil && !assignRole(surface, SurfaceCursor, resource, pointerErrorRole) {
		return
	}
	event := SeatEvent{
		Change:   SeatCursorImage,
		Resource: resource,
		Seat:     seatIDOf(resource),
		Surface:  surfaceID(surface),
		HotspotX: request.Int(2),
		HotspotY: request.Int(3),
		Serial:   request.Uint(0),
	}
	if seat, ok := st.server.seat(event.Seat); ok && seat.cursor != nil {
		seat.cursor.Surface = event.Surface
		seat.cursor.HotspotX = event.HotspotX
		seat.cursor.HotspotY = event.HotspotY
	}
	st.emit(event)
}
