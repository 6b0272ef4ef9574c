// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
)

// ErrSeatExists is returned by CreateSeat for an id already in use.
var ErrSeatExists = errors.New("server: seat already exists")

// Keyboard is a seat's keyboard capability.
type Keyboard struct {
	// RepeatDelay is milliseconds before key repeat starts.
	RepeatDelay int32

	// RepeatRate is repeats per second; zero disables repeat.
	RepeatRate int32
}

// Cursor is a seat's pointer capability and the cursor image clients
// last asked for. A zero Surface means the cursor is hidden.
type Cursor struct {
	Surface  identity.SurfaceID
	HotspotX int32
	HotspotY int32
}

// Seat is a host seat advertised as a wl_seat global.
type Seat struct {
	id       identity.SeatID
	name     string
	global   *engine.Global
	keyboard *Keyboard
	cursor   *Cursor
	focus    identity.SurfaceID
}

func (s *Seat) ID() identity.SeatID       { return s.id }
func (s *Seat) Name() string              { return s.name }
func (s *Seat) Focus() identity.SurfaceID { return s.focus }
func (s *Seat) GlobalName() uint32        { return s.global.Name() }
func (s *Seat) HasKeyboard() bool         { return s.keyboard != nil }
func (s *Seat) HasCursor() bool           { return s.cursor != nil }

func (s *Seat) capabilities() uint32 {
	var capabilities uint32
	if s.cursor != nil {
		capabilities |= seatCapabilityPointer
	}
	if s.keyboard != nil {
		capabilities |= seatCapabilityKeyboard
	}
	return capabilities
}

// CreateSeat advertises a new seat. Capabilities are added separately.
func (s *Server) CreateSeat(id identity.SeatID, name string) error {
	if _, exists := s.seat(id); exists {
		return fmt.Errorf("%w: %s", ErrSeatExists, id)
	}
	seat := &Seat{id: id, name: name}
	seat.global = s.display.CreateGlobal(engine.SeatInterface, 5, func(dispatch any, _ *engine.Client, resource *engine.Resource) {
		bindSeat(dispatch, resource, id)
	})
	s.seats = append(s.seats, seat)
	s.logger.Info("seat created", "seat", id, "name", name)
	return nil
}

// DestroySeat withdraws a seat. Clients keep the wl_seat objects they
// already bound until they release them. It reports whether the seat
// existed.
func (s *Server) DestroySeat(id identity.SeatID) bool {
	seat, ok := s.seat(id)
	if !ok {
		return false
	}
	s.setFocus(seat, 0)
	seat.global.Remove()
	s.seats = slices.DeleteFunc(s.seats, func(other *Seat) bool { return other == seat })
	s.logger.Info("seat destroyed", "seat", id)
	return true
}

// Seat returns a host seat.
func (s *Server) Seat(id identity.SeatID) (*Seat, bool) { return s.seat(id) }

// Seats returns the host seats in creation order.
func (s *Server) Seats() []*Seat { return slices.Clone(s.seats) }

func (s *Server) seat(id identity.SeatID) (*Seat, bool) {
	for _, seat := range s.seats {
		if seat.id == id {
			return seat, true
		}
	}
	return nil, false
}

// AddKeyboard gives a seat a keyboard. It reports false when the seat
// is unknown or already has one.
func (s *Server) AddKeyboard(id identity.SeatID, repeatDelay, repeatRate int32) bool {
	seat, ok := s.seat(id)
	if !ok || seat.keyboard != nil {
		return false
	}
	seat.keyboard = &Keyboard{RepeatDelay: repeatDelay, RepeatRate: repeatRate}
	s.broadcastCapabilities(seat)
	for _, record := range s.state.registry.SeatRecords(id) {
		for _, keyboard := range record.Keyboards() {
			s.state.sendSince(keyboard, 4, "repeat_info", repeatRate, repeatDelay)
		}
	}
	return true
}

// DelKeyboard removes a seat's keyboard, clearing its focus first.
func (s *Server) DelKeyboard(id identity.SeatID) bool {
	seat, ok := s.seat(id)
	if !ok || seat.keyboard == nil {
		return false
	}
	s.setFocus(seat, 0)
	seat.keyboard = nil
	s.broadcastCapabilities(seat)
	return true
}

// Keyboard returns a copy of a seat's keyboard settings. Changing
// them takes DelKeyboard and AddKeyboard so clients see repeat_info.
func (s *Server) Keyboard(id identity.SeatID) (Keyboard, bool) {
	seat, ok := s.seat(id)
	if !ok || seat.keyboard == nil {
		return Keyboard{}, false
	}
	return *seat.keyboard, true
}

// AddCursor gives a seat a pointer. It reports false when the seat is
// unknown or already has one.
func (s *Server) AddCursor(id identity.SeatID) bool {
	seat, ok := s.seat(id)
	if !ok || seat.cursor != nil {
		return false
	}
	seat.cursor = &Cursor{}
	s.broadcastCapabilities(seat)
	return true
}

// DelCursor removes a seat's pointer.
func (s *Server) DelCursor(id identity.SeatID) bool {
	seat, ok := s.seat(id)
	if !ok || seat.cursor == nil {
		return false
	}
	seat.cursor = nil
	s.broadcastCapabilities(seat)
	return true
}

// Cursor returns a copy of a seat's pointer state.
func (s *Server) Cursor(id identity.SeatID) (Cursor, bool) {
	seat, ok := s.seat(id)
	if !ok || seat.cursor == nil {
		return Cursor{}, false
	}
	return *seat.cursor, true
}

// SetKeyboardFocus moves a seat's keyboard focus to a surface, or
// clears it when surface is zero. The old focus gets leave and the new
// one enter on every keyboard its client created from this seat. It
// reports false when the seat has no keyboard or the surface is not
// live.
func (s *Server) SetKeyboardFocus(id identity.SeatID, surface identity.SurfaceID) bool {
	seat, ok := s.seat(id)
	if !ok || seat.keyboard == nil {
		return false
	}
	if surface.Valid() {
		if _, live := s.state.surfaces[surface]; !live {
			return false
		}
	}
	s.setFocus(seat, surface)
	return true
}

func (s *Server) setFocus(seat *Seat, surface identity.SurfaceID) {
	previous := seat.focus
	if previous == surface {
		return
	}
	if old, live := s.state.surfaces[previous]; live {
		s.sendKeyboards(seat, old, "leave")
	}
	seat.focus = surface
	if focused, live := s.state.surfaces[surface]; live {
		s.sendKeyboards(seat, focused, "enter")
	}
	s.state.emit(SeatEvent{Change: SeatKeyboardFocus, Seat: seat.id, Surface: surface, Previous: previous})
}

// sendKeyboards sends enter or leave for surface to the keyboards the
// surface's client created from seat.
func (s *Server) sendKeyboards(seat *Seat, surface *engine.Resource, event string) {
	serial := s.display.NextSerial()
	for _, record := range s.state.registry.SeatRecords(seat.id) {
		if record.Handle().Client() != surface.Client() {
			continue
		}
		for _, keyboard := range record.Keyboards() {
			if event == "enter" {
				s.state.send(keyboard, "enter", serial, surface, []byte{})
			} else {
				s.state.send(keyboard, "leave", serial, surface)
			}
		}
	}
}

func (s *Server) broadcastCapabilities(seat *Seat) {
	capabilities := seat.capabilities()
	for _, record := range s.state.registry.SeatRecords(seat.id) {
		s.state.send(record.Handle(), "capabilities", capabilities)
	}
}

// forgetSurface drops host references to a destroyed surface. Focus
// and cursor changes are reported; no leave is sent for a surface the
// client already destroyed. When the surface goes away with its
// client under DestructionSilent, the focus event leaves Previous
// empty so nothing names the departed client's surface.
func (s *Server) forgetSurface(id identity.SurfaceID, teardown bool) {
	previous := id
	if teardown && s.state.policy == DestructionSilent {
		previous = 0
	}
	for _, seat := range s.seats {
		if seat.focus == id {
			seat.focus = 0
			s.state.emit(SeatEvent{Change: SeatKeyboardFocus, Seat: seat.id, Previous: previous})
		}
		if seat.cursor != nil && seat.cursor.Surface == id {
			*seat.cursor = Cursor{}
			s.state.emit(SeatEvent{Change: SeatCursorImage, Seat: seat.id})
		}
	}
}
