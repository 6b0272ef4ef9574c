// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
)

// Object is a tracked handle. Keys must be unique for the lifetime of
// the registry; two handles with the same key are the same object.
type Object interface {
	Key() engine.ObjectKey
}

// ClientRecord is everything tracked for one client.
type ClientRecord[O Object] struct {
	id identity.ClientID

	singletons  [KindExplicitSync + 1]O
	occupied    [KindExplicitSync + 1]bool
	collections map[Kind]*ordered[engine.ObjectKey, O]
	seats       *ordered[engine.ObjectKey, *SeatRecord[O]]

	// slots maps every tracked key, seats and capabilities included,
	// to the one kind it occupies.
	slots map[engine.ObjectKey]Kind
}

func newClientRecord[O Object](id identity.ClientID) *ClientRecord[O] {
	return &ClientRecord[O]{
		id:          id,
		collections: make(map[Kind]*ordered[engine.ObjectKey, O]),
		seats:       newOrdered[engine.ObjectKey, *SeatRecord[O]](),
		slots:       make(map[engine.ObjectKey]Kind),
	}
}

// ID returns the client's identity.
func (r *ClientRecord[O]) ID() identity.ClientID { return r.id }

// Singleton returns the occupant of a singleton slot.
func (r *ClientRecord[O]) Singleton(kind Kind) (O, bool) {
	if !kind.Singleton() || !r.occupied[kind] {
		var zero O
		return zero, false
	}
	return r.singletons[kind], true
}

// Objects returns a collection in registration order.
func (r *ClientRecord[O]) Objects(kind Kind) []O {
	collection := r.collections[kind]
	if collection == nil {
		return nil
	}
	return collection.slice()
}

// Count returns how many objects of kind the client holds. Singletons
// count as zero or one; capabilities are summed across seats.
func (r *ClientRecord[O]) Count(kind Kind) int {
	switch {
	case kind.Singleton():
		if r.occupied[kind] {
			return 1
		}
		return 0
	case kind == KindSeat:
		return r.seats.len()
	case kind.Capability():
		total := 0
		for _, seat := range r.seats.all() {
			total += seat.capabilities[kind-KindPointer].len()
		}
		return total
	}
	if collection := r.collections[kind]; collection != nil {
		return collection.len()
	}
	return 0
}

// Lookup returns the object with the given key from the slot it
// occupies.
func (r *ClientRecord[O]) Lookup(key engine.ObjectKey) (O, Kind, bool) {
	kind, ok := r.slots[key]
	var zero O
	if !ok {
		return zero, KindNone, false
	}
	switch {
	case kind.Singleton():
		return r.singletons[kind], kind, true
	case kind == KindSeat:
		seat, _ := r.seats.get(key)
		return seat.handle, kind, true
	case kind.Capability():
		for _, seat := range r.seats.all() {
			if object, found := seat.capabilities[kind-KindPointer].get(key); found {
				return object, kind, true
			}
		}
		return zero, KindNone, false
	}
	object, found := r.collections[kind].get(key)
	return object, kind, found
}

// Seats returns the client's bound seats in bind order.
func (r *ClientRecord[O]) Seats() []*SeatRecord[O] { return r.seats.slice() }

// Seat returns the seat record for a wl_seat handle key.
func (r *ClientRecord[O]) Seat(key engine.ObjectKey) (*SeatRecord[O], bool) { return r.seats.get(key) }

func (r *ClientRecord[O]) collection(kind Kind) *ordered[engine.ObjectKey, O] {
	collection := r.collections[kind]
	if collection == nil {
		collection = newOrdered[engine.ObjectKey, O]()
		r.collections[kind] = collection
	}
	return collection
}

// SeatRecord is one wl_seat a client bound, with the capability
// objects it created from it.
type SeatRecord[O Object] struct {
	handle       O
	seatID       identity.SeatID
	client       identity.ClientID
	capabilities [3]*ordered[engine.ObjectKey, O]
	detached     bool
}

func newSeatRecord[O Object](handle O, seatID identity.SeatID, client identity.ClientID) *SeatRecord[O] {
	seat := &SeatRecord[O]{handle: handle, seatID: seatID, client: client}
	for i := range seat.capabilities {
		seat.capabilities[i] = newOrdered[engine.ObjectKey, O]()
	}
	return seat
}

func (s *SeatRecord[O]) Handle() O                 { return s.handle }
func (s *SeatRecord[O]) Key() engine.ObjectKey     { return s.handle.Key() }
func (s *SeatRecord[O]) SeatID() identity.SeatID   { return s.seatID }
func (s *SeatRecord[O]) Client() identity.ClientID { return s.client }

// Detached reports whether the seat was unregistered. A detached
// record's capability lists are empty and stay empty.
func (s *SeatRecord[O]) Detached() bool { return s.detached }

// Capabilities returns one capability list in registration order.
func (s *SeatRecord[O]) Capabilities(kind Kind) []O {
	if !kind.Capability() {
		return nil
	}
	return s.capabilities[kind-KindPointer].slice()
}

func (s *SeatRecord[O]) Pointers() []O  { return s.Capabilities(KindPointer) }
func (s *SeatRecord[O]) Keyboards() []O { return s.Capabilities(KindKeyboard) }
func (s *SeatRecord[O]) Touches() []O   { return s.Capabilities(KindTouch) }
