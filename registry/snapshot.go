// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"slices"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
)

// Snapshot is a deterministic summary of registry state. Two
// registries that saw the same operations produce equal snapshots
// regardless of handle type.
type Snapshot struct {
	Clients []ClientSnapshot `json:"clients" cbor:"clients"`
}

// ClientSnapshot summarizes one client record. Slots lists every
// non-empty singleton and collection in Kind order.
type ClientSnapshot struct {
	ID    identity.ClientID `json:"id" cbor:"id"`
	Slots []SlotSnapshot    `json:"slots,omitempty" cbor:"slots,omitempty"`
	Seats []SeatSnapshot    `json:"seats,omitempty" cbor:"seats,omitempty"`
}

// SlotSnapshot lists the keys in one slot in registration order.
type SlotSnapshot struct {
	Kind Kind               `json:"kind" cbor:"kind"`
	Keys []engine.ObjectKey `json:"keys" cbor:"keys"`
}

// SeatSnapshot summarizes one seat binding.
type SeatSnapshot struct {
	Key       engine.ObjectKey   `json:"key" cbor:"key"`
	SeatID    identity.SeatID    `json:"seat_id" cbor:"seat_id"`
	Pointers  []engine.ObjectKey `json:"pointers,omitempty" cbor:"pointers,omitempty"`
	Keyboards []engine.ObjectKey `json:"keyboards,omitempty" cbor:"keyboards,omitempty"`
	Touches   []engine.ObjectKey `json:"touches,omitempty" cbor:"touches,omitempty"`
}

// Snapshot captures the current state.
func (r *Registry[O]) Snapshot() Snapshot {
	snapshot := Snapshot{Clients: make([]ClientSnapshot, 0, r.clients.len())}
	for _, record := range r.clients.all() {
		snapshot.Clients = append(snapshot.Clients, record.snapshot())
	}
	return snapshot
}

func (r *ClientRecord[O]) snapshot() ClientSnapshot {
	client := ClientSnapshot{ID: r.id}
	for _, kind := range clientKinds() {
		if kind == KindSeat {
			continue
		}
		var keys []engine.ObjectKey
		if kind.Singleton() {
			if r.occupied[kind] {
				keys = []engine.ObjectKey{r.singletons[kind].Key()}
			}
		} else if collection := r.collections[kind]; collection != nil {
			keys = collection.keys()
		}
		if len(keys) > 0 {
			client.Slots = append(client.Slots, SlotSnapshot{Kind: kind, Keys: keys})
		}
	}
	for key, seat := range r.seats.all() {
		client.Seats = append(client.Seats, SeatSnapshot{
			Key:       key,
			SeatID:    seat.seatID,
			Pointers:  seat.capabilities[0].keys(),
			Keyboards: seat.capabilities[1].keys(),
			Touches:   seat.capabilities[2].keys(),
		})
	}
	return client
}

// Count returns the number of tracked objects of kind across all
// clients.
func (s Snapshot) Count(kind Kind) int {
	total := 0
	for _, client := range s.Clients {
		total += client.Count(kind)
	}
	return total
}

// Count returns the number of tracked objects of kind.
func (c ClientSnapshot) Count(kind Kind) int {
	switch kind {
	case KindSeat:
		return len(c.Seats)
	case KindPointer, KindKeyboard, KindTouch:
		total := 0
		for _, seat := range c.Seats {
			switch kind {
			case KindPointer:
				total += len(seat.Pointers)
			case KindKeyboard:
				total += len(seat.Keyboards)
			default:
				total += len(seat.Touches)
			}
		}
		return total
	}
	index := slices.IndexFunc(c.Slots, func(slot SlotSnapshot) bool { return slot.Kind == kind })
	if index < 0 {
		return 0
	}
	return len(c.Slots[index].Keys)
}

// Equal reports whether two snapshots describe the same state.
func (s Snapshot) Equal(other Snapshot) bool {
	return slices.EqualFunc(s.Clients, other.Clients, func(a, b ClientSnapshot) bool {
		return a.ID == b.ID &&
			slices.EqualFunc(a.Slots, b.Slots, func(x, y SlotSnapshot) bool {
				return x.Kind == y.Kind && slices.Equal(x.Keys, y.Keys)
			}) &&
			slices.EqualFunc(a.Seats, b.Seats, func(x, y SeatSnapshot) bool {
				return x.Key == y.Key && x.SeatID == y.SeatID &&
					slices.Equal(x.Pointers, y.Pointers) &&
					slices.Equal(x.Keyboards, y.Keyboards) &&
					slices.Equal(x.Touches, y.Touches)
			})
	})
}
