// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"log/slog"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/lib/logging"
)

// Registry indexes client records by identity and bound seats by host
// seat. It does not own the sidecars; callers pass the sidecar of the
// client an operation concerns.
type Registry[O Object] struct {
	logger   *slog.Logger
	observer Observer

	clients *ordered[identity.ClientID, *ClientRecord[O]]
	seats   map[identity.SeatID]*ordered[engine.ObjectKey, *SeatRecord[O]]
}

// New creates an empty registry. A nil logger discards; a nil
// observer disables reporting.
func New[O Object](logger *slog.Logger, observer Observer) *Registry[O] {
	return &Registry[O]{
		logger:   logging.OrDiscard(logger),
		observer: observer,
		clients:  newOrdered[identity.ClientID, *ClientRecord[O]](),
		seats:    make(map[identity.SeatID]*ordered[engine.ObjectKey, *SeatRecord[O]]),
	}
}

// Record returns the client record stored in sidecar.
func (r *Registry[O]) Record(sidecar *engine.UserDataMap) (*ClientRecord[O], bool) {
	return engine.Get[*ClientRecord[O]](sidecar)
}

// Client returns the record for a client identity.
func (r *Registry[O]) Client(id identity.ClientID) (*ClientRecord[O], bool) {
	return r.clients.get(id)
}

// Clients returns every client record in insertion order.
func (r *Registry[O]) Clients() []*ClientRecord[O] { return r.clients.slice() }

// SeatRecords returns every client's binding of a host seat, in bind
// order across clients.
func (r *Registry[O]) SeatRecords(seatID identity.SeatID) []*SeatRecord[O] {
	index := r.seats[seatID]
	if index == nil {
		return nil
	}
	return index.slice()
}

// InsertClient stores a new record for id in sidecar unless one is
// already there, and returns the record the sidecar holds.
func (r *Registry[O]) InsertClient(sidecar *engine.UserDataMap, id identity.ClientID) *ClientRecord[O] {
	inserted := false
	record := engine.InsertIfMissing(sidecar, func() *ClientRecord[O] {
		inserted = true
		return newClientRecord[O](id)
	})
	if !inserted {
		return record
	}
	if !r.clients.add(id, record) {
		r.logger.Warn("client identity already indexed", "client", id)
	}
	r.notify(Operation{Op: OpInsertClient, Client: id})
	return record
}

// RemoveClient drops the record held by sidecar and every seat
// binding it indexed. It returns the removed record.
func (r *Registry[O]) RemoveClient(sidecar *engine.UserDataMap) (*ClientRecord[O], bool) {
	record, ok := engine.Get[*ClientRecord[O]](sidecar)
	if !ok {
		r.logger.Warn("removing client without a record")
		return nil, false
	}
	engine.Remove[*ClientRecord[O]](sidecar)
	for _, seat := range record.seats.slice() {
		r.unindexSeat(seat)
		seat.detach()
	}
	if indexed, found := r.clients.get(record.id); found && indexed == record {
		r.clients.remove(record.id)
	}
	r.notify(Operation{Op: OpRemoveClient, Client: record.id})
	return record, true
}

// Register places object in the client's slot for kind. Singleton
// kinds overwrite; collection kinds append, and registering a key that
// is already present does nothing. Seats and capabilities have their
// own calls and are rejected here.
func (r *Registry[O]) Register(sidecar *engine.UserDataMap, object O, kind Kind) bool {
	record, ok := r.lookup(sidecar, "register", object, kind)
	if !ok {
		return false
	}
	if (!kind.Singleton() && !kind.Collection()) || kind == KindSeat {
		r.logger.Warn("register called with a dedicated kind", "kind", kind, "object", object.Key())
		return false
	}
	key := object.Key()
	if existing, tracked := record.slots[key]; tracked {
		if existing != kind {
			r.logger.Warn("object already tracked under another kind",
				"client", record.id, "object", key, "kind", kind, "existing", existing)
		}
		return false
	}

	if kind.Singleton() {
		if record.occupied[kind] {
			delete(record.slots, record.singletons[kind].Key())
		}
		record.singletons[kind] = object
		record.occupied[kind] = true
	} else {
		record.collection(kind).add(key, object)
	}
	record.slots[key] = kind
	r.notify(Operation{Op: OpRegister, Client: record.id, Kind: kind, Object: key})
	return true
}

// Unregister removes object from the client's slot for kind. A
// singleton slot is only cleared when object is its current occupant.
// Absence is not an error.
func (r *Registry[O]) Unregister(sidecar *engine.UserDataMap, object O, kind Kind) bool {
	record, ok := r.lookup(sidecar, "unregister", object, kind)
	if !ok {
		return false
	}
	key := object.Key()
	if record.slots[key] != kind || kind == KindSeat || kind.Capability() {
		return false
	}
	if kind.Singleton() {
		var zero O
		record.singletons[kind] = zero
		record.occupied[kind] = false
	} else {
		record.collections[kind].remove(key)
	}
	delete(record.slots, key)
	r.notify(Operation{Op: OpUnregister, Client: record.id, Kind: kind, Object: key})
	return true
}

// RegisterSeat records a wl_seat bound from host seat seatID.
func (r *Registry[O]) RegisterSeat(sidecar *engine.UserDataMap, seat O, seatID identity.SeatID) (*SeatRecord[O], bool) {
	record, ok := r.lookup(sidecar, "register seat", seat, KindSeat)
	if !ok {
		return nil, false
	}
	key := seat.Key()
	if existing, tracked := record.slots[key]; tracked {
		if existing == KindSeat {
			current, _ := record.seats.get(key)
			return current, false
		}
		r.logger.Warn("object already tracked under another kind",
			"client", record.id, "object", key, "kind", KindSeat, "existing", existing)
		return nil, false
	}

	seatRecord := newSeatRecord(seat, seatID, record.id)
	record.seats.add(key, seatRecord)
	record.slots[key] = KindSeat
	index := r.seats[seatID]
	if index == nil {
		index = newOrdered[engine.ObjectKey, *SeatRecord[O]]()
		r.seats[seatID] = index
	}
	index.add(key, seatRecord)
	r.notify(Operation{Op: OpRegisterSeat, Client: record.id, Kind: KindSeat, Object: key, SeatID: seatID})
	return seatRecord, true
}

// UnregisterSeat removes a seat binding and detaches its capability
// lists. Capability objects created from it stay alive on the client
// but are no longer reachable through the seat. It returns the
// detached record.
func (r *Registry[O]) UnregisterSeat(sidecar *engine.UserDataMap, seat O) (*SeatRecord[O], bool) {
	record, ok := r.lookup(sidecar, "unregister seat", seat, KindSeat)
	if !ok {
		return nil, false
	}
	key := seat.Key()
	seatRecord, found := record.seats.remove(key)
	if !found {
		return nil, false
	}
	delete(record.slots, key)
	r.unindexSeat(seatRecord)
	for _, capabilities := range seatRecord.capabilities {
		for _, capabilityKey := range capabilities.keys() {
			delete(record.slots, capabilityKey)
		}
	}
	seatRecord.detach()
	r.notify(Operation{Op: OpUnregisterSeat, Client: record.id, Kind: KindSeat, Object: key, SeatID: seatRecord.seatID})
	return seatRecord, true
}

// RegisterCapability appends a pointer, keyboard or touch object to
// the list of the seat it was created from. It does nothing when the
// seat is not registered, which is the case once the client released
// it.
func (r *Registry[O]) RegisterCapability(sidecar *engine.UserDataMap, seat O, object O, kind Kind) bool {
	record, ok := r.lookup(sidecar, "register capability", object, kind)
	if !ok {
		return false
	}
	if !kind.Capability() {
		r.logger.Warn("register capability called with a non-capability kind", "kind", kind, "object", object.Key())
		return false
	}
	seatRecord, found := record.seats.get(seat.Key())
	if !found {
		r.logger.Warn("capability created from an untracked seat",
			"client", record.id, "seat", seat.Key(), "object", object.Key(), "kind", kind)
		return false
	}
	key := object.Key()
	if _, tracked := record.slots[key]; tracked {
		return false
	}
	seatRecord.capabilities[kind-KindPointer].add(key, object)
	record.slots[key] = kind
	r.notify(Operation{Op: OpRegisterCapability, Client: record.id, Kind: kind, Object: key, Seat: seat.Key()})
	return true
}

// UnregisterCapability removes a capability object from whichever of
// the client's seats holds it.
func (r *Registry[O]) UnregisterCapability(sidecar *engine.UserDataMap, object O, kind Kind) bool {
	record, ok := r.lookup(sidecar, "unregister capability", object, kind)
	if !ok {
		return false
	}
	key := object.Key()
	if !kind.Capability() || record.slots[key] != kind {
		return false
	}
	for seatKey, seatRecord := range record.seats.all() {
		if _, removed := seatRecord.capabilities[kind-KindPointer].remove(key); removed {
			delete(record.slots, key)
			r.notify(Operation{Op: OpUnregisterCapability, Client: record.id, Kind: kind, Object: key, Seat: seatKey})
			return true
		}
	}
	return false
}

func (r *Registry[O]) lookup(sidecar *engine.UserDataMap, operation string, object O, kind Kind) (*ClientRecord[O], bool) {
	record, ok := engine.Get[*ClientRecord[O]](sidecar)
	if !ok {
		r.logger.Warn("client record missing", "operation", operation, "object", object.Key(), "kind", kind)
	}
	return record, ok
}

func (r *Registry[O]) unindexSeat(seat *SeatRecord[O]) {
	index := r.seats[seat.seatID]
	if index == nil {
		return
	}
	index.remove(seat.Key())
	if index.len() == 0 {
		delete(r.seats, seat.seatID)
	}
}

func (s *SeatRecord[O]) detach() {
	s.detached = true
	for i := range s.capabilities {
		s.capabilities[i] = newOrdered[engine.ObjectKey, O]()
	}
}

func (r *Registry[O]) notify(operation Operation) {
	if r.observer != nil {
		r.observer(operation)
	}
}
