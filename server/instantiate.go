// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// Every tracked object goes through the same three steps, all inside
// the engine callback that created it: routing and destruction are
// assigned, the object is registered, and an Instantiation is queued.
// Nothing about the object can reach the queue before its
// Instantiation does.

// instantiate tracks resource in the client's slot for kind. It
// reports whether registration succeeded; the resource keeps its
// handlers either way.
func (st *dispatchState) instantiate(resource *engine.Resource, kind registry.Kind, handler engine.RequestFunc, event Instantiation) bool {
	resource.Assign(handler)
	resource.AssignDestructor(destroyTracked)
	engine.Set(resource.UserData(), tracked{kind: kind})
	if !st.registry.Register(resource.Client().UserData(), resource, kind) {
		return false
	}
	st.emitInstantiation(resource, kind, event)
	return true
}

// instantiateSurface allocates the surface identity and attaches it
// before the surface is registered or reported.
func (st *dispatchState) instantiateSurface(resource *engine.Resource) {
	id := st.identities.NextSurface()
	engine.Set(resource.UserData(), &surfaceState{id: id})
	st.surfaces[id] = resource
	st.instantiate(resource, registry.KindSurface, handleSurfaceRequest, Instantiation{Surface: id})
}

func (st *dispatchState) instantiateSeat(resource *engine.Resource, seatID identity.SeatID) bool {
	resource.Assign(handleSeatRequest)
	resource.AssignDestructor(destroyTracked)
	engine.Set(resource.UserData(), tracked{kind: registry.KindSeat})
	engine.Set(resource.UserData(), seatBinding{seatID: seatID})
	if _, ok := st.registry.RegisterSeat(resource.Client().UserData(), resource, seatID); !ok {
		return false
	}
	st.emitInstantiation(resource, registry.KindSeat, Instantiation{Seat: seatID})
	return true
}

// instantiateCapability tracks a pointer, keyboard or touch object
// under the seat it was created from.
func (st *dispatchState) instantiateCapability(seat, resource *engine.Resource, kind registry.Kind, handler engine.RequestFunc) bool {
	seatID := seatIDOf(seat)
	resource.Assign(handler)
	resource.AssignDestructor(destroyTracked)
	engine.Set(resource.UserData(), tracked{kind: kind})
	engine.Set(resource.UserData(), capabilityBinding{seat: seat, seatID: seatID})
	if !st.registry.RegisterCapability(resource.Client().UserData(), seat, resource, kind) {
		return false
	}
	st.emitInstantiation(resource, kind, Instantiation{Seat: seatID, Parent: seat})
	return true
}

func (st *dispatchState) emitInstantiation(resource *engine.Resource, kind registry.Kind, event Instantiation) {
	event.Resource = resource
	event.Interface = resource.Interface().Name
	event.Version = resource.Version()
	event.Slot = kind
	event.Client = st.clientID(resource.Client())
	st.emit(event)
}
