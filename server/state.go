// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// dispatchState is the value the engine hands to every callback. It
// is touched only on the dispatch goroutine.
type dispatchState struct {
	server     *Server
	logger     *slog.Logger
	registry   *registry.Registry[*engine.Resource]
	identities *identity.Allocator
	policy     DestructionPolicy

	queue    []Event
	surfaces map[identity.SurfaceID]*engine.Resource

	// deferredFDs are descriptors handed to the host in events. They
	// stay open until the next dispatch cycle starts.
	deferredFDs []int
}

func state(dispatch any) *dispatchState { return dispatch.(*dispatchState) }

func (st *dispatchState) emit(event Event) { st.queue = append(st.queue, event) }

func (st *dispatchState) drain() []Event {
	events := st.queue
	st.queue = nil
	return events
}

func (st *dispatchState) deferClose(fd int) { st.deferredFDs = append(st.deferredFDs, fd) }

func (st *dispatchState) closeDeferred() {
	for _, fd := range st.deferredFDs {
		unix.Close(fd)
	}
	st.deferredFDs = nil
}

// clientID returns the identity recorded for client, or zero.
func (st *dispatchState) clientID(client *engine.Client) identity.ClientID {
	record, ok := st.registry.Record(client.UserData())
	if !ok {
		return 0
	}
	return record.ID()
}

// tracked marks a resource that occupies a registry slot.
type tracked struct {
	kind registry.Kind
}

// clientInfo is stored in the client sidecar next to the registry
// record.
type clientInfo struct {
	process string
}

// SurfaceKind is the role a surface has been given.
type SurfaceKind uint8

const (
	SurfaceNone SurfaceKind = iota
	SurfaceToplevel
	SurfacePopup
	SurfaceCursor
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceNone:
		return "none"
	case SurfaceToplevel:
		return "toplevel"
	case SurfacePopup:
		return "popup"
	case SurfaceCursor:
		return "cursor"
	default:
		return fmt.Sprintf("surface-kind(%d)", uint8(k))
	}
}

// surfaceState is the sidecar of a wl_surface.
type surfaceState struct {
	id   identity.SurfaceID
	kind SurfaceKind

	// role is the xdg_surface, wl_shell_surface or wl_subsurface
	// currently giving the surface its role.
	role *engine.Resource

	buffer   *engine.Resource
	attached bool
	frames   []*engine.Resource

	sync         *engine.Resource
	fencePending bool
	releases     []*engine.Resource
}

func surfaceOf(resource *engine.Resource) *surfaceState {
	if resource == nil {
		return nil
	}
	surface, _ := engine.Get[*surfaceState](resource.UserData())
	return surface
}

// surfaceID returns the identity of a wl_surface, or zero for nil.
func surfaceID(resource *engine.Resource) identity.SurfaceID {
	if surface := surfaceOf(resource); surface != nil {
		return surface.id
	}
	return 0
}

// assignRole gives surface its role. A surface keeps the first role
// it receives; asking for a different one is a protocol error posted
// on errorTarget.
func assignRole(surface *engine.Resource, kind SurfaceKind, errorTarget *engine.Resource, code uint32) bool {
	s := surfaceOf(surface)
	if s == nil {
		errorTarget.PostError(code, "%s is not a tracked surface", surface)
		return false
	}
	if s.kind != SurfaceNone && s.kind != kind {
		errorTarget.PostError(code, "%s already has the %s role", surface, s.kind)
		return false
	}
	s.kind = kind
	return true
}

// seatBinding is the sidecar of a wl_seat.
type seatBinding struct {
	seatID identity.SeatID
}

// capabilityBinding is the sidecar of a wl_pointer, wl_keyboard or
// wl_touch.
type capabilityBinding struct {
	seat   *engine.Resource
	seatID identity.SeatID
}

// outputBinding is the sidecar of a wl_output.
type outputBinding struct {
	outputID identity.OutputID
}

func seatIDOf(resource *engine.Resource) identity.SeatID {
	if resource == nil {
		return 0
	}
	if binding, ok := engine.Get[seatBinding](resource.UserData()); ok {
		return binding.seatID
	}
	if binding, ok := engine.Get[capabilityBinding](resource.UserData()); ok {
		return binding.seatID
	}
	return 0
}

// send logs instead of failing: a send only fails for a resource the
// client already destroyed or an event its version lacks.
func (st *dispatchState) send(resource *engine.Resource, event string, args ...any) {
	if err := resource.Send(event, args...); err != nil {
		st.logger.Debug("sending event", "object", resource.String(), "event", event, "error", err)
	}
}

// sendSince sends only when the bound version has the event.
func (st *dispatchState) sendSince(resource *engine.Resource, since uint32, event string, args ...any) {
	if resource.Version() >= since {
		st.send(resource, event, args...)
	}
}
