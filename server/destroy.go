// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// destroyTracked is the destructor of every tracked resource. It runs
// for destructor requests, server-side destruction, and client
// disconnect alike, before the engine forgets the object.
func destroyTracked(dispatch any, resource *engine.Resource) {
	st := state(dispatch)
	entry, ok := engine.Get[tracked](resource.UserData())
	if !ok {
		st.logger.Warn("destroying an untracked resource", "object", resource.String())
		return
	}
	sidecar := resource.Client().UserData()

	event := Destruction{
		Resource:  resource,
		Interface: resource.Interface().Name,
		Slot:      entry.kind,
		Client:    st.clientID(resource.Client()),
	}
	var removed bool
	switch {
	case entry.kind == registry.KindSeat:
		var seat *registry.SeatRecord[*engine.Resource]
		seat, removed = st.registry.UnregisterSeat(sidecar, resource)
		if removed {
			event.Seat = seat.SeatID()
		}
	case entry.kind.Capability():
		removed = st.registry.UnregisterCapability(sidecar, resource, entry.kind)
		event.Seat = seatIDOf(resource)
	default:
		removed = st.registry.Unregister(sidecar, resource, entry.kind)
	}

	switch entry.kind {
	case registry.KindSurface:
		event.Surface = st.releaseSurface(resource)
	case registry.KindShmPool:
		if pool, ok := engine.Get[*shmPool](resource.UserData()); ok {
			pool.close()
		}
	case registry.KindDmabufParams:
		if params, ok := engine.Get[*bufferParams](resource.UserData()); ok {
			params.close()
		}
	case registry.KindSurfaceSync:
		if sync, ok := engine.Get[*surfaceSync](resource.UserData()); ok {
			if surface := surfaceOf(sync.surface); surface != nil && surface.sync.Equal(resource) {
				surface.sync = nil
				surface.fencePending = false
			}
		}
	case registry.KindShellSurface, registry.KindSubsurface:
		if role, ok := engine.Get[roleBinding](resource.UserData()); ok {
			if surface := surfaceOf(role.surface); surface != nil && surface.role.Equal(resource) {
				surface.role = nil
			}
		}
	}

	if removed && st.policy == DestructionReport {
		st.emit(event)
	}
}

// releaseSurface drops the identity index and every host reference to
// the surface, then returns its identity.
func (st *dispatchState) releaseSurface(resource *engine.Resource) identity.SurfaceID {
	surface := surfaceOf(resource)
	if surface == nil {
		return 0
	}
	delete(st.surfaces, surface.id)
	st.server.forgetSurface(surface.id, !resource.Client().Alive())
	return surface.id
}

// roleBinding links a role object (xdg_surface, wl_shell_surface,
// wl_subsurface) to its wl_surface.
type roleBinding struct {
	surface *engine.Resource
}

// shmPool is the sidecar of a wl_shm_pool. The pool owns the
// descriptor; mapping it is the host renderer's concern.
type shmPool struct {
	fd   int
	size int32
}

func (p *shmPool) close() {
	if p.fd >= 0 {
		unix.Close(p.fd)
		p.fd = -1
	}
}
