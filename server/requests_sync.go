// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/registry"
)

const (
	explicitSyncErrorSynchronizationExists uint32 = 0

	surfaceSyncErrorDuplicateFence   uint32 = 1
	surfaceSyncErrorDuplicateRelease uint32 = 2
	surfaceSyncErrorNoSurface        uint32 = 3
)

// surfaceSync is the sidecar of a zwp_linux_surface_synchronization_v1.
type surfaceSync struct {
	surface *engine.Resource
}

func bindExplicitSync(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindExplicitSync, handleExplicitSyncRequest, Instantiation{})
}

func handleExplicitSyncRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	if request.Name() != "get_synchronization" {
		return
	}
	st := state(dispatch)
	sync := request.NewResource(0)
	surface := request.Object(1)
	target := surfaceOf(surface)
	if target == nil {
		resource.PostError(explicitSyncErrorSynchronizationExists, "get_synchronization on a destroyed surface")
		return
	}
	if target.sync != nil {
		resource.PostError(explicitSyncErrorSynchronizationExists, "%s already has a synchronization object", surface)
		return
	}
	target.sync = sync
	engine.Set(sync.UserData(), &surfaceSync{surface: surface})
	st.instantiate(sync, registry.KindSurfaceSync, handleSurfaceSyncRequest, Instantiation{Surface: target.id, Parent: surface})
}

func handleSurfaceSyncRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	binding, _ := engine.Get[*surfaceSync](resource.UserData())
	surface := surfaceOf(binding.surface)
	if surface == nil || !binding.surface.Alive() {
		resource.PostError(surfaceSyncErrorNoSurface, "the surface was destroyed")
		return
	}
	switch request.Name() {
	case "set_acquire_fence":
		if surface.fencePending {
			resource.PostError(surfaceSyncErrorDuplicateFence, "acquire fence already set for this commit")
			return
		}
		fence := request.TakeFD(0)
		surface.fencePending = true
		st.deferClose(fence)
		st.emit(ExplicitSync{Action: SyncAcquireFence, Resource: resource, Surface: surface.id, Fence: fence})
	case "get_release":
		release := request.NewResource(0)
		if len(surface.releases) > 0 {
			resource.PostError(surfaceSyncErrorDuplicateRelease, "release already requested for this commit")
			return
		}
		surface.releases = append(surface.releases, release)
		st.emit(ExplicitSync{Action: SyncReleaseRequest, Resource: resource, Surface: surface.id, Fence: -1, Release: release})
	}
}

