// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/fourcc"
	"github.com/bureau-foundation/waybridge/registry"
)

// Protocol error codes.
const (
	shmErrorInvalidFormat uint32 = 0
	shmErrorInvalidStride uint32 = 1

	subcompositorErrorBadSurface uint32 = 0
	subcompositorErrorBadParent  uint32 = 1
)

func bindCompositor(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindCompositor, handleCompositorRequest, Instantiation{})
}

func handleCompositorRequest(dispatch any, _ *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	switch request.Name() {
	case "create_surface":
		st.instantiateSurface(request.NewResource(0))
	case "create_region":
		// Regions only feed surface state the core does not model.
		request.NewResource(0).Assign(ignoreRequest)
	}
}

func ignoreRequest(any, *engine.Resource, *engine.Request) {}

func handleSurfaceRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	surface := surfaceOf(resource)
	switch request.Name() {
	case "attach":
		surface.buffer = request.Object(0)
		surface.attached = true
	case "frame":
		callback := request.NewResource(0)
		surface.frames = append(surface.frames, callback)
	case "commit":
		st.commit(dispatch, resource, surface)
	}
}

// commit reports the commit and retires the per-commit objects. Frame
// callbacks fire immediately: there is no presentation clock to pace
// them against.
func (st *dispatchState) commit(dispatch any, resource *engine.Resource, surface *surfaceState) {
	event := Commit{
		Resource:    resource,
		Surface:     surface.id,
		SurfaceKind: surface.kind,
		Attached:    surface.attached,
	}
	if surface.attached && surface.buffer != nil && surface.buffer.Alive() {
		event.Buffer = surface.buffer
	}
	surface.buffer = nil
	surface.attached = false

	now := uint32(st.server.clock.Now().UnixMilli())
	for _, callback := range surface.frames {
		if callback.Alive() {
			st.send(callback, "done", now)
			callback.Destroy(dispatch)
		}
	}
	surface.frames = nil

	surface.fencePending = false
	for _, release := range surface.releases {
		if release.Alive() {
			st.send(release, "immediate_release")
			release.Destroy(dispatch)
		}
	}
	surface.releases = nil

	st.emit(event)
}

func bindSubcompositor(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindSubcompositor, handleSubcompositorRequest, Instantiation{})
}

func handleSubcompositorRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	if request.Name() != "get_subsurface" {
		return
	}
	st := state(dispatch)
	subsurface := request.NewResource(0)
	surface, parent := request.Object(1), request.Object(2)
	if surface == nil || parent == nil {
		resource.PostError(subcompositorErrorBadSurface, "get_subsurface on a destroyed surface")
		return
	}
	if surface.Equal(parent) {
		resource.PostError(subcompositorErrorBadParent, "%s cannot be its own parent", surface)
		return
	}
	target := surfaceOf(surface)
	if target.role != nil {
		resource.PostError(subcompositorErrorBadSurface, "%s already has a role object", surface)
		return
	}
	target.role = subsurface
	engine.Set(subsurface.UserData(), roleBinding{surface: surface})
	st.instantiate(subsurface, registry.KindSubsurface, ignoreRequest, Instantiation{Surface: target.id, Parent: parent})
}

func bindShm(dispatch any, _ *engine.Client, resource *engine.Resource) {
	st := state(dispatch)
	if !st.instantiate(resource, registry.KindShmFactory, handleShmRequest, Instantiation{}) {
		return
	}
	for _, format := range st.server.shmFormats {
		st.send(resource, "format", uint32(fourcc.ShmCode(format)))
	}
}

func handleShmRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	if request.Name() != "create_pool" {
		return
	}
	st := state(dispatch)
	pool := request.NewResource(0)
	fd := request.TakeFD(1)
	size := request.Int(2)
	engine.Set(pool.UserData(), &shmPool{fd: fd, size: size})
	if size <= 0 {
		resource.PostError(shmErrorInvalidStride, "invalid pool size %d", size)
	}
	st.instantiate(pool, registry.KindShmPool, handleShmPoolRequest, Instantiation{})
}

func handleShmPoolRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	pool, _ := engine.Get[*shmPool](resource.UserData())
	switch request.Name() {
	case "create_buffer":
		buffer := request.NewResource(0)
		buffer.Assign(ignoreRequest)
		offset, width, height, stride := request.Int(1), request.Int(2), request.Int(3), request.Int(4)
		format := fourcc.Shm(request.Uint(5))
		if !st.server.shmFormatEnabled(format) {
			resource.PostError(shmErrorInvalidFormat, "invalid format 0x%x", uint32(format))
			return
		}
		if offset < 0 || width <= 0 || height <= 0 || stride < width ||
			int64(offset)+int64(stride)*int64(height) > int64(pool.size) {
			resource.PostError(shmErrorInvalidStride, "invalid width, height or stride (%dx%d, %d)", width, height, stride)
		}
	case "resize":
		size := request.Int(0)
		if size < pool.size {
			resource.PostError(shmErrorInvalidStride, "shrinking pool from %d to %d", pool.size, size)
			return
		}
		pool.size = size
	}
}

func (s *Server) shmFormatEnabled(format fourcc.Shm) bool {
	for _, enabled := range s.shmFormats {
		if fourcc.ShmCode(enabled) == format {
			return true
		}
	}
	return false
}
