// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"slices"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/fourcc"
	"github.com/bureau-foundation/waybridge/registry"
)

const (
	bufferParamsErrorAlreadyUsed       uint32 = 0
	bufferParamsErrorPlaneIdx          uint32 = 1
	bufferParamsErrorPlaneSet          uint32 = 2
	bufferParamsErrorIncomplete        uint32 = 3
	bufferParamsErrorInvalidFormat     uint32 = 4
	bufferParamsErrorInvalidDimensions uint32 = 5

	maxPlanes = 4
)

// bufferParams is the sidecar of a zwp_linux_buffer_params_v1. It owns
// the plane descriptors until a buffer is created from them.
type bufferParams struct {
	planes [maxPlanes]Plane
	set    [maxPlanes]bool
	used   bool
}

func (p *bufferParams) close() {
	for i := range p.planes {
		if p.set[i] {
			unix.Close(p.planes[i].FD)
			p.set[i] = false
		}
	}
}

// take moves the planes out, contiguous from index zero. It reports
// false when a gap leaves a plane unset.
func (p *bufferParams) take() ([]Plane, bool) {
	count := 0
	for count < maxPlanes && p.set[count] {
		count++
	}
	for i := count; i < maxPlanes; i++ {
		if p.set[i] {
			return nil, false
		}
	}
	if count == 0 {
		return nil, false
	}
	planes := make([]Plane, count)
	copy(planes, p.planes[:count])
	p.set = [maxPlanes]bool{}
	return planes, true
}

// dmabufBuffer is the sidecar of a wl_buffer imported from dmabuf. The
// buffer owns its plane descriptors.
type dmabufBuffer struct {
	planes []Plane
}

func destroyDmabufBuffer(_ any, resource *engine.Resource) {
	if buffer, ok := engine.Get[*dmabufBuffer](resource.UserData()); ok {
		for _, plane := range buffer.planes {
			unix.Close(plane.FD)
		}
		buffer.planes = nil
	}
}

func bindDmabuf(dispatch any, _ *engine.Client, resource *engine.Resource) {
	st := state(dispatch)
	if !st.instantiate(resource, registry.KindDmabuf, handleDmabufRequest, Instantiation{}) {
		return
	}
	for _, entry := range st.server.dmabufFormats {
		if resource.Version() < 3 {
			st.send(resource, "format", uint32(entry.format))
			continue
		}
		for _, modifier := range entry.modifiers {
			st.send(resource, "modifier", uint32(entry.format), modifier.Hi(), modifier.Lo())
		}
	}
}

func handleDmabufRequest(dispatch any, _ *engine.Resource, request *engine.Request) {
	if request.Name() != "create_params" {
		return
	}
	params := request.NewResource(0)
	engine.Set(params.UserData(), &bufferParams{})
	state(dispatch).instantiate(params, registry.KindDmabufParams, handleBufferParamsRequest, Instantiation{})
}

func handleBufferParamsRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	params, _ := engine.Get[*bufferParams](resource.UserData())
	switch request.Name() {
	case "add":
		if params.used {
			resource.PostError(bufferParamsErrorAlreadyUsed, "params already used")
			return
		}
		index := request.Uint(1)
		if index >= maxPlanes {
			resource.PostError(bufferParamsErrorPlaneIdx, "plane index %d out of range", index)
			return
		}
		if params.set[index] {
			resource.PostError(bufferParamsErrorPlaneSet, "plane %d already set", index)
			return
		}
		params.planes[index] = Plane{
			FD:       request.TakeFD(0),
			Offset:   request.Uint(2),
			Stride:   request.Uint(3),
			Modifier: fourcc.JoinModifier(request.Uint(4), request.Uint(5)),
		}
		params.set[index] = true
	case "create":
		st.createDmabuf(resource, params, nil, request.Int(0), request.Int(1), request.Uint(2), request.Uint(3))
	case "create_immed":
		st.createDmabuf(resource, params, request.NewResource(0), request.Int(1), request.Int(2), request.Uint(3), request.Uint(4))
	}
}

// createDmabuf validates the accumulated planes and creates the
// wl_buffer. For create, buffer is nil: the server allocates it and
// reports created or failed. For create_immed, a validation failure is
// a protocol error.
func (st *dispatchState) createDmabuf(params *engine.Resource, pending *bufferParams, buffer *engine.Resource,
	width, height int32, format, flags uint32) {
	immediate := buffer != nil
	if pending.used {
		params.PostError(bufferParamsErrorAlreadyUsed, "params already used")
		return
	}
	pending.used = true

	fail := func(code uint32, message string, args ...any) {
		pending.close()
		if immediate {
			params.PostError(code, message, args...)
			return
		}
		st.send(params, "failed")
	}
	planes, complete := pending.take()
	if !complete {
		fail(bufferParamsErrorIncomplete, "missing planes")
		return
	}
	if !st.server.dmabufFormatEnabled(fourcc.Format(format), planes[0].Modifier) {
		closePlanes(planes)
		fail(bufferParamsErrorInvalidFormat, "format %s with modifier %s not supported", fourcc.Format(format), planes[0].Modifier)
		return
	}
	if width <= 0 || height <= 0 {
		closePlanes(planes)
		fail(bufferParamsErrorInvalidDimensions, "invalid dimensions %dx%d", width, height)
		return
	}

	if !immediate {
		buffer = params.Client().CreateResource(engine.BufferInterface, 1)
	}
	engine.Set(buffer.UserData(), &dmabufBuffer{planes: planes})
	buffer.Assign(ignoreRequest)
	buffer.AssignDestructor(destroyDmabufBuffer)
	st.emit(BufferImport{
		Resource:  buffer,
		Params:    params,
		Width:     width,
		Height:    height,
		Format:    fourcc.Format(format),
		Flags:     flags,
		Planes:    planes,
		Immediate: immediate,
	})
	if !immediate {
		st.send(params, "created", buffer)
	}
}

func closePlanes(planes []Plane) {
	for _, plane := range planes {
		unix.Close(plane.FD)
	}
}

func (s *Server) dmabufFormatEnabled(format fourcc.Format, modifier fourcc.Modifier) bool {
	for _, entry := range s.dmabufFormats {
		if entry.format != format {
			continue
		}
		if slices.Contains(entry.modifiers, modifier) {
			return true
		}
	}
	return false
}
