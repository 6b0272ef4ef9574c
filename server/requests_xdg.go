// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/registry"
)

const (
	xdgWmBaseErrorRole              uint32 = 0
	xdgWmBaseErrorInvalidPositioner uint32 = 5

	xdgPositionerErrorInvalidInput uint32 = 0

	xdgSurfaceErrorAlreadyConstructed uint32 = 2
)

// xdgSurfaceState is the sidecar of an xdg_surface.
type xdgSurfaceState struct {
	wmBase  *engine.Resource
	surface *engine.Resource

	// role is the xdg_toplevel or xdg_popup, once created.
	role *engine.Resource
}

// xdgRole is the sidecar of an xdg_toplevel or xdg_popup.
type xdgRole struct {
	xdgSurface *engine.Resource
	surface    *engine.Resource
	positioner Positioner
}

func bindXdgWmBase(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindShellFactory, handleXdgWmBaseRequest, Instantiation{})
}

func handleXdgWmBaseRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	switch request.Name() {
	case "create_positioner":
		positioner := request.NewResource(0)
		engine.Set(positioner.UserData(), &Positioner{})
		st.instantiate(positioner, registry.KindPositioner, handlePositionerRequest, Instantiation{})
	case "get_xdg_surface":
		xdgSurface := request.NewResource(0)
		surface := request.Object(1)
		target := surfaceOf(surface)
		if target == nil {
			resource.PostError(xdgWmBaseErrorRole, "get_xdg_surface on a destroyed surface")
			return
		}
		if target.role != nil {
			resource.PostError(xdgWmBaseErrorRole, "%s already has a role object", surface)
			return
		}
		target.role = xdgSurface
		engine.Set(xdgSurface.UserData(), roleBinding{surface: surface})
		engine.Set(xdgSurface.UserData(), &xdgSurfaceState{wmBase: resource, surface: surface})
		st.instantiate(xdgSurface, registry.KindShellSurface, handleXdgSurfaceRequest,
			Instantiation{Surface: target.id, Parent: surface})
	}
}

func handlePositionerRequest(_ any, resource *engine.Resource, request *engine.Request) {
	positioner, _ := engine.Get[*Positioner](resource.UserData())
	switch request.Name() {
	case "set_size":
		width, height := request.Int(0), request.Int(1)
		if width <= 0 || height <= 0 {
			resource.PostError(xdgPositionerErrorInvalidInput, "invalid size %dx%d", width, height)
			return
		}
		positioner.Width, positioner.Height = width, height
	case "set_anchor_rect":
		rect := Rect{X: request.Int(0), Y: request.Int(1), Width: request.Int(2), Height: request.Int(3)}
		if rect.Width < 0 || rect.Height < 0 {
			resource.PostError(xdgPositionerErrorInvalidInput, "invalid anchor rect %dx%d", rect.Width, rect.Height)
			return
		}
		positioner.AnchorRect = rect
	case "set_anchor":
		positioner.Anchor = request.Uint(0)
	case "set_gravity":
		positioner.Gravity = request.Uint(0)
	case "set_constraint_adjustment":
		positioner.ConstraintAdjustment = request.Uint(0)
	case "set_offset":
		positioner.OffsetX, positioner.OffsetY = request.Int(0), request.Int(1)
	case "set_reactive":
		positioner.Reactive = true
	case "set_parent_size":
		positioner.ParentWidth, positioner.ParentHeight = request.Int(0), request.Int(1)
	case "set_parent_configure":
		positioner.ParentConfigure = request.Uint(0)
	}
}

func positionerOf(resource *engine.Resource) (Positioner, bool) {
	if resource == nil {
		return Positioner{}, false
	}
	positioner, ok := engine.Get[*Positioner](resource.UserData())
	if !ok {
		return Positioner{}, false
	}
	return *positioner, true
}

func handleXdgSurfaceRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	xdgSurface, _ := engine.Get[*xdgSurfaceState](resource.UserData())
	id := surfaceID(xdgSurface.surface)

	switch request.Name() {
	case "get_toplevel":
		toplevel := request.NewResource(0)
		if xdgSurface.role != nil {
			resource.PostError(xdgSurfaceErrorAlreadyConstructed, "%s already has a role", resource)
			return
		}
		if !assignRole(xdgSurface.surface, SurfaceToplevel, xdgSurface.wmBase, xdgWmBaseErrorRole) {
			return
		}
		xdgSurface.role = toplevel
		engine.Set(toplevel.UserData(), &xdgRole{xdgSurface: resource, surface: xdgSurface.surface})
		st.instantiate(toplevel, registry.KindToplevel, handleToplevelRequest, Instantiation{Surface: id, Parent: resource})
		st.emit(ShellRequest{Request: ShellNewToplevel, Resource: toplevel, Surface: id})

		st.send(toplevel, "configure", int32(0), int32(0), []byte{})
		st.send(resource, "configure", st.server.display.NextSerial())

	case "get_popup":
		popup := request.NewResource(0)
		parent := request.Object(1)
		positioner, ok := positionerOf(request.Object(2))
		if xdgSurface.role != nil {
			resource.PostError(xdgSurfaceErrorAlreadyConstructed, "%s already has a role", resource)
			return
		}
		if !ok || !positioner.Complete() {
			xdgSurface.wmBase.PostError(xdgWmBaseErrorInvalidPositioner, "incomplete positioner for %s", popup)
			return
		}
		if !assignRole(xdgSurface.surface, SurfacePopup, xdgSurface.wmBase, xdgWmBaseErrorRole) {
			return
		}
		xdgSurface.role = popup
		engine.Set(popup.UserData(), &xdgRole{xdgSurface: resource, surface: xdgSurface.surface, positioner: positioner})
		st.instantiate(popup, registry.KindPopup, handlePopupRequest, Instantiation{Surface: id, Parent: parent})
		geometry := positioner.Geometry()
		st.emit(ShellRequest{
			Request:    ShellNewPopup,
			Resource:   popup,
			Surface:    id,
			Parent:     parent,
			Positioner: positioner,
			Geometry:   geometry,
		})

		st.send(popup, "configure", geometry.X, geometry.Y, geometry.Width, geometry.Height)
		st.send(resource, "configure", st.server.display.NextSerial())

	case "ack_configure":
		st.emit(ShellRequest{Request: ShellAckConfigure, Resource: resource, Surface: id, Serial: request.Uint(0)})
	}
}

func handleToplevelRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	role, _ := engine.Get[*xdgRole](resource.UserData())
	shell := ShellRequest{Resource: resource, Surface: surfaceID(role.surface)}

	switch request.Name() {
	case "set_title":
		shell.Request = ShellSetTitle
		shell.Text = request.String(0)
	case "set_app_id":
		shell.Request = ShellSetAppID
		shell.Text = request.String(0)
	case "move":
		shell.Request = ShellMove
		shell.Seat = request.Object(0)
		shell.Serial = request.Uint(1)
	case "resize":
		shell.Request = ShellResize
		shell.Seat = request.Object(0)
		shell.Serial = request.Uint(1)
		shell.Edges = request.Uint(2)
	case "set_maximized":
		shell.Request = ShellMaximize
	case "unset_maximized":
		shell.Request = ShellUnmaximize
	case "set_fullscreen":
		shell.Request = ShellFullscreen
		shell.Output = request.Object(0)
	case "unset_fullscreen":
		shell.Request = ShellUnfullscreen
	case "set_minimized":
		shell.Request = ShellMinimize
	default:
		return
	}
	st.emit(shell)
}

func handlePopupRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	role, _ := engine.Get[*xdgRole](resource.UserData())
	id := surfaceID(role.surface)

	switch request.Name() {
	case "grab":
		st.emit(ShellRequest{
			Request:  ShellGrab,
			Resource: resource,
			Surface:  id,
			Seat:     request.Object(0),
			Serial:   request.Uint(1),
		})
	case "reposition":
		positioner, ok := positionerOf(request.Object(0))
		if !ok || !positioner.Complete() {
			xdgSurface, _ := engine.Get[*xdgSurfaceState](role.xdgSurface.UserData())
			xdgSurface.wmBase.PostError(xdgWmBaseErrorInvalidPositioner, "incomplete positioner for %s", resource)
			return
		}
		token := request.Uint(1)
		role.positioner = positioner
		geometry := positioner.Geometry()
		st.emit(ShellRequest{
			Request:    ShellReposition,
			Resource:   resource,
			Surface:    id,
			Positioner: positioner,
			Geometry:   geometry,
			Token:      token,
		})

		st.send(resource, "repositioned", token)
		st.send(resource, "configure", geometry.X, geometry.Y, geometry.Width, geometry.Height)
		st.send(role.xdgSurface, "configure", st.server.display.NextSerial())
	}
}
