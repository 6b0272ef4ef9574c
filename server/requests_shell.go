// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/registry"
)

const shellErrorRole uint32 = 0

func bindShell(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindShell, handleShellRequest, Instantiation{})
}

func handleShellRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	if request.Name() != "get_shell_surface" {
		return
	}
	st := state(dispatch)
	shellSurface := request.NewResource(0)
	surface := request.Object(1)
	target := surfaceOf(surface)
	if target == nil {
		resource.PostError(shellErrorRole, "get_shell_surface on a destroyed surface")
		return
	}
	if target.role != nil {
		resource.PostError(shellErrorRole, "%s already has a role object", surface)
		return
	}
	target.role = shellSurface
	engine.Set(shellSurface.UserData(), roleBinding{surface: surface})
	st.instantiate(shellSurface, registry.KindShellSurface, handleShellSurfaceRequest,
		Instantiation{Surface: target.id, Parent: surface})
}

func handleShellSurfaceRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	binding, _ := engine.Get[roleBinding](resource.UserData())
	shell := ShellRequest{Resource: resource, Surface: surfaceID(binding.surface)}

	switch request.Name() {
	case "set_toplevel":
		if !assignRole(binding.surface, SurfaceToplevel, resource, shellErrorRole) {
			return
		}
		shell.Request = ShellNewToplevel
	case "set_popup":
		if !assignRole(binding.surface, SurfacePopup, resource, shellErrorRole) {
			return
		}
		shell.Request = ShellNewPopup
		shell.Seat = request.Object(0)
		shell.Serial = request.Uint(1)
		shell.Parent = request.Object(2)
		shell.Positioner = Positioner{OffsetX: request.Int(3), OffsetY: request.Int(4)}
		shell.Geometry = shell.Positioner.Geometry()
	case "move":
		shell.Request = ShellMove
		shell.Seat = request.Object(0)
		shell.Serial = request.Uint(1)
	case "resize":
		shell.Request = ShellResize
		shell.Seat = request.Object(0)
		shell.Serial = request.Uint(1)
		shell.Edges = request.Uint(2)
	case "set_fullscreen":
		shell.Request = ShellFullscreen
		shell.Output = request.Object(2)
	case "set_maximized":
		shell.Request = ShellMaximize
		shell.Output = request.Object(0)
	case "set_title":
		shell.Request = ShellSetTitle
		shell.Text = request.String(0)
	case "set_class":
		shell.Request = ShellSetAppID
		shell.Text = request.String(0)
	default:
		return
	}
	st.emit(shell)
}
