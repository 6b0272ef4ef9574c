// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"slices"
)

// BindFunc runs when a client binds a global. The resource already
// exists with the interface and the version the client asked for.
type BindFunc func(dispatch any, client *Client, resource *Resource)

// Global is an object advertised through wl_registry.
type Global struct {
	display *Display
	name    uint32
	iface   *Interface
	version uint32
	bind    BindFunc
	removed bool
}

// CreateGlobal advertises iface at version to every current and future
// client. It panics if version is zero or above what the interface
// definition supports.
func (d *Display) CreateGlobal(iface *Interface, version uint32, bind BindFunc) *Global {
	if version == 0 || version > iface.Version {
		panic(fmt.Sprintf("engine: %s version %d out of range 1..%d", iface.Name, version, iface.Version))
	}
	d.nextGlobal++
	global := &Global{
		display: d,
		name:    d.nextGlobal,
		iface:   iface,
		version: version,
		bind:    bind,
	}
	d.globals = append(d.globals, global)
	for _, client := range d.clients {
		for _, registry := range client.registries {
			global.announce(registry)
		}
	}
	return global
}

func (g *Global) Name() uint32          { return g.name }
func (g *Global) Interface() *Interface { return g.iface }
func (g *Global) Version() uint32       { return g.version }
func (g *Global) Removed() bool         { return g.removed }

// Remove withdraws the global. Clients that already bound it keep
// their resources. A bind that races with the removal gets an inert
// resource that ignores every request.
func (g *Global) Remove() {
	if g.removed {
		return
	}
	g.removed = true
	display := g.display
	display.globals = slices.DeleteFunc(display.globals, func(other *Global) bool { return other == g })
	display.removedGlobals[g.name] = g
	for _, client := range display.clients {
		for _, registry := range client.registries {
			if err := registry.Send("global_remove", g.name); err != nil {
				display.logger.Debug("sending global_remove", "error", err)
			}
		}
	}
}

func (g *Global) announce(registry *Resource) {
	if err := registry.Send("global", g.name, g.iface.Name, g.version); err != nil {
		g.display.logger.Debug("sending global", "interface", g.iface.Name, "error", err)
	}
}

func (d *Display) global(name uint32) *Global {
	for _, global := range d.globals {
		if global.name == name {
			return global
		}
	}
	return d.removedGlobals[name]
}

// handleRegistryRequest implements wl_registry.bind.
func handleRegistryRequest(dispatch any, registry *Resource, request *Request) {
	name := request.Uint(0)
	newID := request.NewID(1)
	client := registry.client

	global := client.display.global(name)
	switch {
	case global == nil:
		registry.PostError(DisplayErrorInvalidObject, "invalid global %s (%d)", newID.Interface, name)
		return
	case global.iface.Name != newID.Interface:
		registry.PostError(DisplayErrorInvalidObject, "invalid interface for global %d: have %s, wanted %s",
			name, newID.Interface, global.iface.Name)
		return
	case newID.Version == 0 || newID.Version > global.version:
		registry.PostError(DisplayErrorInvalidObject, "invalid version for global %s (%d): have %d, wanted 1..%d",
			newID.Interface, name, newID.Version, global.version)
		return
	}

	resource := client.newResource(newID.ID, global.iface, newID.Version)
	if global.removed {
		return
	}
	global.bind(dispatch, client, resource)
}
