// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"slices"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// dataSource is the sidecar of a wl_data_source.
type dataSource struct {
	mimeTypes []string
	actions   uint32
}

// dataDevice is the sidecar of a wl_data_device.
type dataDevice struct {
	seatID identity.SeatID
}

func bindDataDeviceManager(dispatch any, _ *engine.Client, resource *engine.Resource) {
	state(dispatch).instantiate(resource, registry.KindDataDeviceManager, handleDataDeviceManagerRequest, Instantiation{})
}

func handleDataDeviceManagerRequest(dispatch any, _ *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	switch request.Name() {
	case "create_data_source":
		source := request.NewResource(0)
		engine.Set(source.UserData(), &dataSource{})
		st.instantiate(source, registry.KindDataSource, handleDataSourceRequest, Instantiation{})
	case "get_data_device":
		device := request.NewResource(0)
		seat := request.Object(1)
		seatID := seatIDOf(seat)
		engine.Set(device.UserData(), dataDevice{seatID: seatID})
		st.instantiate(device, registry.KindDataDevice, handleDataDeviceRequest, Instantiation{Seat: seatID, Parent: seat})
	}
}

func handleDataSourceRequest(_ any, resource *engine.Resource, request *engine.Request) {
	source, _ := engine.Get[*dataSource](resource.UserData())
	switch request.Name() {
	case "offer":
		mimeType := request.String(0)
		if !slices.Contains(source.mimeTypes, mimeType) {
			source.mimeTypes = append(source.mimeTypes, mimeType)
		}
	case "set_actions":
		source.actions = request.Uint(0)
	}
}

func handleDataDeviceRequest(dispatch any, resource *engine.Resource, request *engine.Request) {
	st := state(dispatch)
	device, _ := engine.Get[dataDevice](resource.UserData())
	event := DragAndDrop{Resource: resource, Seat: device.seatID}
	switch request.Name() {
	case "set_selection":
		event.Action = DragSelection
		event.Source = request.Object(0)
		event.Serial = request.Uint(1)
	case "start_drag":
		event.Action = DragStart
		event.Source = request.Object(0)
		event.Origin = surfaceID(request.Object(1))
		event.Icon = surfaceID(request.Object(2))
		event.Serial = request.Uint(3)
	default:
		return
	}
	if event.Source != nil {
		if source, ok := engine.Get[*dataSource](event.Source.UserData()); ok {
			event.MimeTypes = slices.Clone(source.mimeTypes)
		}
	}
	st.emit(event)
}
