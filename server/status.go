// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// Status is an immutable copy of the host-visible server state. It
// holds no resources, so it may be read from any goroutine after the
// Dispatch goroutine builds it.
type Status struct {
	Socket   string            `cbor:"socket"`
	Clients  []ClientStatus    `cbor:"clients"`
	Seats    []SeatStatus      `cbor:"seats"`
	Outputs  []OutputStatus    `cbor:"outputs"`
	Registry registry.Snapshot `cbor:"registry"`
}

// ClientStatus describes one connection.
type ClientStatus struct {
	ID      identity.ClientID `cbor:"id"`
	PID     int32             `cbor:"pid"`
	UID     uint32            `cbor:"uid"`
	Process string            `cbor:"process,omitempty"`
	Objects int               `cbor:"objects"`
}

// SeatStatus describes one host seat.
type SeatStatus struct {
	ID       identity.SeatID    `cbor:"id"`
	Name     string             `cbor:"name"`
	Keyboard bool               `cbor:"keyboard"`
	Cursor   bool               `cbor:"cursor"`
	Focus    identity.SurfaceID `cbor:"focus,omitempty"`
}

// OutputStatus describes one host output.
type OutputStatus struct {
	ID     identity.OutputID `cbor:"id"`
	Name   string            `cbor:"name"`
	Width  int32             `cbor:"width"`
	Height int32             `cbor:"height"`
	Scale  int32             `cbor:"scale"`
}

// Status captures the current state. It must be called from the
// goroutine that calls Dispatch.
func (s *Server) Status() Status {
	status := Status{
		Socket:   s.socketName,
		Registry: s.Snapshot(),
	}
	for _, client := range s.Clients() {
		status.Clients = append(status.Clients, ClientStatus{
			ID:      client.ID,
			PID:     client.Credentials.PID,
			UID:     client.Credentials.UID,
			Process: client.Process,
			Objects: client.Objects,
		})
	}
	for _, seat := range s.seats {
		status.Seats = append(status.Seats, SeatStatus{
			ID:       seat.id,
			Name:     seat.name,
			Keyboard: seat.HasKeyboard(),
			Cursor:   seat.HasCursor(),
			Focus:    seat.focus,
		})
	}
	for _, output := range s.outputs {
		status.Outputs = append(status.Outputs, OutputStatus{
			ID:     output.id,
			Name:   output.name,
			Width:  output.properties.Mode.Width,
			Height: output.properties.Mode.Height,
			Scale:  output.properties.Scale,
		})
	}
	return status
}
