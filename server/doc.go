// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is an embeddable Wayland display server that tracks
// the protocol objects its clients create and reports their lifecycle
// to the host as a batch of typed events.
//
// The host owns the loop. Each call to [Server.Dispatch] flushes
// pending output, waits up to a budget for client input, runs every
// resulting callback on the calling goroutine, and returns the events
// those callbacks queued in the order they happened:
//
//	srv, err := server.New(server.Options{Capabilities: server.Capabilities{XdgShell: true}})
//	if err != nil {
//		return err
//	}
//	defer srv.Close()
//	srv.CreateSeat(0, "seat0")
//	for ctx.Err() == nil {
//		for _, event := range srv.Dispatch(ctx, 16*time.Millisecond) {
//			handle(event)
//		}
//	}
//
// Every object a client creates is recorded in a per-client
// [registry.Registry] slot before its [Instantiation] is queued, so an
// event about an object never precedes the event that introduced it.
// Destruction is reported or silent according to [DestructionPolicy].
//
// Seats and outputs belong to the host: [Server.CreateSeat] and
// [Server.CreateOutput] advertise them as globals, and capability
// changes are broadcast to every client that bound the seat.
//
// A Server is single-threaded. Handles carried by events and returned
// by accessors are valid only until the next Dispatch.
package server
