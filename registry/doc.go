// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry keeps the per-client index of live protocol
// objects.
//
// Every connected client owns one [ClientRecord], stored in the
// client's sidecar ([engine.UserDataMap]) and indexed by its
// [identity.ClientID]. A record holds singleton slots for the global
// factories a client binds once (compositor, shm, xdg_wm_base, ...)
// and insertion-ordered collections for everything a client can
// create many of (surfaces, pools, toplevels, ...). Bound seats are
// [SeatRecord] values nested under the client, each with its own
// ordered pointer, keyboard and touch lists, and also indexed by the
// host [identity.SeatID] so one host seat is addressable across every
// client that bound it.
//
// The registry is generic over the handle type. The server
// instantiates Registry[*engine.Resource]; trace replay instantiates
// it over plain object keys. Both produce identical [Snapshot] values
// for the same sequence of operations.
//
// Lookups that find no record are not errors: the call logs a warning
// and does nothing. A Registry is not safe for concurrent use.
package registry
