// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine is a server-side Wayland protocol engine.
//
// It accepts clients on Unix sockets, decodes requests against the
// interface tables in this package, resolves object arguments to
// [Resource] values, and routes each request to the handler assigned
// to its resource. It knows nothing about what objects mean; that is
// left to the layers that create globals and assign handlers.
//
// # Threading
//
// A [Display] belongs to one goroutine: the one calling
// [Display.Dispatch]. Every bind, request, destructor, and client hook
// runs on that goroutine and receives the opaque dispatch value passed
// to Dispatch, so handlers can be plain functions that are given their
// state rather than closures sharing it.
//
// # Object lifetime
//
// Resources are created by the engine before a request handler runs,
// for every new_id argument. A destructor request destroys its
// resource after the handler returns. When a client disconnects, its
// resources are destroyed newest first, then the OnClientDestroyed
// hook runs. [Resource.Key] stays unique for the life of the Display
// even though clients reuse protocol ids.
//
// # Sidecars
//
// Clients and resources each carry a [UserDataMap] keyed by Go type.
// Use [InsertIfMissing], [Get], [Set], and [Remove].
package engine
