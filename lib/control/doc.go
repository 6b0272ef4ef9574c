// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control serves a one-request-per-connection CBOR protocol
// on a Unix socket, and provides the matching client.
//
// A request is a CBOR map with an "action" field plus action-specific
// fields. The response is a [Response] envelope: {ok, error, data},
// where data holds the handler's result encoded as CBOR. The waybridge
// daemon uses this to publish its registry snapshot to inspection
// tools without those tools touching the dispatch goroutine.
package control
