// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Waybridge-trace reads operation traces written by waybridge.
//
//	waybridge-trace inspect [--operations] [--raw] <trace>
//	waybridge-trace replay [--json] <trace>
//
// inspect lists every frame with its compression, sizes and checksum.
// replay applies the recorded operations to an empty registry and
// prints the resulting per-client state, which matches what the live
// server held when the trace was closed.
package main
