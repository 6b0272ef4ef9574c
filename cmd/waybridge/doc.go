// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Waybridge runs a standalone Wayland object tracker. It loads a
// configuration file (--config or WAYBRIDGE_CONFIG), opens the display
// socket, creates the configured seats and outputs, and logs every
// event produced by connected clients.
//
// With trace.path set, every registry mutation is written to a trace
// file that waybridge-trace can inspect and replay. With
// control.socket_path set, a CBOR control socket serves the current
// state to waybridge-top.
package main
