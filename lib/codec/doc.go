// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used by the trace
// file format and the control socket. Callers import this package
// rather than fxamacker/cbor so the encoding options cannot drift
// between writer and reader.
package codec
