// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace records registry operations to a file and reads them
// back.
//
// A trace is an 8-byte magic followed by frames. The server flushes
// one frame per dispatch cycle that changed a registry, so frame
// boundaries are cycle boundaries. Each frame is:
//
//	offset  size  field
//	0       1     compression tag (0 none, 1 lz4, 2 zstd)
//	1       3     reserved, zero
//	4       4     uncompressed payload length, little endian
//	8       4     stored payload length, little endian
//	12      32    BLAKE3 keyed hash of the uncompressed payload
//	44      n     stored payload
//
// The payload is a deterministic CBOR array of [registry.Operation].
// Replaying every frame through a [registry.Replayer] rebuilds the
// registry the traced server had when the file was closed.
package trace
