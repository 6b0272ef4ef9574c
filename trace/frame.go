// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/zeebo/blake3"
)

// Magic starts every trace file.
var Magic = [8]byte{'W', 'B', 'T', 'R', 'A', 'C', 'E', '1'}

const (
	headerSize = 44

	// maxPayload bounds a frame so that a corrupt length cannot make
	// the reader allocate without limit.
	maxPayload = 64 << 20
)

var (
	// ErrChecksum is returned when a frame payload does not match
	// the hash in its header.
	ErrChecksum = errors.New("trace: frame checksum mismatch")

	// ErrNotTrace is returned for input that does not start with
	// Magic.
	ErrNotTrace = errors.New("trace: not a trace file")
)

// checksumKey separates trace checksums from every other use of
// BLAKE3 keyed hashing.
var checksumKey = [32]byte{
	'w', 'a', 'y', 'b', 'r', 'i', 'd', 'g', 'e', '.', 't', 'r', 'a', 'c', 'e', '.',
	'f', 'r', 'a', 'm', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Checksum is the keyed hash stored in frame headers.
type Checksum [32]byte

func checksum(payload []byte) Checksum {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic("trace: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var sum Checksum
	copy(sum[:], hasher.Sum(nil))
	return sum
}

type header struct {
	compression Compression
	rawSize     uint32
	storedSize  uint32
	checksum    Checksum
}

func (h header) encode() []byte {
	buffer := make([]byte, headerSize)
	buffer[0] = byte(h.compression)
	binary.LittleEndian.PutUint32(buffer[4:8], h.rawSize)
	binary.LittleEndian.PutUint32(buffer[8:12], h.storedSize)
	copy(buffer[12:], h.checksum[:])
	return buffer
}

func decodeHeader(buffer []byte) (header, bool) {
	if len(buffer) != headerSize || !bytes.Equal(buffer[1:4], []byte{0, 0, 0}) {
		return header{}, false
	}
	h := header{
		compression: Compression(buffer[0]),
		rawSize:     binary.LittleEndian.Uint32(buffer[4:8]),
		storedSize:  binary.LittleEndian.Uint32(buffer[8:12]),
	}
	copy(h.checksum[:], buffer[12:])
	return h, h.rawSize <= maxPayload && h.storedSize <= maxPayload
}
