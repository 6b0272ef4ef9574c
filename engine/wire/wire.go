// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire encodes and decodes Wayland wire-protocol messages.
//
// A message is an 8-byte header followed by 32-bit aligned arguments,
// all in host byte order. The header holds the target object id and a
// word packing (size << 16 | opcode), where size counts the header
// itself. File descriptors are not in the byte stream; they travel as
// SCM_RIGHTS ancillary data and are consumed in order by the messages
// that declare fd arguments.
//
// The package knows nothing about interfaces or signatures. Callers
// read and write arguments in the order their message declares.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ByteOrder is the wire byte order.
var ByteOrder = binary.NativeEndian

const (
	// HeaderSize is the length of every message header.
	HeaderSize = 8

	// MaxMessageSize is the largest message libwayland will accept.
	MaxMessageSize = 4096

	// MaxFDsPerMessage bounds the ancillary data read per recvmsg.
	MaxFDsPerMessage = 28
)

var (
	ErrTruncated   = errors.New("wire: message truncated")
	ErrMissingFD   = errors.New("wire: message references a file descriptor that was not sent")
	ErrBadString   = errors.New("wire: string is not NUL terminated")
	ErrNullString  = errors.New("wire: null string")
	ErrTooLarge    = errors.New("wire: message exceeds maximum size")
	ErrBadHeader   = errors.New("wire: invalid message size in header")
	ErrTrailingArg = errors.New("wire: message has trailing bytes")
)

// Header is a decoded message header.
type Header struct {
	Object uint32
	Opcode uint16
	Size   uint16
}

// ParseHeader decodes the header at the start of data. ok is false
// when fewer than HeaderSize bytes are available.
func ParseHeader(data []byte) (header Header, ok bool, err error) {
	if len(data) < HeaderSize {
		return Header{}, false, nil
	}
	word := ByteOrder.Uint32(data[4:8])
	header = Header{
		Object: ByteOrder.Uint32(data[0:4]),
		Opcode: uint16(word & 0xffff),
		Size:   uint16(word >> 16),
	}
	if header.Size < HeaderSize || header.Size%4 != 0 {
		return header, true, fmt.Errorf("%w: %d", ErrBadHeader, header.Size)
	}
	return header, true, nil
}

// Fixed is a signed 24.8 fixed-point number.
type Fixed int32

// FixedFromFloat converts f, saturating at the representable range.
func FixedFromFloat(f float64) Fixed {
	scaled := math.Round(f * 256)
	switch {
	case scaled > math.MaxInt32:
		return Fixed(math.MaxInt32)
	case scaled < math.MinInt32:
		return Fixed(math.MinInt32)
	}
	return Fixed(scaled)
}

// FixedFromInt converts an integer exactly.
func FixedFromInt(i int32) Fixed { return Fixed(i << 8) }

func (f Fixed) Float64() float64 { return float64(f) / 256 }

// Int truncates toward negative infinity.
func (f Fixed) Int() int32 { return int32(f) >> 8 }

func (f Fixed) String() string { return fmt.Sprintf("%g", f.Float64()) }

// Message is an encoded message ready to write.
type Message struct {
	Data []byte
	FDs  []int
}

func padding(n int) int { return (4 - n%4) % 4 }
