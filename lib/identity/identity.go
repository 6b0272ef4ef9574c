// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity defines the stable identifiers attached to
// long-lived protocol entities.
//
// Clients and surfaces get process-unique identities from an
// [Allocator] when they first appear. Seats and outputs are identified
// by whatever the host chose when it created them. Identities are
// never reused: an allocator only counts up, so a dead surface's
// identity cannot alias a newer one.
//
// All identity types are plain integers. Conversion to and from the
// raw integer is lossless:
//
//	raw := id.Uint64()
//	same := identity.SurfaceID(raw)
package identity

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// ClientID identifies one connected client.
type ClientID uint64

// SurfaceID identifies one surface for the host.
type SurfaceID uint64

// SeatID identifies a host-created seat.
type SeatID uint32

// OutputID identifies a host-created output.
type OutputID uint32

func (id ClientID) Uint64() uint64  { return uint64(id) }
func (id SurfaceID) Uint64() uint64 { return uint64(id) }
func (id SeatID) Uint32() uint32    { return uint32(id) }
func (id OutputID) Uint32() uint32  { return uint32(id) }

// Valid reports whether id was ever allocated.
func (id ClientID) Valid() bool  { return id != 0 }
func (id SurfaceID) Valid() bool { return id != 0 }

func (id ClientID) String() string  { return "client-" + strconv.FormatUint(uint64(id), 10) }
func (id SurfaceID) String() string { return "surface-" + strconv.FormatUint(uint64(id), 10) }
func (id SeatID) String() string    { return "seat-" + strconv.FormatUint(uint64(id), 10) }
func (id OutputID) String() string  { return "output-" + strconv.FormatUint(uint64(id), 10) }

// MarshalText gives identities their String form in traces and on the
// control socket.
func (id ClientID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id SurfaceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SeatID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id OutputID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *ClientID) UnmarshalText(text []byte) error {
	value, err := parse(text, "client-", 64)
	*id = ClientID(value)
	return err
}

func (id *SurfaceID) UnmarshalText(text []byte) error {
	value, err := parse(text, "surface-", 64)
	*id = SurfaceID(value)
	return err
}

func (id *SeatID) UnmarshalText(text []byte) error {
	value, err := parse(text, "seat-", 32)
	*id = SeatID(value)
	return err
}

func (id *OutputID) UnmarshalText(text []byte) error {
	value, err := parse(text, "output-", 32)
	*id = OutputID(value)
	return err
}

func parse(text []byte, prefix string, bits int) (uint64, error) {
	digits, found := strings.CutPrefix(string(text), prefix)
	if !found {
		return 0, fmt.Errorf("identity %q: missing %q prefix", text, prefix)
	}
	value, err := strconv.ParseUint(digits, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("identity %q: %w", text, err)
	}
	return value, nil
}

// Allocator hands out client and surface identities from one shared
// counter. The zero value is ready to use and starts at 1. Safe for
// concurrent use, though the dispatch loop only calls it from one
// goroutine.
type Allocator struct {
	next atomic.Uint64
}

// NextClient returns a fresh ClientID.
func (a *Allocator) NextClient() ClientID { return ClientID(a.next.Add(1)) }

// NextSurface returns a fresh SurfaceID.
func (a *Allocator) NextSurface() SurfaceID { return SurfaceID(a.next.Add(1)) }

var process Allocator

// Process returns the allocator shared by every server in this
// process, so identities stay unique even with several embedded
// servers running side by side.
func Process() *Allocator { return &process }
