// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fourcc names the pixel formats and buffer modifiers that a
// server advertises.
//
// DRM formats are four-character codes packed little-endian into a
// uint32 ("AR24" is ARGB8888). wl_shm uses the same codes except for
// its two mandatory formats, which it numbers 0 (argb8888) and 1
// (xrgb8888).
package fourcc

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is a DRM fourcc code.
type Format uint32

// Code packs four ASCII bytes into a Format.
func Code(a, b, c, d byte) Format {
	return Format(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var (
	ARGB8888    = Code('A', 'R', '2', '4')
	XRGB8888    = Code('X', 'R', '2', '4')
	ABGR8888    = Code('A', 'B', '2', '4')
	XBGR8888    = Code('X', 'B', '2', '4')
	RGB565      = Code('R', 'G', '1', '6')
	ARGB2101010 = Code('A', 'R', '3', '0')
	XRGB2101010 = Code('X', 'R', '3', '0')
	NV12        = Code('N', 'V', '1', '2')
	YUYV        = Code('Y', 'U', 'Y', 'V')
)

var names = map[string]Format{
	"argb8888":    ARGB8888,
	"xrgb8888":    XRGB8888,
	"abgr8888":    ABGR8888,
	"xbgr8888":    XBGR8888,
	"rgb565":      RGB565,
	"argb2101010": ARGB2101010,
	"xrgb2101010": XRGB2101010,
	"nv12":        NV12,
	"yuyv":        YUYV,
}

// String returns the lowercase name for known formats and the four
// characters otherwise.
func (f Format) String() string {
	for name, format := range names {
		if format == f {
			return name
		}
	}
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// Parse accepts a known name ("argb8888"), a literal four-character
// code ("AR24"), or a number ("0x34325241").
func Parse(text string) (Format, error) {
	if format, ok := names[strings.ToLower(text)]; ok {
		return format, nil
	}
	if len(text) == 4 {
		return Code(text[0], text[1], text[2], text[3]), nil
	}
	value, err := strconv.ParseUint(text, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown pixel format %q", text)
	}
	return Format(value), nil
}

// Shm is a wl_shm.format enum value.
type Shm uint32

const (
	ShmARGB8888 Shm = 0
	ShmXRGB8888 Shm = 1
)

// ShmCode converts a DRM format to its wl_shm enum value.
func ShmCode(f Format) Shm {
	switch f {
	case ARGB8888:
		return ShmARGB8888
	case XRGB8888:
		return ShmXRGB8888
	default:
		return Shm(f)
	}
}

// DRM returns the DRM format a wl_shm value refers to.
func (s Shm) DRM() Format {
	switch s {
	case ShmARGB8888:
		return ARGB8888
	case ShmXRGB8888:
		return XRGB8888
	default:
		return Format(s)
	}
}

// Modifier is a DRM format modifier describing buffer tiling or
// compression.
type Modifier uint64

const (
	ModifierLinear  Modifier = 0
	ModifierInvalid Modifier = 0x00ffffffffffffff
)

// Hi and Lo split a modifier the way zwp_linux_dmabuf_v1 transmits it.
func (m Modifier) Hi() uint32 { return uint32(m >> 32) }
func (m Modifier) Lo() uint32 { return uint32(m) }

// JoinModifier reassembles a modifier from its wire halves.
func JoinModifier(hi, lo uint32) Modifier { return Modifier(uint64(hi)<<32 | uint64(lo)) }

func (m Modifier) String() string {
	switch m {
	case ModifierLinear:
		return "linear"
	case ModifierInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("0x%016x", uint64(m))
	}
}

// ParseModifier accepts "linear", "invalid", or a number.
func ParseModifier(text string) (Modifier, error) {
	switch strings.ToLower(text) {
	case "linear":
		return ModifierLinear, nil
	case "invalid", "implicit":
		return ModifierInvalid, nil
	}
	value, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown format modifier %q", text)
	}
	return Modifier(value), nil
}
