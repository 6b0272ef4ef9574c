// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "fmt"

// Kind names the registry slot an object occupies.
type Kind uint8

const (
	KindNone Kind = iota

	// Singleton slots. Registering overwrites the previous occupant.
	KindCompositor
	KindSubcompositor
	KindShellFactory
	KindShmFactory
	KindDataDeviceManager
	KindDmabuf
	KindExplicitSync

	// Multi-instance collections, ordered by registration.
	KindShell
	KindSeat
	KindOutput
	KindShmPool
	KindSurface
	KindSubsurface
	KindShellSurface
	KindPopup
	KindPositioner
	KindToplevel
	KindDataSource
	KindDataDevice
	KindDmabufParams
	KindSurfaceSync

	// Seat capabilities, held by a SeatRecord rather than the client.
	KindPointer
	KindKeyboard
	KindTouch

	kindCount
)

var kindNames = [kindCount]string{
	KindNone:              "none",
	KindCompositor:        "compositor",
	KindSubcompositor:     "subcompositor",
	KindShellFactory:      "shell-factory",
	KindShmFactory:        "shm-factory",
	KindDataDeviceManager: "data-device-manager",
	KindDmabuf:            "dmabuf",
	KindExplicitSync:      "explicit-sync",
	KindShell:             "shell",
	KindSeat:              "seat",
	KindOutput:            "output",
	KindShmPool:           "shm-pool",
	KindSurface:           "surface",
	KindSubsurface:        "subsurface",
	KindShellSurface:      "shell-surface",
	KindPopup:             "popup",
	KindPositioner:        "positioner",
	KindToplevel:          "toplevel",
	KindDataSource:        "data-source",
	KindDataDevice:        "data-device",
	KindDmabufParams:      "dmabuf-params",
	KindSurfaceSync:       "surface-sync",
	KindPointer:           "pointer",
	KindKeyboard:          "keyboard",
	KindTouch:             "touch",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Singleton reports whether the kind is a per-client singleton slot.
func (k Kind) Singleton() bool { return k >= KindCompositor && k <= KindExplicitSync }

// Collection reports whether the kind is a multi-instance collection
// held directly by the client record.
func (k Kind) Collection() bool { return k >= KindShell && k <= KindSurfaceSync }

// Capability reports whether the kind is a seat capability.
func (k Kind) Capability() bool { return k >= KindPointer && k <= KindTouch }

// ParseKind is the inverse of String.
func ParseKind(name string) (Kind, error) {
	for kind, known := range kindNames {
		if known == name {
			return Kind(kind), nil
		}
	}
	return KindNone, fmt.Errorf("unknown registry kind %q", name)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// clientKinds returns the client-held kinds in declaration order.
func clientKinds() []Kind {
	kinds := make([]Kind, 0, KindSurfaceSync)
	for kind := KindCompositor; kind <= KindSurfaceSync; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}
