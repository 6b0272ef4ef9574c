// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/waybridge/lib/clock"
	"github.com/bureau-foundation/waybridge/lib/config"
	"github.com/bureau-foundation/waybridge/lib/fourcc"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// DestructionPolicy selects whether destroyed objects are reported.
type DestructionPolicy uint8

const (
	// DestructionSilent makes destruction observable only as absence
	// from the registries. The one event a disconnect can still cause
	// is a SeatEvent clearing keyboard focus or the cursor image; it
	// carries no identity of the departed client.
	DestructionSilent DestructionPolicy = iota

	// DestructionReport emits a Destruction event for every tracked
	// object and a ClientRemoved event for every disconnect.
	DestructionReport
)

func (p DestructionPolicy) String() string {
	switch p {
	case DestructionSilent:
		return "silent"
	case DestructionReport:
		return "report"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParseDestructionPolicy accepts "silent" or "report".
func ParseDestructionPolicy(name string) (DestructionPolicy, error) {
	switch name {
	case "silent", "":
		return DestructionSilent, nil
	case "report":
		return DestructionReport, nil
	default:
		return DestructionSilent, fmt.Errorf("unknown destruction policy %q", name)
	}
}

// Capabilities toggles the optional protocol families. A disabled
// family has no global, so its event variants are never produced.
type Capabilities struct {
	XdgShell     bool
	Dmabuf       bool
	DragAndDrop  bool
	ExplicitSync bool
}

// TraceSink receives registry operations and is flushed once per
// dispatch cycle. *trace.Writer implements it.
type TraceSink interface {
	Record(registry.Operation)
	Flush() error
}

// Options configures a Server. The zero value is usable: an
// auto-named socket in $XDG_RUNTIME_DIR, the mandatory shm formats,
// no optional families, silent destruction.
type Options struct {
	// SocketName is the socket file name. Empty picks wayland-N.
	SocketName string

	// RuntimeDir holds the socket. Empty reads XDG_RUNTIME_DIR.
	RuntimeDir string

	// ShmFormats are advertised by wl_shm in addition to argb8888
	// and xrgb8888, which every server must support.
	ShmFormats []fourcc.Format

	// DmabufFormats are advertised by zwp_linux_dmabuf_v1.
	DmabufFormats []config.DmabufFormat

	Capabilities      Capabilities
	DestructionPolicy DestructionPolicy

	Logger *slog.Logger
	Clock  clock.Clock

	// Identities allocates client and surface identities. Nil uses
	// identity.Process().
	Identities *identity.Allocator

	// Observer sees every registry mutation.
	Observer registry.Observer

	// Trace records every registry mutation and is flushed after
	// each dispatch.
	Trace TraceSink
}

// ConfigOptions translates a validated configuration.
func ConfigOptions(cfg *config.Config) (Options, error) {
	shmFormats, err := cfg.ShmFormats()
	if err != nil {
		return Options{}, err
	}
	dmabufFormats, err := cfg.DmabufFormats()
	if err != nil {
		return Options{}, err
	}
	policy, err := ParseDestructionPolicy(cfg.DestructionPolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		SocketName:    cfg.Socket.Name,
		RuntimeDir:    cfg.Socket.RuntimeDir,
		ShmFormats:    shmFormats,
		DmabufFormats: dmabufFormats,
		Capabilities: Capabilities{
			XdgShell:     cfg.Capabilities.XdgShell,
			Dmabuf:       cfg.Capabilities.Dmabuf,
			DragAndDrop:  cfg.Capabilities.DragAndDrop,
			ExplicitSync: cfg.Capabilities.ExplicitSync,
		},
		DestructionPolicy: policy,
	}, nil
}

// PhysicalFromConfig translates an output's configured properties.
func PhysicalFromConfig(output config.OutputConfig) PhysicalProperties {
	return PhysicalProperties{
		WidthMM:  output.Physical.WidthMM,
		HeightMM: output.Physical.HeightMM,
		Subpixel: ParseSubpixel(output.Physical.Subpixel),
		Make:     output.Physical.Make,
		Model:    output.Physical.Model,
		Mode: Mode{
			Width:   output.Mode.Width,
			Height:  output.Mode.Height,
			Refresh: output.Mode.Refresh,
		},
		Scale: output.Scale,
	}
}
