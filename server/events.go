// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/fourcc"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// EventKind discriminates Event values.
type EventKind uint8

const (
	EventInstantiation EventKind = iota + 1
	EventDestruction
	EventClientRemoved
	EventCommit
	EventShellRequest
	EventSeat
	EventBufferImport
	EventDragAndDrop
	EventExplicitSync
)

func (k EventKind) String() string {
	switch k {
	case EventInstantiation:
		return "instantiation"
	case EventDestruction:
		return "destruction"
	case EventClientRemoved:
		return "client-removed"
	case EventCommit:
		return "commit"
	case EventShellRequest:
		return "shell-request"
	case EventSeat:
		return "seat"
	case EventBufferImport:
		return "buffer-import"
	case EventDragAndDrop:
		return "drag-and-drop"
	case EventExplicitSync:
		return "explicit-sync"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is one item returned by Dispatch. The set of implementations
// is closed; switch on the concrete type or on Kind.
//
// Resources carried by an event are valid until the next Dispatch.
type Event interface {
	Kind() EventKind
	event()
}

// Instantiation reports a newly tracked object. Surface is set for
// wl_surface; Seat for wl_seat, its capabilities, and data devices;
// Output for wl_output. Parent is the seat a capability came from, or
// the object a role object was created from.
type Instantiation struct {
	Resource  *engine.Resource
	Interface string
	Version   uint32
	Slot      registry.Kind
	Client    identity.ClientID
	Surface   identity.SurfaceID
	Seat      identity.SeatID
	Output    identity.OutputID
	Parent    *engine.Resource
}

// Destruction reports a tracked object leaving its registry slot.
// Only produced under DestructionReport. Resource is no longer alive.
type Destruction struct {
	Resource  *engine.Resource
	Interface string
	Slot      registry.Kind
	Client    identity.ClientID
	Surface   identity.SurfaceID
	Seat      identity.SeatID
}

// ClientRemoved reports a disconnect, after the Destruction events of
// the client's objects. Only produced under DestructionReport.
type ClientRemoved struct {
	Client      identity.ClientID
	Credentials engine.Credentials
	Process     string
}

// Commit reports wl_surface.commit. Buffer is the buffer attached
// since the previous commit, when Attached is set; a nil Buffer with
// Attached set means the client detached its content.
type Commit struct {
	Resource    *engine.Resource
	Surface     identity.SurfaceID
	SurfaceKind SurfaceKind
	Buffer      *engine.Resource
	Attached    bool
}

// ShellRequestKind discriminates ShellRequest values.
type ShellRequestKind uint8

const (
	ShellNewToplevel ShellRequestKind = iota + 1
	ShellNewPopup
	ShellAckConfigure
	ShellMove
	ShellResize
	ShellMaximize
	ShellUnmaximize
	ShellFullscreen
	ShellUnfullscreen
	ShellMinimize
	ShellGrab
	ShellReposition
	ShellSetTitle
	ShellSetAppID
)

var shellRequestNames = [...]string{
	ShellNewToplevel:  "new-toplevel",
	ShellNewPopup:     "new-popup",
	ShellAckConfigure: "ack-configure",
	ShellMove:         "move",
	ShellResize:       "resize",
	ShellMaximize:     "maximize",
	ShellUnmaximize:   "unmaximize",
	ShellFullscreen:   "fullscreen",
	ShellUnfullscreen: "unfullscreen",
	ShellMinimize:     "minimize",
	ShellGrab:         "grab",
	ShellReposition:   "reposition",
	ShellSetTitle:     "set-title",
	ShellSetAppID:     "set-app-id",
}

func (k ShellRequestKind) String() string {
	if int(k) > 0 && int(k) < len(shellRequestNames) {
		return shellRequestNames[k]
	}
	return fmt.Sprintf("shell(%d)", uint8(k))
}

// ShellRequest reports a window-management request from xdg-shell or
// wl_shell. Resource is the toplevel, popup, xdg_surface or
// wl_shell_surface the request arrived on. Fields that do not apply
// to Request are zero.
type ShellRequest struct {
	Request    ShellRequestKind
	Resource   *engine.Resource
	Surface    identity.SurfaceID
	Serial     uint32
	Seat       *engine.Resource
	Edges      uint32
	Output     *engine.Resource
	Parent     *engine.Resource
	Text       string
	Positioner Positioner
	Geometry   Rect
	Token      uint32
}

// SeatEventKind discriminates SeatEvent values.
type SeatEventKind uint8

const (
	SeatKeyboardFocus SeatEventKind = iota + 1
	SeatCursorImage
)

func (k SeatEventKind) String() string {
	switch k {
	case SeatKeyboardFocus:
		return "keyboard-focus"
	case SeatCursorImage:
		return "cursor-image"
	default:
		return fmt.Sprintf("seat(%d)", uint8(k))
	}
}

// SeatEvent reports a keyboard focus change or a cursor image change.
// Surface zero means no focus, or a hidden cursor. Resource is the
// wl_pointer for cursor changes a client requested, nil otherwise.
type SeatEvent struct {
	Change   SeatEventKind
	Resource *engine.Resource
	Seat     identity.SeatID
	Surface  identity.SurfaceID
	Previous identity.SurfaceID
	HotspotX int32
	HotspotY int32
	Serial   uint32
}

// Plane is one dmabuf plane. FD stays owned by the buffer and is
// closed when the buffer is destroyed.
type Plane struct {
	FD       int
	Offset   uint32
	Stride   uint32
	Modifier fourcc.Modifier
}

// BufferImport reports a wl_buffer created from dmabuf planes.
// Immediate is set for create_immed.
type BufferImport struct {
	Resource  *engine.Resource
	Params    *engine.Resource
	Width     int32
	Height    int32
	Format    fourcc.Format
	Flags     uint32
	Planes    []Plane
	Immediate bool
}

// DragAndDropKind discriminates DragAndDrop values.
type DragAndDropKind uint8

const (
	DragSelection DragAndDropKind = iota + 1
	DragStart
)

func (k DragAndDropKind) String() string {
	switch k {
	case DragSelection:
		return "selection"
	case DragStart:
		return "start-drag"
	default:
		return fmt.Sprintf("drag(%d)", uint8(k))
	}
}

// DragAndDrop reports a selection change or the start of a drag.
// Source is nil when the client cleared its selection or started a
// drag within itself.
type DragAndDrop struct {
	Action    DragAndDropKind
	Resource  *engine.Resource
	Seat      identity.SeatID
	Source    *engine.Resource
	MimeTypes []string
	Origin    identity.SurfaceID
	Icon      identity.SurfaceID
	Serial    uint32
}

// ExplicitSyncKind discriminates ExplicitSync values.
type ExplicitSyncKind uint8

const (
	SyncAcquireFence ExplicitSyncKind = iota + 1
	SyncReleaseRequest
)

func (k ExplicitSyncKind) String() string {
	switch k {
	case SyncAcquireFence:
		return "acquire-fence"
	case SyncReleaseRequest:
		return "release-request"
	default:
		return fmt.Sprintf("sync(%d)", uint8(k))
	}
}

// ExplicitSync reports an acquire fence or a release request on a
// surface synchronization object. Fence is a descriptor valid until
// the next Dispatch. Release is the new zwp_linux_buffer_release_v1.
type ExplicitSync struct {
	Action   ExplicitSyncKind
	Resource *engine.Resource
	Surface  identity.SurfaceID
	Fence    int
	Release  *engine.Resource
}

func (Instantiation) Kind() EventKind { return EventInstantiation }
func (Destruction) Kind() EventKind   { return EventDestruction }
func (ClientRemoved) Kind() EventKind { return EventClientRemoved }
func (Commit) Kind() EventKind        { return EventCommit }
func (ShellRequest) Kind() EventKind  { return EventShellRequest }
func (SeatEvent) Kind() EventKind     { return EventSeat }
func (BufferImport) Kind() EventKind  { return EventBufferImport }
func (DragAndDrop) Kind() EventKind   { return EventDragAndDrop }
func (ExplicitSync) Kind() EventKind  { return EventExplicitSync }

func (Instantiation) event() {}
func (Destruction) event()   {}
func (ClientRemoved) event() {}
func (Commit) event()        {}
func (ShellRequest) event()  {}
func (SeatEvent) event()     {}
func (BufferImport) event()  {}
func (DragAndDrop) event()   {}
func (ExplicitSync) event()  {}
