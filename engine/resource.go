// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrDeadResource is returned when sending on a destroyed resource.
	ErrDeadResource = errors.New("engine: resource has been destroyed")

	// ErrEventVersion is returned when an event is newer than the
	// version the client bound.
	ErrEventVersion = errors.New("engine: event not supported by bound version")
)

// ObjectKey identifies a resource for the lifetime of a Display.
// Protocol object ids are recycled by clients; keys never are.
type ObjectKey uint64

// RequestFunc handles one request on a resource. dispatch is the value
// the caller passed to Display.Dispatch.
type RequestFunc func(dispatch any, resource *Resource, request *Request)

// DestructorFunc runs exactly once when a resource is destroyed, for
// any reason: a destructor request, server-side Destroy, or client
// disconnect.
type DestructorFunc func(dispatch any, resource *Resource)

// Resource is the server side of one protocol object.
type Resource struct {
	key      ObjectKey
	id       uint32
	iface    *Interface
	version  uint32
	client   *Client
	userData UserDataMap

	onRequest RequestFunc
	onDestroy DestructorFunc
	alive     bool
}

func (r *Resource) Key() ObjectKey           { return r.key }
func (r *Resource) ID() uint32               { return r.id }
func (r *Resource) Interface() *Interface    { return r.iface }
func (r *Resource) Version() uint32          { return r.version }
func (r *Resource) Client() *Client          { return r.client }
func (r *Resource) UserData() *UserDataMap   { return &r.userData }
func (r *Resource) Alive() bool              { return r.alive }
func (r *Resource) Is(iface *Interface) bool { return r.iface == iface }

// Equal compares by key. Two nil resources are equal.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.key == other.key
}

func (r *Resource) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%d", r.iface.Name, r.id)
}

// Assign sets the request handler.
func (r *Resource) Assign(handler RequestFunc) { r.onRequest = handler }

// AssignDestructor sets the destruction callback.
func (r *Resource) AssignDestructor(destructor DestructorFunc) { r.onDestroy = destructor }

// Send queues an event. Object arguments must belong to the same
// client. Descriptor arguments are duplicated; the queued copies are
// closed once written.
func (r *Resource) Send(event string, args ...any) error {
	if !r.alive {
		return fmt.Errorf("%s.%s: %w", r, event, ErrDeadResource)
	}
	opcode, message, ok := r.iface.Event(event)
	if !ok {
		return fmt.Errorf("%s has no event %q", r.iface.Name, event)
	}
	if message.Since > r.version {
		return fmt.Errorf("%s.%s (since %d, bound %d): %w", r, event, message.Since, r.version, ErrEventVersion)
	}
	for i, spec := range message.Args {
		if i >= len(args) || (spec.Type != ArgObject && spec.Type != ArgNewID) {
			continue
		}
		if target, ok := args[i].(*Resource); ok && target != nil {
			if target.client != r.client || !target.alive {
				return fmt.Errorf("%s.%s argument %s: %s is not a live object of this client", r, event, spec.Name, target)
			}
		}
	}

	encoded, err := EncodeMessage(r.id, opcode, message, args)
	if err != nil {
		return fmt.Errorf("%s: %w", r, err)
	}
	for i, fd := range encoded.FDs {
		duplicate, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			closeFDs(encoded.FDs[:i])
			return fmt.Errorf("%s.%s: duplicating fd: %w", r, event, err)
		}
		encoded.FDs[i] = duplicate
	}
	r.client.queue(encoded)
	return nil
}

// PostError sends wl_display.error for this resource and schedules
// the client's disconnect.
func (r *Resource) PostError(code uint32, format string, args ...any) {
	r.client.postError(r.id, code, fmt.Sprintf(format, args...))
}

// Destroy destroys the resource from the server side. The destructor
// runs, the id is released, and wl_display.delete_id is sent for
// client-allocated ids. Destroying twice is a no-op.
func (r *Resource) Destroy(dispatch any) {
	if !r.alive {
		return
	}
	r.alive = false
	if r.onDestroy != nil {
		r.onDestroy(dispatch, r)
	}

	client := r.client
	if client.objects[r.id] == r {
		delete(client.objects, r.id)
	}
	if client.destroying || r.id >= serverIDStart || r.id == displayObjectID {
		return
	}
	client.zombies[r.id] = r.iface
	if err := client.displayResource.Send("delete_id", r.id); err != nil {
		client.display.logger.Debug("sending delete_id", "object", r.String(), "error", err)
	}
}

func closeFDs(fds []int) {
	for _, fd := range fds {
		unix.Close(fd)
	}
}
