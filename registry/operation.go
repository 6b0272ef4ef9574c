// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
)

// Op is the kind of registry mutation an Operation reports.
type Op uint8

const (
	OpInsertClient Op = iota + 1
	OpRemoveClient
	OpRegister
	OpUnregister
	OpRegisterSeat
	OpUnregisterSeat
	OpRegisterCapability
	OpUnregisterCapability
)

func (o Op) String() string {
	switch o {
	case OpInsertClient:
		return "insert-client"
	case OpRemoveClient:
		return "remove-client"
	case OpRegister:
		return "register"
	case OpUnregister:
		return "unregister"
	case OpRegisterSeat:
		return "register-seat"
	case OpUnregisterSeat:
		return "unregister-seat"
	case OpRegisterCapability:
		return "register-capability"
	case OpUnregisterCapability:
		return "unregister-capability"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Operation describes one successful registry mutation. Fields that
// do not apply to Op are zero. Seat is the wl_seat key a capability
// belongs to; SeatID is the host seat a wl_seat was bound from.
type Operation struct {
	Op     Op                `json:"op" cbor:"op"`
	Client identity.ClientID `json:"client" cbor:"client"`
	Kind   Kind              `json:"kind,omitempty" cbor:"kind,omitempty"`
	Object engine.ObjectKey  `json:"object,omitempty" cbor:"object,omitempty"`
	Seat   engine.ObjectKey  `json:"seat,omitempty" cbor:"seat,omitempty"`
	SeatID identity.SeatID   `json:"seat_id,omitempty" cbor:"seat_id,omitempty"`
}

func (o Operation) String() string {
	switch o.Op {
	case OpInsertClient, OpRemoveClient:
		return fmt.Sprintf("%s %s", o.Op, o.Client)
	case OpRegisterSeat, OpUnregisterSeat:
		return fmt.Sprintf("%s %s object=%d %s", o.Op, o.Client, o.Object, o.SeatID)
	case OpRegisterCapability, OpUnregisterCapability:
		return fmt.Sprintf("%s %s %s object=%d seat=%d", o.Op, o.Client, o.Kind, o.Object, o.Seat)
	default:
		return fmt.Sprintf("%s %s %s object=%d", o.Op, o.Client, o.Kind, o.Object)
	}
}

// Observer receives every successful mutation, synchronously, in the
// order the mutations happened.
type Observer func(Operation)

// Key is a bare object key usable as a registry handle.
type Key engine.ObjectKey

func (k Key) Key() engine.ObjectKey { return engine.ObjectKey(k) }

// Replayer rebuilds a Registry[Key] from a stream of operations. Each
// client gets its own sidecar, created on insert.
type Replayer struct {
	Registry *Registry[Key]
	sidecars map[identity.ClientID]*engine.UserDataMap
}

// NewReplayer creates a replayer over an empty registry.
func NewReplayer(registry *Registry[Key]) *Replayer {
	return &Replayer{Registry: registry, sidecars: make(map[identity.ClientID]*engine.UserDataMap)}
}

// Apply performs one operation. It returns an error for operations
// that name a client the stream never inserted or an unknown op.
func (p *Replayer) Apply(operation Operation) error {
	if operation.Op == OpInsertClient {
		sidecar := &engine.UserDataMap{}
		p.sidecars[operation.Client] = sidecar
		p.Registry.InsertClient(sidecar, operation.Client)
		return nil
	}
	sidecar, ok := p.sidecars[operation.Client]
	if !ok {
		return fmt.Errorf("replaying %s: client never inserted", operation)
	}
	object := Key(operation.Object)
	switch operation.Op {
	case OpRemoveClient:
		p.Registry.RemoveClient(sidecar)
		delete(p.sidecars, operation.Client)
	case OpRegister:
		p.Registry.Register(sidecar, object, operation.Kind)
	case OpUnregister:
		p.Registry.Unregister(sidecar, object, operation.Kind)
	case OpRegisterSeat:
		p.Registry.RegisterSeat(sidecar, object, operation.SeatID)
	case OpUnregisterSeat:
		p.Registry.UnregisterSeat(sidecar, object)
	case OpRegisterCapability:
		p.Registry.RegisterCapability(sidecar, Key(operation.Seat), object, operation.Kind)
	case OpUnregisterCapability:
		p.Registry.UnregisterCapability(sidecar, object, operation.Kind)
	default:
		return fmt.Errorf("replaying %s: unknown op", operation)
	}
	return nil
}
