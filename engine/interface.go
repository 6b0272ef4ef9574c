// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"strings"
)

// ArgType is a wire argument type, using the letters of the Wayland
// signature format.
type ArgType byte

const (
	ArgInt    ArgType = 'i'
	ArgUint   ArgType = 'u'
	ArgFixed  ArgType = 'f'
	ArgString ArgType = 's'
	ArgObject ArgType = 'o'
	ArgNewID  ArgType = 'n'
	ArgArray  ArgType = 'a'
	ArgFD     ArgType = 'h'
)

// Arg describes one message argument.
type Arg struct {
	Name     string
	Type     ArgType
	Nullable bool

	// Interface constrains object and new_id arguments. An untyped
	// new_id (wl_registry.bind) has an empty Interface and carries the
	// interface name and version on the wire.
	Interface string
}

// Message describes a request or an event.
type Message struct {
	Name  string
	Since uint32
	Args  []Arg

	// Destructor marks requests after which the object is gone, and
	// events after which the server destroys the object.
	Destructor bool
}

// Interface is a protocol interface definition.
type Interface struct {
	Name     string
	Version  uint32
	Requests []Message
	Events   []Message

	requestIndex map[string]int
	eventIndex   map[string]int
}

// Request looks up a request by name, returning its opcode.
func (i *Interface) Request(name string) (uint16, *Message, bool) {
	opcode, ok := i.requestIndex[name]
	if !ok {
		return 0, nil, false
	}
	return uint16(opcode), &i.Requests[opcode], true
}

// Event looks up an event by name, returning its opcode.
func (i *Interface) Event(name string) (uint16, *Message, bool) {
	opcode, ok := i.eventIndex[name]
	if !ok {
		return 0, nil, false
	}
	return uint16(opcode), &i.Events[opcode], true
}

func (i *Interface) String() string { return i.Name }

var interfaces = make(map[string]*Interface)

// LookupInterface returns the registered definition for name.
func LookupInterface(name string) (*Interface, bool) {
	iface, ok := interfaces[name]
	return iface, ok
}

// RegisterInterface adds an interface definition. Protocol extensions
// outside this package register their own interfaces at init time.
// Registering a name twice panics.
func RegisterInterface(iface *Interface) *Interface {
	if _, exists := interfaces[iface.Name]; exists {
		panic("engine: interface " + iface.Name + " registered twice")
	}
	iface.requestIndex = index(iface.Requests)
	iface.eventIndex = index(iface.Events)
	interfaces[iface.Name] = iface
	return iface
}

func index(messages []Message) map[string]int {
	result := make(map[string]int, len(messages))
	for opcode, message := range messages {
		result[message.Name] = opcode
	}
	return result
}

// msg builds a Message from a compact signature. Each space separated
// token is name:type or name:type:interface, with a leading ? on the
// type for nullable arguments:
//
//	msg("attach", "buffer:?o:wl_buffer x:i y:i")
func msg(name, signature string) Message {
	message := Message{Name: name, Since: 1}
	for _, token := range strings.Fields(signature) {
		parts := strings.Split(token, ":")
		if len(parts) < 2 || len(parts) > 3 {
			panic(fmt.Sprintf("engine: bad argument %q in %s", token, name))
		}
		arg := Arg{Name: parts[0]}
		kind := parts[1]
		if strings.HasPrefix(kind, "?") {
			arg.Nullable = true
			kind = kind[1:]
		}
		if len(kind) != 1 || !strings.Contains("iufsonah", kind) {
			panic(fmt.Sprintf("engine: bad argument type %q in %s", token, name))
		}
		arg.Type = ArgType(kind[0])
		if len(parts) == 3 {
			arg.Interface = parts[2]
		}
		message.Args = append(message.Args, arg)
	}
	return message
}

// since marks a message as added in version v.
func since(v uint32, message Message) Message {
	message.Since = v
	return message
}

// destructor marks a message as destroying its object.
func destructor(message Message) Message {
	message.Destructor = true
	return message
}
