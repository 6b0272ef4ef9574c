// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/bureau-foundation/waybridge/engine/wire"
)

// Request is a decoded request, its object and new_id arguments
// already resolved to resources. Accessors panic when the index does
// not match the argument type; handlers are written against a known
// signature.
type Request struct {
	message *Message
	opcode  uint16
	args    []any
	fdTaken []bool
}

func (r *Request) Name() string      { return r.message.Name }
func (r *Request) Opcode() uint16    { return r.opcode }
func (r *Request) Message() *Message { return r.message }

func (r *Request) Int(i int) int32             { return r.args[i].(int32) }
func (r *Request) Uint(i int) uint32           { return r.args[i].(uint32) }
func (r *Request) Fixed(i int) wire.Fixed      { return r.args[i].(wire.Fixed) }
func (r *Request) Array(i int) []byte          { return r.args[i].([]byte) }
func (r *Request) NewID(i int) NewID           { return r.args[i].(NewID) }
func (r *Request) Object(i int) *Resource      { return r.args[i].(*Resource) }
func (r *Request) NewResource(i int) *Resource { return r.args[i].(*Resource) }

// String returns a string argument, or "" when it was null.
func (r *Request) String(i int) string {
	s, _ := r.args[i].(string)
	return s
}

// NullableString returns a string argument and whether it was present.
func (r *Request) NullableString(i int) (string, bool) {
	s, ok := r.args[i].(string)
	return s, ok
}

// TakeFD transfers ownership of a descriptor argument to the caller.
// Descriptors not taken are closed after the handler returns. A
// second TakeFD of the same argument returns -1.
func (r *Request) TakeFD(i int) int {
	if r.fdTaken[i] {
		return -1
	}
	r.fdTaken[i] = true
	return r.args[i].(int)
}

func (r *Request) closeUntakenFDs() {
	for i, spec := range r.message.Args {
		if spec.Type == ArgFD && !r.fdTaken[i] {
			closeFDs([]int{r.args[i].(int)})
			r.fdTaken[i] = true
		}
	}
}
