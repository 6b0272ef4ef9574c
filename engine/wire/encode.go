// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// Encoder builds one message. Arguments are appended in declaration
// order; Finish fills in the header.
type Encoder struct {
	object uint32
	opcode uint16
	data   []byte
	fds    []int
}

// NewEncoder starts a message for object with the given opcode.
func NewEncoder(object uint32, opcode uint16) *Encoder {
	encoder := &Encoder{object: object, opcode: opcode, data: make([]byte, HeaderSize, 64)}
	return encoder
}

func (e *Encoder) PutUint(v uint32) {
	e.data = ByteOrder.AppendUint32(e.data, v)
}

func (e *Encoder) PutInt(v int32) { e.PutUint(uint32(v)) }

func (e *Encoder) PutFixed(v Fixed) { e.PutUint(uint32(v)) }

// PutString writes a non-null string.
func (e *Encoder) PutString(s string) {
	e.PutUint(uint32(len(s) + 1))
	e.data = append(e.data, s...)
	e.data = append(e.data, 0)
	e.pad(len(s) + 1)
}

// PutNullString writes the null string (length zero).
func (e *Encoder) PutNullString() { e.PutUint(0) }

func (e *Encoder) PutArray(b []byte) {
	e.PutUint(uint32(len(b)))
	e.data = append(e.data, b...)
	e.pad(len(b))
}

// PutFD queues fd for ancillary transmission. Nothing is written to
// the byte stream.
func (e *Encoder) PutFD(fd int) { e.fds = append(e.fds, fd) }

func (e *Encoder) pad(n int) {
	for range padding(n) {
		e.data = append(e.data, 0)
	}
}

// Finish writes the header and returns the message.
func (e *Encoder) Finish() (Message, error) {
	if len(e.data) > MaxMessageSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(e.data))
	}
	ByteOrder.PutUint32(e.data[0:4], e.object)
	ByteOrder.PutUint32(e.data[4:8], uint32(len(e.data))<<16|uint32(e.opcode))
	return Message{Data: e.data, FDs: e.fds}, nil
}
