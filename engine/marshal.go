// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"reflect"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine/wire"
)

// NewID is the decoded form of an untyped new_id argument, which
// names its own interface and version on the wire.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// FD marks a file descriptor argument. Send duplicates it, so the
// caller keeps ownership of the original.
type FD int

// EncodeMessage encodes args according to message. Accepted Go types
// per argument type:
//
//	i, u   any integer type
//	f      wire.Fixed or float64
//	s      string, or nil when nullable
//	o      *Resource or a raw uint32 id, nil when nullable
//	n      *Resource, a raw uint32 id, or NewID when untyped
//	a      []byte
//	h      FD or int
func EncodeMessage(object uint32, opcode uint16, message *Message, args []any) (wire.Message, error) {
	if len(args) != len(message.Args) {
		return wire.Message{}, fmt.Errorf("%s: got %d arguments, want %d", message.Name, len(args), len(message.Args))
	}

	encoder := wire.NewEncoder(object, opcode)
	for i, spec := range message.Args {
		if err := encodeArg(encoder, spec, args[i]); err != nil {
			return wire.Message{}, fmt.Errorf("%s argument %s: %w", message.Name, spec.Name, err)
		}
	}
	return encoder.Finish()
}

func encodeArg(encoder *wire.Encoder, spec Arg, value any) error {
	switch spec.Type {
	case ArgInt:
		v, err := integer(value)
		if err != nil {
			return err
		}
		encoder.PutInt(int32(v))
	case ArgUint:
		v, err := integer(value)
		if err != nil {
			return err
		}
		encoder.PutUint(uint32(v))
	case ArgFixed:
		switch v := value.(type) {
		case wire.Fixed:
			encoder.PutFixed(v)
		case float64:
			encoder.PutFixed(wire.FixedFromFloat(v))
		default:
			return fmt.Errorf("want wire.Fixed, got %T", value)
		}
	case ArgString:
		switch v := value.(type) {
		case string:
			encoder.PutString(v)
		case nil:
			if !spec.Nullable {
				return fmt.Errorf("null string for non-nullable argument")
			}
			encoder.PutNullString()
		default:
			return fmt.Errorf("want string, got %T", value)
		}
	case ArgObject, ArgNewID:
		if id, ok := value.(NewID); ok {
			if spec.Type != ArgNewID || spec.Interface != "" {
				return fmt.Errorf("NewID is only valid for untyped new_id")
			}
			encoder.PutString(id.Interface)
			encoder.PutUint(id.Version)
			encoder.PutUint(id.ID)
			return nil
		}
		id, err := objectID(value)
		if err != nil {
			return err
		}
		if id == 0 && (spec.Type == ArgNewID || !spec.Nullable) {
			return fmt.Errorf("null object for non-nullable argument")
		}
		encoder.PutUint(id)
	case ArgArray:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("want []byte, got %T", value)
		}
		encoder.PutArray(v)
	case ArgFD:
		switch v := value.(type) {
		case FD:
			encoder.PutFD(int(v))
		case int:
			encoder.PutFD(v)
		default:
			return fmt.Errorf("want FD, got %T", value)
		}
	default:
		return fmt.Errorf("unknown argument type %q", spec.Type)
	}
	return nil
}

func integer(value any) (int64, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint()), nil
	}
	return 0, fmt.Errorf("want an integer, got %T", value)
}

func objectID(value any) (uint32, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case *Resource:
		if v == nil {
			return 0, nil
		}
		return v.id, nil
	case uint32:
		return v, nil
	}
	return 0, fmt.Errorf("want *Resource, got %T", value)
}

// DecodeArgs decodes body according to message. Objects and typed
// new_ids decode to their raw uint32 id (zero for null), untyped
// new_ids to NewID, null strings to nil, and descriptors to int taken
// from the front of fds. It returns the descriptors left over, even on
// error; descriptors taken by a message that fails to decode are
// closed.
func DecodeArgs(message *Message, body []byte, fds []int) ([]any, []int, error) {
	decoder := wire.NewDecoder(body, fds)
	args := make([]any, 0, len(message.Args))
	var taken []int

	fail := func(spec Arg, err error) ([]any, []int, error) {
		for _, fd := range taken {
			unix.Close(fd)
		}
		return nil, decoder.FDs(), fmt.Errorf("%s argument %s: %w", message.Name, spec.Name, err)
	}

	for _, spec := range message.Args {
		switch spec.Type {
		case ArgInt:
			v, err := decoder.Int()
			if err != nil {
				return fail(spec, err)
			}
			args = append(args, v)
		case ArgUint:
			v, err := decoder.Uint()
			if err != nil {
				return fail(spec, err)
			}
			args = append(args, v)
		case ArgFixed:
			v, err := decoder.Fixed()
			if err != nil {
				return fail(spec, err)
			}
			args = append(args, v)
		case ArgString:
			v, null, err := decoder.String()
			if err != nil {
				return fail(spec, err)
			}
			if null {
				if !spec.Nullable {
					return fail(spec, wire.ErrNullString)
				}
				args = append(args, nil)
			} else {
				args = append(args, v)
			}
		case ArgObject:
			v, err := decoder.Uint()
			if err != nil {
				return fail(spec, err)
			}
			if v == 0 && !spec.Nullable {
				return fail(spec, fmt.Errorf("null object for non-nullable argument"))
			}
			args = append(args, v)
		case ArgNewID:
			if spec.Interface == "" {
				name, null, err := decoder.String()
				if err != nil {
					return fail(spec, err)
				}
				if null {
					return fail(spec, wire.ErrNullString)
				}
				version, err := decoder.Uint()
				if err != nil {
					return fail(spec, err)
				}
				id, err := decoder.Uint()
				if err != nil {
					return fail(spec, err)
				}
				args = append(args, NewID{Interface: name, Version: version, ID: id})
				continue
			}
			v, err := decoder.Uint()
			if err != nil {
				return fail(spec, err)
			}
			if v == 0 {
				return fail(spec, fmt.Errorf("new_id of zero"))
			}
			args = append(args, v)
		case ArgArray:
			v, err := decoder.Array()
			if err != nil {
				return fail(spec, err)
			}
			args = append(args, v)
		case ArgFD:
			fd, err := decoder.FD()
			if err != nil {
				return fail(spec, err)
			}
			taken = append(taken, fd)
			args = append(args, fd)
		}
	}

	if err := decoder.Done(); err != nil {
		for _, fd := range taken {
			unix.Close(fd)
		}
		return nil, decoder.FDs(), fmt.Errorf("%s: %w", message.Name, err)
	}
	return args, decoder.FDs(), nil
}
