// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "reflect"

// UserDataMap is the sidecar attached to every client and resource.
// It holds at most one value per Go type, so independent layers can
// each stash their own metadata without coordinating keys.
//
// Not safe for concurrent use. Only the dispatch goroutine touches
// sidecars.
type UserDataMap struct {
	values map[reflect.Type]any
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// InsertIfMissing stores create() under T unless a T is already
// present, and returns the stored value either way.
func InsertIfMissing[T any](m *UserDataMap, create func() T) T {
	key := typeOf[T]()
	if existing, ok := m.values[key]; ok {
		return existing.(T)
	}
	if m.values == nil {
		m.values = make(map[reflect.Type]any)
	}
	value := create()
	m.values[key] = value
	return value
}

// Get returns the stored T.
func Get[T any](m *UserDataMap) (T, bool) {
	value, ok := m.values[typeOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return value.(T), true
}

// Set stores value under T, replacing any previous T.
func Set[T any](m *UserDataMap, value T) {
	if m.values == nil {
		m.values = make(map[reflect.Type]any)
	}
	m.values[typeOf[T]()] = value
}

// Remove deletes the stored T and reports whether one was present.
func Remove[T any](m *UserDataMap) bool {
	key := typeOf[T]()
	_, ok := m.values[key]
	delete(m.values, key)
	return ok
}

// Len returns the number of stored values.
func (m *UserDataMap) Len() int { return len(m.values) }
