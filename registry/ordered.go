// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"container/list"
	"iter"
)

// ordered is an insertion-ordered map with O(1) lookup and removal.
type ordered[K comparable, V any] struct {
	values *list.List
	index  map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{values: list.New(), index: make(map[K]*list.Element)}
}

// add appends value under key. It reports false, leaving the existing
// entry and its position unchanged, when key is already present.
func (o *ordered[K, V]) add(key K, value V) bool {
	if _, exists := o.index[key]; exists {
		return false
	}
	o.index[key] = o.values.PushBack(entry[K, V]{key: key, value: value})
	return true
}

func (o *ordered[K, V]) get(key K) (V, bool) {
	element, ok := o.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return element.Value.(entry[K, V]).value, true
}

func (o *ordered[K, V]) remove(key K) (V, bool) {
	element, ok := o.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(o.index, key)
	return o.values.Remove(element).(entry[K, V]).value, true
}

func (o *ordered[K, V]) len() int { return len(o.index) }

func (o *ordered[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for element := o.values.Front(); element != nil; element = element.Next() {
			e := element.Value.(entry[K, V])
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

func (o *ordered[K, V]) slice() []V {
	values := make([]V, 0, o.len())
	for _, value := range o.all() {
		values = append(values, value)
	}
	return values
}

func (o *ordered[K, V]) keys() []K {
	keys := make([]K, 0, o.len())
	for key := range o.all() {
		keys = append(keys, key)
	}
	return keys
}
