// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package optional provides a value type for attributes that may be absent.
package optional

import "golang.org/x/exp/constraints"

// Optional is a value that may or may not be set. The zero value is unset.
type Optional[T any] struct {
	value T
	isSet bool
}

// Some creates a set optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, isSet: true}
}

// None creates an unset optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr creates an optional from a pointer, unset when p is nil.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// IsSet reports whether the value is set.
func (o Optional[T]) IsSet() bool {
	return o.isSet
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.isSet
}

// GetOr returns the value, or def when unset.
func (o Optional[T]) GetOr(def T) T {
	if o.isSet {
		return o.value
	}
	return def
}

// Ptr returns a pointer to a copy of the value, or nil when unset.
func (o Optional[T]) Ptr() *T {
	if !o.isSet {
		return nil
	}
	v := o.value
	return &v
}

// CastInt converts an integer optional to another integer type.
func CastInt[A, B constraints.Integer](a Optional[A]) Optional[B] {
	if v, ok := a.Get(); ok {
		return Some(B(v))
	}
	return None[B]()
}
