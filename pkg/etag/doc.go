// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package etag implements the CoAP entity tag value (RFC 7252 §5.10.6).
//
// # Canonical Form
//
// A Tag wraps between 0 and 8 opaque bytes. Every constructor normalizes its
// input to that byte form, so tags built from a byte slice, a number or a
// hexadecimal string compare equal when their bytes match:
//
//	a, _ := etag.FromBytes([]byte{0x01})
//	b := etag.FromUint64(1)
//	c, _ := etag.Parse("1", 16)
//	// a == b == c
//
// The empty tag is the canonical "no tag" value. The zero Tag, a nil or
// empty slice, an empty string and the number zero all produce it.
//
// # Errors
//
// Inputs longer than 8 bytes, or strings that cannot be parsed, are rejected
// with an *errors.EntityTagError matching errors.ErrInvalidEntityTag. The
// error message carries the input and the observed length.
package etag
