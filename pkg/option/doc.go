// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package option models CoAP option numbers and the values that have no
// richer home elsewhere.
//
// # Classification
//
// Every option number carries three properties in its low bits
// (RFC 7252 §5.4.6):
//
//	critical     = number & 0x01 == 0x01
//	unsafe       = number & 0x02 == 0x02
//	no-cache-key = number & 0x1e == 0x1c
//
// Classify is total over [0, 65535]; private numbers (>= 65000) follow the
// same rule.
//
// # Definitions
//
// Registered options (Uri-Host, ETag, Uri-Path, Block2, ...) have a fixed
// Def with their format, repeatability and length bounds. A Registry adds
// aliases for other options, typically loaded from a configuration file.
//
// # Values
//
//   - Other: an occurrence of an option without a dedicated attribute.
//   - QueryParam: a "key" or "key=value" query segment.
//   - Block: the (num, more, szx) triple of Block1/Block2.
package option
