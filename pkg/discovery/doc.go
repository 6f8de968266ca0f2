// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package discovery models resources found through CoAP resource discovery
// (/.well-known/core) and compares discovery results across runs.
//
// Resources are parsed from link-format (RFC 6690), JSON or CBOR payloads.
// A Resource is immutable: list accessors return copies. Resources are
// totally ordered by Compare, and two resources are equal when Compare
// returns zero. Hash is consistent with that equality and is never zero.
//
// Store keeps the latest result per endpoint in badger so Diff can report
// added and removed resources between runs.
package discovery
