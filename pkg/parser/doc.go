// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package parser defines the interface for message inspection.
//
// A Parser reads one message, decodes it into attributes, lets a
// handler.Handler inspect or reject it, and writes the original bytes on.
//
//	Parse(ctx context.Context, r io.Reader, w io.Writer, dir Direction, h handler.Handler, hctx *handler.Context) error
//
// # Direction
//
// The Direction type indicates message flow:
//   - Upstream: client to server (requests)
//   - Downstream: server to client (responses, notifications)
//
// The CoAP parser lives in parser/coap.
package parser
