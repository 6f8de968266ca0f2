// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"context"
	"io"

	"github.com/absmach/coapattr/pkg/handler"
)

// Direction indicates the direction of message flow.
type Direction int

const (
	// Upstream represents messages flowing from client to server.
	Upstream Direction = iota

	// Downstream represents messages flowing from server to client.
	Downstream
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Upstream:
		return "upstream"
	case Downstream:
		return "downstream"
	default:
		return "unknown"
	}
}

// ParseDirection parses "upstream" or "downstream".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "upstream", "up":
		return Upstream, true
	case "downstream", "down":
		return Downstream, true
	default:
		return 0, false
	}
}

// Parser handles protocol-specific message processing.
type Parser interface {
	// Parse reads one message from r, hands its decoded form to h, and
	// writes the message to w unless h rejects it.
	// The handler context hctx carries exchange metadata.
	//
	// Returns nil if the message was processed successfully.
	// Returns io.EOF when r holds no message.
	Parse(ctx context.Context, r io.Reader, w io.Writer, dir Direction, h handler.Handler, hctx *handler.Context) error
}
