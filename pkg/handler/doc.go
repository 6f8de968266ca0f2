// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package handler provides the interface that links the message parser to
// application logic.
//
// # Data Flow
//
//	datagram → Parser (decodes options) → Handler (inspects, may reject) → output
//
// # Handler Methods
//
//   - OnRequest: a request with its Method, URI and decoded options
//   - OnResponse: a response with its code, entity tags and decoded options
//   - OnDiscovery: resources parsed from a /.well-known/core response
//   - OnOptionIgnored: an invalid option that was skipped
//
// # Context
//
// The Context struct carries per-exchange metadata across handler calls:
//   - SessionID: unique identifier of the exchange or input file
//   - RemoteAddr: peer network address
//   - Endpoint: key under which discovery snapshots are stored
//   - Protocol: set to "coap" by the parser
//
// # Example
//
//	type PathFilter struct {
//		handler.NoopHandler
//		prefix string
//	}
//
//	func (h *PathFilter) OnRequest(ctx context.Context, hctx *handler.Context, req *attributes.Request) error {
//		if !strings.HasPrefix(req.Path(), h.prefix) {
//			return errors.ErrMethodNotAllowed
//		}
//		return nil
//	}
package handler
