// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"

	"github.com/absmach/coapattr/pkg/attributes"
	"github.com/absmach/coapattr/pkg/discovery"
	"github.com/absmach/coapattr/pkg/errors"
)

// Context contains message metadata. It is passed to Handler methods.
type Context struct {
	// SessionID is a unique identifier for this exchange or input
	SessionID string

	// RemoteAddr is the peer's network address, if known
	RemoteAddr string

	// Endpoint names the peer whose discovery results are compared across runs
	Endpoint string

	// Protocol is set by the parser (coap)
	Protocol string
}

// Handler receives decoded messages from a parser.
//
// OnRequest and OnResponse are called before the message is forwarded.
// Returning an error rejects the message. OnDiscovery is called after
// OnResponse for successful discovery responses.
//
// OnOptionIgnored reports an invalid option that was skipped instead of
// failing the message. It is only called when the parser is not strict.
type Handler interface {
	// OnRequest is called for every request with its decoded attributes.
	OnRequest(ctx context.Context, hctx *Context, req *attributes.Request) error

	// OnResponse is called for every response with its decoded attributes.
	OnResponse(ctx context.Context, hctx *Context, resp *attributes.Response) error

	// OnDiscovery is called with the resources of a discovery response.
	OnDiscovery(ctx context.Context, hctx *Context, resources []*discovery.Resource) error

	// OnOptionIgnored is called for each skipped option.
	OnOptionIgnored(ctx context.Context, hctx *Context, err *errors.OptionError)
}

// NoopHandler is a Handler implementation that accepts everything.
// Useful for testing or when only metrics are needed.
type NoopHandler struct{}

var _ Handler = (*NoopHandler)(nil)

func (h *NoopHandler) OnRequest(ctx context.Context, hctx *Context, req *attributes.Request) error {
	return nil
}

func (h *NoopHandler) OnResponse(ctx context.Context, hctx *Context, resp *attributes.Response) error {
	return nil
}

func (h *NoopHandler) OnDiscovery(ctx context.Context, hctx *Context, resources []*discovery.Resource) error {
	return nil
}

func (h *NoopHandler) OnOptionIgnored(ctx context.Context, hctx *Context, err *errors.OptionError) {}
