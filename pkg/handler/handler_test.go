// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"testing"

	"github.com/absmach/coapattr/pkg/attributes"
	"github.com/absmach/coapattr/pkg/codec"
	"github.com/absmach/coapattr/pkg/discovery"
	"github.com/absmach/coapattr/pkg/errors"
)

func TestNoopHandler(t *testing.T) {
	handler := &NoopHandler{}
	ctx := context.Background()
	hctx := &Context{
		SessionID:  "test-session",
		RemoteAddr: "127.0.0.1:5683",
		Endpoint:   "coap://127.0.0.1",
		Protocol:   "coap",
	}
	res, err := discovery.New(discovery.Link{Path: "/a"})
	if err != nil {
		t.Fatalf("discovery.New() error = %v", err)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{
			name: "OnRequest",
			fn: func() error {
				return handler.OnRequest(ctx, hctx, &attributes.Request{Method: attributes.MethodGet})
			},
		},
		{
			name: "OnResponse",
			fn: func() error {
				return handler.OnResponse(ctx, hctx, &attributes.Response{Header: attributes.Header{Options: &codec.OptionAttributes{}}})
			},
		},
		{
			name: "OnDiscovery",
			fn:   func() error { return handler.OnDiscovery(ctx, hctx, []*discovery.Resource{res}) },
		},
		{
			name: "OnOptionIgnored",
			fn: func() error {
				handler.OnOptionIgnored(ctx, hctx, &errors.OptionError{Option: "Uri-Path", Number: 11})
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Errorf("%s() error = %v, want nil", tt.name, err)
			}
		})
	}
}
