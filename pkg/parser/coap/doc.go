// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package coap implements the CoAP message parser for coapattr.
//
// # Overview
//
// The parser unmarshals one CoAP datagram with plgd-dev/go-coap/v3, decodes
// its option set into attributes and hands the result to a handler.Handler.
// The datagram is forwarded unchanged unless the handler rejects it.
//
// # Message Handling
//
// Requests (method codes):
//   - decoded into attributes.Request
//   - checked against the configured attributes.ResourceConfig: a method
//     outside the method set, or an Observe registration on a resource
//     that is not observable, fails with errors.ErrMethodNotAllowed
//   - passed to Handler.OnRequest
//
// Responses (response codes):
//   - decoded into attributes.Response and passed to Handler.OnResponse
//   - successful responses with Content-Format 40, 504 or 505 are parsed
//     as discovery payloads and passed to Handler.OnDiscovery
//
// Empty messages (pings, empty ACK and RST) are forwarded without handler
// calls.
//
// # Invalid Options
//
// With Config.Strict, the first invalid option fails the message with an
// *errors.OptionError. Otherwise each invalid option is skipped, counted in
// options_ignored_total and reported through Handler.OnOptionIgnored.
//
// # Protocol Field
//
// The parser sets hctx.Protocol = "coap".
//
// # Limitations
//
//   - Does not reassemble blockwise transfers; Block1 and Block2 values are
//     decoded per message
//   - Does not track observe relationships
//   - Does not support DTLS
package coap
