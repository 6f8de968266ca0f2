// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package attributes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/absmach/coapattr/pkg/codec"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp/coder"
)

const (
	// DefaultPort is the CoAP default port.
	DefaultPort = 5683
	scheme      = "coap"
)

// Header holds the message fields shared by requests and responses.
type Header struct {
	Type      message.Type
	MessageID int32
	Token     message.Token
	Options   *codec.OptionAttributes
	Payload   []byte
}

// Confirmable reports whether the message is confirmable.
func (h *Header) Confirmable() bool {
	return h.Type == message.Confirmable
}

// Request is the attribute view of a CoAP request.
type Request struct {
	Header
	Method     Method
	RemoteAddr string
}

// Response is the attribute view of a CoAP response.
type Response struct {
	Header
	Code codes.Code
}

// NewRequest decodes msg into a request. msg must carry a method code.
func NewRequest(c *codec.Codec, msg *pool.Message) (*Request, error) {
	m, ok := MethodFromCode(msg.Code())
	if !ok {
		return nil, fmt.Errorf("%w: code %v is not a request", errors.ErrProtocolViolation, msg.Code())
	}
	h, err := header(c, msg)
	if err != nil {
		return nil, err
	}
	return &Request{Header: h, Method: m}, nil
}

// NewResponse decodes msg into a response. msg must carry a response code.
func NewResponse(c *codec.Codec, msg *pool.Message) (*Response, error) {
	if msg.Code() < codes.Created && msg.Code() != codes.Empty {
		return nil, fmt.Errorf("%w: code %v is not a response", errors.ErrProtocolViolation, msg.Code())
	}
	h, err := header(c, msg)
	if err != nil {
		return nil, err
	}
	return &Response{Header: h, Code: msg.Code()}, nil
}

func header(c *codec.Codec, msg *pool.Message) (Header, error) {
	opts, err := c.Decode(msg.Options())
	if err != nil {
		return Header{}, err
	}
	var payload []byte
	if body := msg.Body(); body != nil {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return Header{}, err
		}
		if payload, err = io.ReadAll(body); err != nil {
			return Header{}, err
		}
	}
	return Header{
		Type:      msg.Type(),
		MessageID: msg.MessageID(),
		Token:     append(message.Token(nil), msg.Token()...),
		Options:   opts,
		Payload:   payload,
	}, nil
}

// Observe reports whether the request registers an observation.
func (r *Request) Observe() bool {
	if r.Options == nil {
		return false
	}
	v, ok := r.Options.Observe.Get()
	return ok && v == 0
}

// CancelObserve reports whether the request cancels an observation.
func (r *Request) CancelObserve() bool {
	if r.Options == nil {
		return false
	}
	v, ok := r.Options.Observe.Get()
	return ok && v == 1
}

// Path returns the request path with a leading slash.
func (r *Request) Path() string {
	if r.Options == nil {
		return "/"
	}
	return r.Options.URIPathString()
}

// URI reconstructs the request URI from Uri-Host, Uri-Port, Uri-Path and
// Uri-Query. Without Uri-Host the host of RemoteAddr is used.
func (r *Request) URI() string {
	o := r.Options
	if o == nil {
		o = &codec.OptionAttributes{}
	}
	host, hasHost := o.URIHost.Get()
	port := ""
	if !hasHost && r.RemoteAddr != "" {
		h, p, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			host, port = h, p
		} else {
			host = r.RemoteAddr
		}
	}
	if p, ok := optional.CastInt[uint32, int](o.URIPort).Get(); ok {
		port = strconv.Itoa(p)
	}
	if port == strconv.Itoa(DefaultPort) {
		port = ""
	}
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     o.URIPathString(),
		RawQuery: o.URIQueryString(),
	}
	return u.String()
}

// Marshal encodes the request as a UDP datagram.
func (r *Request) Marshal(ctx context.Context, c *codec.Codec) ([]byte, error) {
	if !r.Method.Valid() {
		return nil, fmt.Errorf("%w: invalid method %v", errors.ErrInvalidInput, r.Method)
	}
	return r.marshal(ctx, c, r.Method.Code())
}

// Success reports whether the response code is in the 2.xx class.
func (r *Response) Success() bool {
	return r.Class() == 2
}

// Class returns the response code class.
func (r *Response) Class() uint8 {
	return uint8(r.Code >> 5)
}

// Notification reports whether the response is an observe notification.
func (r *Response) Notification() bool {
	return r.Options != nil && r.Options.Observe.IsSet()
}

// ETag returns the first entity tag of the response.
func (r *Response) ETag() (etag.Tag, bool) {
	if r.Options == nil || len(r.Options.ETags) == 0 {
		return etag.Tag{}, false
	}
	return r.Options.ETags[0], true
}

// Marshal encodes the response as a UDP datagram.
func (r *Response) Marshal(ctx context.Context, c *codec.Codec) ([]byte, error) {
	return r.marshal(ctx, c, r.Code)
}

func (h *Header) marshal(ctx context.Context, c *codec.Codec, code codes.Code) ([]byte, error) {
	var opts message.Options
	if h.Options != nil {
		var err error
		if opts, err = c.Encode(h.Options); err != nil {
			return nil, err
		}
	}

	msg := pool.NewMessage(ctx)
	defer msg.Reset()

	msg.SetCode(code)
	msg.SetType(h.Type)
	msg.SetMessageID(h.MessageID)
	msg.SetToken(h.Token)
	msg.ResetOptionsTo(opts)
	if len(h.Payload) > 0 {
		msg.SetBody(bytes.NewReader(h.Payload))
	}
	return msg.MarshalWithEncoder(coder.DefaultCoder)
}
