// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package coap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/absmach/coapattr/pkg/attributes"
	"github.com/absmach/coapattr/pkg/codec"
	"github.com/absmach/coapattr/pkg/discovery"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/handler"
	"github.com/absmach/coapattr/pkg/metrics"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/parser"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp/coder"
)

const protocol = "coap"

// Config holds the parser configuration. The zero Config accepts every
// method and skips invalid options.
type Config struct {
	// Registry supplies other-option aliases.
	Registry *option.Registry

	// Metrics records message, option and discovery metrics. Optional.
	Metrics *metrics.Metrics

	// Resource restricts the accepted request methods. A zero method set
	// accepts all methods.
	Resource attributes.ResourceConfig

	// Strict fails messages with invalid options. Otherwise the options are
	// skipped and reported through Handler.OnOptionIgnored.
	Strict bool

	// Logger is used for debug output. Optional.
	Logger *slog.Logger
}

// Parser implements the parser.Parser interface for CoAP over UDP.
type Parser struct {
	cfg    Config
	strict *codec.Codec
	logger *slog.Logger
}

var _ parser.Parser = (*Parser)(nil)

// New creates a CoAP parser.
func New(cfg Config) *Parser {
	if cfg.Resource.Methods == 0 {
		cfg.Resource.Methods = attributes.AllMethods
		cfg.Resource.Observable = true
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{
		cfg:    cfg,
		strict: codec.New(codec.Config{Registry: cfg.Registry, Metrics: cfg.Metrics}),
		logger: logger,
	}
}

// Parse reads one CoAP message from r, processes it, and writes to w.
// CoAP is a datagram protocol, so each Parse call handles one complete message.
func (p *Parser) Parse(ctx context.Context, r io.Reader, w io.Writer, dir parser.Direction, h handler.Handler, hctx *handler.Context) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read CoAP message: %w", err)
	}
	if len(data) == 0 {
		return io.EOF
	}

	msg := pool.NewMessage(ctx)
	defer msg.Reset()

	if _, err := msg.UnmarshalWithDecoder(coder.DefaultCoder, data); err != nil {
		return fmt.Errorf("%w: failed to unmarshal CoAP message: %w", errors.ErrProtocolViolation, err)
	}

	hctx.Protocol = protocol
	err = p.cfg.Metrics.ObserveMessage(dir.String(), func() (string, int, error) {
		return msg.Code().String(), len(msg.Options()), p.handle(ctx, msg, h, hctx)
	})
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write CoAP message: %w", err)
	}
	return nil
}

func (p *Parser) handle(ctx context.Context, msg *pool.Message, h handler.Handler, hctx *handler.Context) error {
	c := p.codec(ctx, h, hctx)

	if msg.Code() == codes.Empty {
		p.logger.Debug("empty message", slog.String("session", hctx.SessionID), slog.String("type", msg.Type().String()))
		return nil
	}

	if _, ok := attributes.MethodFromCode(msg.Code()); ok {
		req, err := attributes.NewRequest(c, msg)
		if err != nil {
			return err
		}
		req.RemoteAddr = hctx.RemoteAddr
		if err := p.cfg.Resource.Check(req); err != nil {
			return err
		}
		if err := h.OnRequest(ctx, hctx, req); err != nil {
			return fmt.Errorf("request rejected: %w", err)
		}
		return nil
	}

	resp, err := attributes.NewResponse(c, msg)
	if err != nil {
		return err
	}
	if err := h.OnResponse(ctx, hctx, resp); err != nil {
		return fmt.Errorf("response rejected: %w", err)
	}
	return p.handleDiscovery(ctx, resp, h, hctx)
}

func (p *Parser) handleDiscovery(ctx context.Context, resp *attributes.Response, h handler.Handler, hctx *handler.Context) error {
	cf, ok := resp.Options.ContentFormat.Get()
	if !ok || !resp.Success() || !discovery.IsDiscoveryFormat(cf) {
		return nil
	}
	resources, err := discovery.Parse(cf, resp.Payload)
	if err != nil {
		return err
	}
	p.cfg.Metrics.Discovered(discovery.FormatName(cf), len(resources))
	p.logger.Debug("discovery response",
		slog.String("session", hctx.SessionID),
		slog.String("format", discovery.FormatName(cf)),
		slog.Int("resources", len(resources)))
	return h.OnDiscovery(ctx, hctx, resources)
}

// codec returns the strict codec, or one that reports skipped options to h.
func (p *Parser) codec(ctx context.Context, h handler.Handler, hctx *handler.Context) *codec.Codec {
	if p.cfg.Strict {
		return p.strict
	}
	return codec.New(codec.Config{
		Registry: p.cfg.Registry,
		Metrics:  p.cfg.Metrics,
		OnIgnore: func(err *errors.OptionError) {
			p.logger.Debug("option ignored", slog.String("session", hctx.SessionID), slog.String("error", err.Error()))
			h.OnOptionIgnored(ctx, hctx, err)
		},
	})
}
