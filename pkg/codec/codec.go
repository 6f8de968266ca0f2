// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/metrics"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/plgd-dev/go-coap/v3/message"
)

const (
	opDecode = "decode"
	opEncode = "encode"
)

// IgnoreFunc receives an option that was left out instead of failing the
// whole Decode, Build or Encode call.
type IgnoreFunc func(err *errors.OptionError)

// Config holds the codec configuration. The zero Config is usable.
type Config struct {
	// Registry supplies aliases and definitions for other options.
	// If nil, other options are keyed by number.
	Registry *option.Registry

	// Metrics counts decoded, encoded, failed and ignored options.
	// If nil, nothing is recorded.
	Metrics *metrics.Metrics

	// OnIgnore, when set, makes invalid options non-fatal: each one is
	// skipped and reported here. If nil, the first invalid option aborts
	// the call with an *errors.OptionError.
	OnIgnore IgnoreFunc
}

// Codec translates between option sets and option attributes. A Codec is
// immutable and safe for concurrent use.
type Codec struct {
	registry *option.Registry
	metrics  *metrics.Metrics
	onIgnore IgnoreFunc
}

// New creates a codec.
func New(cfg Config) *Codec {
	return &Codec{
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		onIgnore: cfg.OnIgnore,
	}
}

var std = New(Config{})

// Decode decodes opts with the default codec.
func Decode(opts message.Options) (*OptionAttributes, error) {
	return std.Decode(opts)
}

// Encode encodes a with the default codec.
func Encode(a *OptionAttributes) (message.Options, error) {
	return std.Encode(a)
}

// Registry returns the registry in use, possibly nil.
func (c *Codec) Registry() *option.Registry {
	return c.registry
}

// fail either returns err, or reports it to OnIgnore and returns nil so the
// caller skips the option.
func (c *Codec) fail(op string, err error) error {
	var oe *errors.OptionError
	if !errors.As(err, &oe) {
		return err
	}
	if c.onIgnore == nil {
		c.metrics.OptionError(metricLabel(option.Number(oe.Number)), op)
		return err
	}
	c.metrics.OptionIgnored(metricLabel(option.Number(oe.Number)), op)
	c.onIgnore(oe)
	return nil
}

func (c *Codec) optionError(n option.Number, value any, err error) error {
	return errors.NewOption(c.name(n), uint16(n), value, err)
}

// name returns the registered name or alias of n, or its decimal form.
func (c *Codec) name(n option.Number) string {
	if d, ok := c.registry.Lookup(n); ok && d.Name != "" {
		return d.Name
	}
	return n.String()
}

// metricLabel keeps label cardinality bounded: other options share one label.
func metricLabel(n option.Number) string {
	if _, ok := option.Standard(n); ok {
		return n.String()
	}
	return OtherKey
}
