// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/plgd-dev/go-coap/v3/message"
)

// Params are host-supplied option values keyed by option name, alias or
// decimal number.
type Params map[string]Value

// ParamsOf lifts a host attribute map into Params. A map under OtherKey is
// flattened so its alias or number keys address other options.
func ParamsOf(m map[string]any) (Params, error) {
	p := make(Params, len(m))
	for k, v := range m {
		if k == OtherKey {
			sub, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be a map, got %T", errors.ErrInvalidInput, OtherKey, v)
			}
			for sk, sv := range sub {
				val, err := Of(sv)
				if err != nil {
					return nil, errors.Wrap(err, sk)
				}
				p[sk] = val
			}
			continue
		}
		val, err := Of(v)
		if err != nil {
			return nil, errors.Wrap(err, k)
		}
		p[k] = val
	}
	return p, nil
}

// EncodeParams builds attributes from p and encodes them.
func (c *Codec) EncodeParams(p Params) (message.Options, error) {
	a, err := c.Build(p)
	if err != nil {
		return nil, err
	}
	return c.Encode(a)
}

// Build coerces host values into attributes. Lists become one occurrence
// per element; a scalar given for a repeatable option becomes exactly one
// occurrence. Keys are processed in sorted order.
func (c *Codec) Build(p Params) (*OptionAttributes, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	a := &OptionAttributes{}
	for _, key := range keys {
		v := p[key]
		n, err := c.resolve(key)
		if err == nil {
			err = c.set(a, n, v)
		}
		if err != nil {
			var oe *errors.OptionError
			if !errors.As(err, &oe) {
				err = errors.NewOption(key, uint16(n), v.String(), err)
			}
			if err := c.fail(opEncode, err); err != nil {
				return nil, err
			}
		}
	}
	slices.SortStableFunc(a.Other, func(x, y option.Other) int { return cmp.Compare(x.Number(), y.Number()) })
	return a, nil
}

func (c *Codec) resolve(key string) (option.Number, error) {
	if d, ok := c.registry.ByName(key); ok {
		return d.Number, nil
	}
	if u, err := strconv.ParseUint(strings.TrimSpace(key), 10, 16); err == nil {
		return option.Number(u), nil
	}
	return 0, fmt.Errorf("%w: unknown option %q", errors.ErrUnsupportedOption, key)
}

// set coerces v and stores it in a. Nothing is stored when any element fails.
func (c *Codec) set(a *OptionAttributes, n option.Number, v Value) error {
	if v.IsZero() {
		return nil
	}
	wrap := func(err error) error {
		if err == nil {
			return nil
		}
		return c.optionError(n, v.String(), err)
	}

	switch n {
	case option.IfMatch, option.ETag:
		tags, err := mapItems(v, Value.AsETag)
		if err != nil {
			return wrap(err)
		}
		if n == option.IfMatch {
			a.IfMatch = append(a.IfMatch, tags...)
		} else {
			a.ETags = append(a.ETags, tags...)
		}
	case option.IfNoneMatch:
		b, err := v.AsBool()
		if err != nil {
			return wrap(err)
		}
		a.IfNoneMatch = a.IfNoneMatch || b
	case option.URIHost:
		return wrap(buildString(&a.URIHost, v))
	case option.ProxyURI:
		return wrap(buildString(&a.ProxyURI, v))
	case option.ProxyScheme:
		return wrap(buildString(&a.ProxyScheme, v))
	case option.URIPath, option.LocationPath:
		segs, err := mapItems(v, pathSegment)
		if err != nil {
			return wrap(err)
		}
		if n == option.URIPath {
			a.URIPath = append(a.URIPath, segs...)
		} else {
			a.LocationPath = append(a.LocationPath, segs...)
		}
	case option.URIQuery, option.LocationQuery:
		qs, err := mapItems(v, Value.AsQuery)
		if err != nil {
			return wrap(err)
		}
		if n == option.URIQuery {
			a.URIQuery = append(a.URIQuery, qs...)
		} else {
			a.LocationQuery = append(a.LocationQuery, qs...)
		}
	case option.Observe:
		return wrap(buildUint(&a.Observe, n, v))
	case option.URIPort:
		return wrap(buildUint(&a.URIPort, n, v))
	case option.ContentFormat:
		return wrap(buildUint(&a.ContentFormat, n, v))
	case option.MaxAge:
		return wrap(buildUint(&a.MaxAge, n, v))
	case option.Accept:
		return wrap(buildUint(&a.Accept, n, v))
	case option.Size1:
		return wrap(buildUint(&a.Size1, n, v))
	case option.Size2:
		return wrap(buildUint(&a.Size2, n, v))
	case option.NoResponse:
		return wrap(buildUint(&a.NoResponse, n, v))
	case option.Block1:
		return wrap(buildBlock(&a.Block1, v))
	case option.Block2:
		return wrap(buildBlock(&a.Block2, v))
	default:
		others, err := c.buildOther(n, v)
		if err != nil {
			return wrap(err)
		}
		a.Other = append(a.Other, others...)
	}
	return nil
}

func (c *Codec) buildOther(n option.Number, v Value) ([]option.Other, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: option number 0 is reserved", errors.ErrUnsupportedOption)
	}
	def, known := c.registry.Lookup(n)
	items := v.Items()
	if known && !def.Repeatable && len(items) > 1 {
		return nil, fmt.Errorf("%w: %d values for a single-valued option", errors.ErrInvalidOptionValue, len(items))
	}
	alias := c.registry.Alias(n)
	others := make([]option.Other, 0, len(items))
	for _, item := range items {
		var (
			raw []byte
			err error
		)
		switch def.Format {
		case option.FormatUint:
			var u uint64
			u, err = item.AsUint(maxUint(def.MaxLen))
			raw = option.EncodeUint(uint32(u))
		case option.FormatString:
			var s string
			s, err = item.AsString()
			raw = []byte(s)
		case option.FormatEmpty:
			var set bool
			set, err = item.AsBool()
			if err == nil && !set {
				continue
			}
		default:
			raw, err = item.AsBytes()
		}
		if err != nil {
			return nil, err
		}
		others = append(others, option.NewOther(n, raw, alias))
	}
	return others, nil
}

// Encode translates attributes into an option set sorted by option number,
// repeated options in attribute order.
func (c *Codec) Encode(a *OptionAttributes) (message.Options, error) {
	var opts message.Options
	add := func(n option.Number, value []byte) error {
		if err := c.checkWire(n, value); err != nil {
			return c.fail(opEncode, c.optionError(n, fmt.Sprintf("%x", value), err))
		}
		opts = append(opts, message.Option{ID: n.ID(), Value: value})
		c.metrics.OptionEncoded(metricLabel(n))
		return nil
	}
	addTags := func(n option.Number, tags []etag.Tag) error {
		for _, t := range tags {
			if err := add(n, t.Bytes()); err != nil {
				return err
			}
		}
		return nil
	}
	addStrings := func(n option.Number, ss []string) error {
		for _, s := range ss {
			if strings.Contains(s, "/") {
				if err := c.fail(opEncode, c.optionError(n, s, errSlash)); err != nil {
					return err
				}
				continue
			}
			if err := add(n, []byte(s)); err != nil {
				return err
			}
		}
		return nil
	}
	addQuery := func(n option.Number, qs []option.QueryParam) error {
		for _, q := range qs {
			if strings.Contains(q.Key, "=") {
				if err := c.fail(opEncode, c.optionError(n, q.Key, errQueryKey)); err != nil {
					return err
				}
				continue
			}
			if err := add(n, []byte(q.String())); err != nil {
				return err
			}
		}
		return nil
	}
	addString := func(n option.Number, o optional.Optional[string]) error {
		if s, ok := o.Get(); ok {
			return add(n, []byte(s))
		}
		return nil
	}
	addUint := func(n option.Number, o optional.Optional[uint32]) error {
		if u, ok := o.Get(); ok {
			return add(n, option.EncodeUint(u))
		}
		return nil
	}
	addBlock := func(n option.Number, o optional.Optional[option.Block]) error {
		b, ok := o.Get()
		if !ok {
			return nil
		}
		raw, err := b.Encode()
		if err != nil {
			return c.fail(opEncode, c.optionError(n, b.String(), err))
		}
		return add(n, raw)
	}

	steps := []func() error{
		func() error { return addTags(option.IfMatch, a.IfMatch) },
		func() error { return addString(option.URIHost, a.URIHost) },
		func() error { return addTags(option.ETag, a.ETags) },
		func() error {
			if a.IfNoneMatch {
				return add(option.IfNoneMatch, nil)
			}
			return nil
		},
		func() error { return addUint(option.Observe, a.Observe) },
		func() error { return addUint(option.URIPort, a.URIPort) },
		func() error { return addStrings(option.LocationPath, a.LocationPath) },
		func() error { return addStrings(option.URIPath, a.URIPath) },
		func() error { return addUint(option.ContentFormat, a.ContentFormat) },
		func() error { return addUint(option.MaxAge, a.MaxAge) },
		func() error { return addQuery(option.URIQuery, a.URIQuery) },
		func() error { return addUint(option.Accept, a.Accept) },
		func() error { return addQuery(option.LocationQuery, a.LocationQuery) },
		func() error { return addBlock(option.Block2, a.Block2) },
		func() error { return addBlock(option.Block1, a.Block1) },
		func() error { return addUint(option.Size2, a.Size2) },
		func() error { return addString(option.ProxyURI, a.ProxyURI) },
		func() error { return addString(option.ProxyScheme, a.ProxyScheme) },
		func() error { return addUint(option.Size1, a.Size1) },
		func() error { return addUint(option.NoResponse, a.NoResponse) },
		func() error {
			for _, o := range a.Other {
				if err := add(o.Number(), o.Bytes()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(opts, func(x, y message.Option) int { return cmp.Compare(x.ID, y.ID) })
	return opts, nil
}

var (
	errSlash    = fmt.Errorf("%w: path segment contains '/'", errors.ErrInvalidOptionValue)
	errQueryKey = fmt.Errorf("%w: query key contains '='", errors.ErrInvalidOptionValue)
)

// checkWire validates a wire value against the option definition. Other
// options must not reuse a registered number.
func (c *Codec) checkWire(n option.Number, value []byte) error {
	if def, ok := c.registry.Lookup(n); ok {
		return def.Check(value)
	}
	if n == 0 {
		return fmt.Errorf("%w: option number 0 is reserved", errors.ErrUnsupportedOption)
	}
	if len(value) > option.MaxOtherLen {
		return fmt.Errorf("%w: length %d exceeds %d", errors.ErrInvalidOptionValue, len(value), option.MaxOtherLen)
	}
	return nil
}

func mapItems[T any](v Value, f func(Value) (T, error)) ([]T, error) {
	items := v.Items()
	out := make([]T, 0, len(items))
	for _, item := range items {
		t, err := f(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func pathSegment(v Value) (string, error) {
	s, err := v.AsString()
	if err != nil {
		return "", err
	}
	if strings.Contains(s, "/") {
		return "", errSlash
	}
	return s, nil
}

func buildString(dst *optional.Optional[string], v Value) error {
	if dst.IsSet() {
		return errRepeated
	}
	s, err := v.AsString()
	if err != nil {
		return err
	}
	*dst = optional.Some(s)
	return nil
}

func buildUint(dst *optional.Optional[uint32], n option.Number, v Value) error {
	if dst.IsSet() {
		return errRepeated
	}
	def, _ := option.Standard(n)
	u, err := v.AsUint(maxUint(def.MaxLen))
	if err != nil {
		return err
	}
	*dst = optional.Some(uint32(u))
	return nil
}

func buildBlock(dst *optional.Optional[option.Block], v Value) error {
	if dst.IsSet() {
		return errRepeated
	}
	b, err := v.AsBlock()
	if err != nil {
		return err
	}
	*dst = optional.Some(b)
	return nil
}

// maxUint returns the largest value that fits in n bytes, capped at 4.
func maxUint(n int) uint64 {
	if n <= 0 || n >= 4 {
		return 1<<32 - 1
	}
	return 1<<(8*uint(n)) - 1
}
