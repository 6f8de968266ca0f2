// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/plgd-dev/go-coap/v3/message"
)

var errRepeated = fmt.Errorf("%w: single-valued option repeated", errors.ErrInvalidOptionValue)

// Decode translates an option set into attributes. Repeated options keep
// their wire order; options without a dedicated attribute are collected in
// Other.
func (c *Codec) Decode(opts message.Options) (*OptionAttributes, error) {
	a := &OptionAttributes{}
	for _, opt := range opts {
		n := option.Number(opt.ID)
		if err := c.decodeOption(a, n, opt.Value); err != nil {
			if err := c.fail(opDecode, c.optionError(n, hex.EncodeToString(opt.Value), err)); err != nil {
				return nil, err
			}
			continue
		}
		c.metrics.OptionDecoded(metricLabel(n))
	}
	return a, nil
}

func (c *Codec) decodeOption(a *OptionAttributes, n option.Number, value []byte) error {
	def, ok := c.registry.Lookup(n)
	if ok {
		if err := def.Check(value); err != nil {
			return err
		}
	} else if len(value) > option.MaxOtherLen {
		return fmt.Errorf("%w: length %d exceeds %d", errors.ErrInvalidOptionValue, len(value), option.MaxOtherLen)
	}

	switch n {
	case option.IfMatch, option.ETag:
		t, err := etag.FromBytes(value)
		if err != nil {
			return err
		}
		if n == option.IfMatch {
			a.IfMatch = append(a.IfMatch, t)
		} else {
			a.ETags = append(a.ETags, t)
		}
	case option.IfNoneMatch:
		if a.IfNoneMatch {
			return errRepeated
		}
		a.IfNoneMatch = true
	case option.URIHost:
		return setString(&a.URIHost, value)
	case option.ProxyURI:
		return setString(&a.ProxyURI, value)
	case option.ProxyScheme:
		return setString(&a.ProxyScheme, value)
	case option.URIPath, option.LocationPath:
		s, err := decodeString(value)
		if err != nil {
			return err
		}
		if strings.Contains(s, "/") {
			return errSlash
		}
		if n == option.URIPath {
			a.URIPath = append(a.URIPath, s)
		} else {
			a.LocationPath = append(a.LocationPath, s)
		}
	case option.URIQuery, option.LocationQuery:
		s, err := decodeString(value)
		if err != nil {
			return err
		}
		q := option.ParseQueryParam(s)
		if n == option.URIQuery {
			a.URIQuery = append(a.URIQuery, q)
		} else {
			a.LocationQuery = append(a.LocationQuery, q)
		}
	case option.Observe:
		return setUint(&a.Observe, value)
	case option.URIPort:
		return setUint(&a.URIPort, value)
	case option.ContentFormat:
		return setUint(&a.ContentFormat, value)
	case option.MaxAge:
		return setUint(&a.MaxAge, value)
	case option.Accept:
		return setUint(&a.Accept, value)
	case option.Size1:
		return setUint(&a.Size1, value)
	case option.Size2:
		return setUint(&a.Size2, value)
	case option.NoResponse:
		return setUint(&a.NoResponse, value)
	case option.Block1:
		return setBlock(&a.Block1, value)
	case option.Block2:
		return setBlock(&a.Block2, value)
	default:
		if n == 0 {
			return fmt.Errorf("%w: option number 0 is reserved", errors.ErrUnsupportedOption)
		}
		if ok && !def.Repeatable && slices.ContainsFunc(a.Other, func(o option.Other) bool { return o.Number() == n }) {
			return errRepeated
		}
		a.Other = append(a.Other, option.NewOther(n, value, c.registry.Alias(n)))
	}
	return nil
}

func decodeString(value []byte) (string, error) {
	if !utf8.Valid(value) {
		return "", fmt.Errorf("%w: not valid UTF-8", errors.ErrInvalidOptionValue)
	}
	return string(value), nil
}

func setString(dst *optional.Optional[string], value []byte) error {
	if dst.IsSet() {
		return errRepeated
	}
	s, err := decodeString(value)
	if err != nil {
		return err
	}
	*dst = optional.Some(s)
	return nil
}

func setUint(dst *optional.Optional[uint32], value []byte) error {
	if dst.IsSet() {
		return errRepeated
	}
	v, err := option.DecodeUint(value)
	if err != nil {
		return err
	}
	*dst = optional.Some(v)
	return nil
}

func setBlock(dst *optional.Optional[option.Block], value []byte) error {
	if dst.IsSet() {
		return errRepeated
	}
	b, err := option.DecodeBlock(value)
	if err != nil {
		return err
	}
	*dst = optional.Some(b)
	return nil
}
