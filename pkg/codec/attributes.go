// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/plgd-dev/go-coap/v3/message"
)

// DefaultMaxAge is the Max-Age in seconds assumed when the option is absent.
const DefaultMaxAge = 60

// OtherKey is the attribute map key of the other-options bucket.
const OtherKey = "other"

// OptionAttributes is the typed view of a message's option set. Repeatable
// options are slices in wire order; single-valued options are optional.
type OptionAttributes struct {
	IfMatch       []etag.Tag
	URIHost       optional.Optional[string]
	ETags         []etag.Tag
	IfNoneMatch   bool
	Observe       optional.Optional[uint32]
	URIPort       optional.Optional[uint32]
	LocationPath  []string
	URIPath       []string
	ContentFormat optional.Optional[uint32]
	MaxAge        optional.Optional[uint32]
	URIQuery      []option.QueryParam
	Accept        optional.Optional[uint32]
	LocationQuery []option.QueryParam
	Block2        optional.Optional[option.Block]
	Block1        optional.Optional[option.Block]
	Size2         optional.Optional[uint32]
	ProxyURI      optional.Optional[string]
	ProxyScheme   optional.Optional[string]
	Size1         optional.Optional[uint32]
	NoResponse    optional.Optional[uint32]
	Other         []option.Other
}

// URIPathString joins the Uri-Path segments with a leading slash.
func (a *OptionAttributes) URIPathString() string {
	return "/" + strings.Join(a.URIPath, "/")
}

// URIQueryString joins the Uri-Query segments with '&'.
func (a *OptionAttributes) URIQueryString() string {
	return option.FormatQuery(a.URIQuery)
}

// LocationPathString joins the Location-Path segments with a leading slash.
func (a *OptionAttributes) LocationPathString() string {
	return "/" + strings.Join(a.LocationPath, "/")
}

// LocationQueryString joins the Location-Query segments with '&'.
func (a *OptionAttributes) LocationQueryString() string {
	return option.FormatQuery(a.LocationQuery)
}

// MaxAgeOrDefault returns Max-Age, or DefaultMaxAge when absent.
func (a *OptionAttributes) MaxAgeOrDefault() uint32 {
	return a.MaxAge.GetOr(DefaultMaxAge)
}

// ContentFormatName returns the media type name of Content-Format.
func (a *OptionAttributes) ContentFormatName() (string, bool) {
	cf, ok := a.ContentFormat.Get()
	if !ok {
		return "", false
	}
	return message.MediaType(cf).String(), true
}

// HasETag reports whether an equal entity tag is present.
func (a *OptionAttributes) HasETag(t etag.Tag) bool {
	return t.In(a.ETags)
}

// MatchesIfMatch reports whether t satisfies If-Match. An empty If-Match
// entry matches any current tag.
func (a *OptionAttributes) MatchesIfMatch(t etag.Tag) bool {
	return etag.Empty().In(a.IfMatch) || t.In(a.IfMatch)
}

// OtherByKey groups the other options by alias or number, keeping wire order.
func (a *OptionAttributes) OtherByKey() map[string][]option.Other {
	if len(a.Other) == 0 {
		return nil
	}
	m := make(map[string][]option.Other)
	for _, o := range a.Other {
		m[o.Key()] = append(m[o.Key()], o)
	}
	return m
}

// OtherNumber returns the occurrences of other option n.
func (a *OptionAttributes) OtherNumber(n option.Number) []option.Other {
	var out []option.Other
	for _, o := range a.Other {
		if o.Number() == n {
			out = append(out, o)
		}
	}
	return out
}

// Clone returns a deep copy.
func (a *OptionAttributes) Clone() *OptionAttributes {
	c := *a
	c.IfMatch = slices.Clone(a.IfMatch)
	c.ETags = slices.Clone(a.ETags)
	c.LocationPath = slices.Clone(a.LocationPath)
	c.URIPath = slices.Clone(a.URIPath)
	c.URIQuery = slices.Clone(a.URIQuery)
	c.LocationQuery = slices.Clone(a.LocationQuery)
	c.Other = slices.Clone(a.Other)
	return &c
}

// ToMap returns the flat attribute map keyed by option name. Only present
// options appear. Entity tags are hex strings, query parameters their wire
// segments, blocks "num/more/size", and other options are grouped under
// OtherKey by alias or number as lists of raw values.
func (a *OptionAttributes) ToMap() map[string]any {
	m := make(map[string]any)
	putTags := func(n option.Number, tags []etag.Tag) {
		if len(tags) == 0 {
			return
		}
		hexes := make([]string, len(tags))
		for i, t := range tags {
			hexes[i] = t.Hex()
		}
		m[n.String()] = hexes
	}
	putStrings := func(n option.Number, ss []string) {
		if len(ss) > 0 {
			m[n.String()] = slices.Clone(ss)
		}
	}
	putQuery := func(n option.Number, qs []option.QueryParam) {
		if len(qs) == 0 {
			return
		}
		segs := make([]string, len(qs))
		for i, q := range qs {
			segs[i] = q.String()
		}
		m[n.String()] = segs
	}
	putString := func(n option.Number, o optional.Optional[string]) {
		if v, ok := o.Get(); ok {
			m[n.String()] = v
		}
	}
	putUint := func(n option.Number, o optional.Optional[uint32]) {
		if v, ok := o.Get(); ok {
			m[n.String()] = v
		}
	}
	putBlock := func(n option.Number, o optional.Optional[option.Block]) {
		if v, ok := o.Get(); ok {
			m[n.String()] = v.String()
		}
	}

	putTags(option.IfMatch, a.IfMatch)
	putString(option.URIHost, a.URIHost)
	putTags(option.ETag, a.ETags)
	if a.IfNoneMatch {
		m[option.IfNoneMatch.String()] = true
	}
	putUint(option.Observe, a.Observe)
	putUint(option.URIPort, a.URIPort)
	putStrings(option.LocationPath, a.LocationPath)
	putStrings(option.URIPath, a.URIPath)
	putUint(option.ContentFormat, a.ContentFormat)
	putUint(option.MaxAge, a.MaxAge)
	putQuery(option.URIQuery, a.URIQuery)
	putUint(option.Accept, a.Accept)
	putQuery(option.LocationQuery, a.LocationQuery)
	putBlock(option.Block2, a.Block2)
	putBlock(option.Block1, a.Block1)
	putUint(option.Size2, a.Size2)
	putString(option.ProxyURI, a.ProxyURI)
	putString(option.ProxyScheme, a.ProxyScheme)
	putUint(option.Size1, a.Size1)
	putUint(option.NoResponse, a.NoResponse)

	if groups := a.OtherByKey(); len(groups) > 0 {
		other := make(map[string]any, len(groups))
		for key, occ := range groups {
			vals := make([][]byte, len(occ))
			for i, o := range occ {
				vals[i] = o.Bytes()
			}
			other[key] = vals
		}
		m[OtherKey] = other
	}
	return m
}

// String returns a readable field dump of the present options.
func (a *OptionAttributes) String() string {
	m := a.ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", k, m[k])
	}
	sb.WriteString("}")
	return sb.String()
}
