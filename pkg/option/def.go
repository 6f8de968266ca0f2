// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package option

import (
	"fmt"
	"slices"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
)

// Format is the value format of an option (RFC 7252 §3.2).
type Format uint8

const (
	FormatOpaque Format = iota
	FormatEmpty
	FormatUint
	FormatString
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatEmpty:
		return "empty"
	case FormatUint:
		return "uint"
	case FormatString:
		return "string"
	default:
		return "opaque"
	}
}

// ParseFormat parses a format name. An empty name is opaque.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opaque", "bytes":
		return FormatOpaque, nil
	case "empty":
		return FormatEmpty, nil
	case "uint", "integer":
		return FormatUint, nil
	case "string", "text":
		return FormatString, nil
	default:
		return FormatOpaque, fmt.Errorf("%w: unknown option format %q", errors.ErrInvalidInput, s)
	}
}

// Def describes an option.
type Def struct {
	Number     Number
	Name       string
	Format     Format
	Repeatable bool
	MinLen     int
	MaxLen     int
}

// Check validates the length of a wire value against the definition.
func (d Def) Check(value []byte) error {
	if n := len(value); n < d.MinLen || n > d.MaxLen {
		return fmt.Errorf("%w: length %d outside [%d,%d]", errors.ErrInvalidOptionValue, n, d.MinLen, d.MaxLen)
	}
	return nil
}

var standard = []Def{
	{IfMatch, "If-Match", FormatOpaque, true, 0, 8},
	{URIHost, "Uri-Host", FormatString, false, 1, 255},
	{ETag, "ETag", FormatOpaque, true, 0, 8},
	{IfNoneMatch, "If-None-Match", FormatEmpty, false, 0, 0},
	{Observe, "Observe", FormatUint, false, 0, 3},
	{URIPort, "Uri-Port", FormatUint, false, 0, 2},
	{LocationPath, "Location-Path", FormatString, true, 0, 255},
	{URIPath, "Uri-Path", FormatString, true, 0, 255},
	{ContentFormat, "Content-Format", FormatUint, false, 0, 2},
	{MaxAge, "Max-Age", FormatUint, false, 0, 4},
	{URIQuery, "Uri-Query", FormatString, true, 0, 255},
	{Accept, "Accept", FormatUint, false, 0, 2},
	{LocationQuery, "Location-Query", FormatString, true, 0, 255},
	{Block2, "Block2", FormatUint, false, 0, 3},
	{Block1, "Block1", FormatUint, false, 0, 3},
	{Size2, "Size2", FormatUint, false, 0, 4},
	{ProxyURI, "Proxy-Uri", FormatString, false, 1, 1034},
	{ProxyScheme, "Proxy-Scheme", FormatString, false, 1, 255},
	{Size1, "Size1", FormatUint, false, 0, 4},
	{NoResponse, "No-Response", FormatUint, false, 0, 1},
}

var (
	standardByNumber = make(map[Number]Def, len(standard))
	standardByName   = make(map[string]Def, len(standard))
)

func init() {
	for _, d := range standard {
		standardByNumber[d.Number] = d
		standardByName[normalize(d.Name)] = d
	}
}

// Standard returns the definition of a registered option.
func Standard(n Number) (Def, bool) {
	d, ok := standardByNumber[n]
	return d, ok
}

// StandardByName looks up a registered option by name. Matching ignores
// case, '-' and '_', so "Uri-Path", "uri_path" and "uripath" are equal.
func StandardByName(name string) (Def, bool) {
	d, ok := standardByName[normalize(name)]
	return d, ok
}

// StandardDefs returns the registered definitions in ascending number order.
func StandardDefs() []Def {
	return slices.Clone(standard)
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "").Replace(name)
}

// MaxOtherLen bounds the value length of options without a definition.
const MaxOtherLen = 1034

// Registry resolves option definitions: the registered options plus
// aliases for other options. A nil *Registry knows the registered options only.
type Registry struct {
	byNumber map[Number]Def
	byName   map[string]Def
}

// NewRegistry creates a registry for other-option definitions. Definitions
// must not reuse a registered number or name, or repeat one another.
func NewRegistry(defs ...Def) (*Registry, error) {
	r := &Registry{
		byNumber: make(map[Number]Def, len(defs)),
		byName:   make(map[string]Def, len(defs)),
	}
	for _, d := range defs {
		if d.Number == 0 {
			return nil, fmt.Errorf("%w: option number 0 is reserved", errors.ErrInvalidInput)
		}
		if _, ok := Standard(d.Number); ok {
			return nil, fmt.Errorf("%w: option %d is already registered as %s", errors.ErrInvalidInput, d.Number, d.Number)
		}
		if _, ok := r.byNumber[d.Number]; ok {
			return nil, fmt.Errorf("%w: duplicate option number %d", errors.ErrInvalidInput, d.Number)
		}
		if d.MaxLen == 0 && d.Format != FormatEmpty {
			d.MaxLen = MaxOtherLen
		}
		if d.Name != "" {
			key := normalize(d.Name)
			if _, ok := standardByName[key]; ok {
				return nil, fmt.Errorf("%w: option name %q is already registered", errors.ErrInvalidInput, d.Name)
			}
			if _, ok := r.byName[key]; ok {
				return nil, fmt.Errorf("%w: duplicate option name %q", errors.ErrInvalidInput, d.Name)
			}
			r.byName[key] = d
		}
		r.byNumber[d.Number] = d
	}
	return r, nil
}

// Lookup returns the definition for n: registered options first, then aliases.
func (r *Registry) Lookup(n Number) (Def, bool) {
	if d, ok := Standard(n); ok {
		return d, true
	}
	if r == nil {
		return Def{}, false
	}
	d, ok := r.byNumber[n]
	return d, ok
}

// ByName resolves a registered option name or an alias.
func (r *Registry) ByName(name string) (Def, bool) {
	if d, ok := StandardByName(name); ok {
		return d, true
	}
	if r == nil {
		return Def{}, false
	}
	d, ok := r.byName[normalize(name)]
	return d, ok
}

// Alias returns the alias of an other option, or "".
func (r *Registry) Alias(n Number) string {
	if r == nil {
		return ""
	}
	return r.byNumber[n].Name
}

// Defs returns the other-option definitions in ascending number order.
func (r *Registry) Defs() []Def {
	if r == nil {
		return nil
	}
	defs := make([]Def, 0, len(r.byNumber))
	for _, d := range r.byNumber {
		defs = append(defs, d)
	}
	slices.SortFunc(defs, func(a, b Def) int { return int(a.Number) - int(b.Number) })
	return defs
}
