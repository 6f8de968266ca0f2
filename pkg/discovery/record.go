// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

// Content formats of discovery payloads.
const (
	ContentFormatLinkFormat uint32 = 40
	ContentFormatLinkJSON   uint32 = 504
	ContentFormatLinkCBOR   uint32 = 505
)

// FormatName returns the metric label for a discovery content format.
func FormatName(cf uint32) string {
	switch cf {
	case ContentFormatLinkFormat:
		return "link-format"
	case ContentFormatLinkJSON:
		return "json"
	case ContentFormatLinkCBOR:
		return "cbor"
	default:
		return strconv.FormatUint(uint64(cf), 10)
	}
}

// IsDiscoveryFormat reports whether cf is a discovery payload format.
func IsDiscoveryFormat(cf uint32) bool {
	return cf == ContentFormatLinkFormat || cf == ContentFormatLinkJSON || cf == ContentFormatLinkCBOR
}

// Parse parses a discovery payload of the given content format.
func Parse(cf uint32, payload []byte) ([]*Resource, error) {
	switch cf {
	case ContentFormatLinkFormat:
		return ParseLinkFormat(payload)
	case ContentFormatLinkJSON:
		return ParseJSON(payload)
	case ContentFormatLinkCBOR:
		return ParseCBOR(payload)
	default:
		return nil, fmt.Errorf("%w: content format %d is not a discovery format", errors.ErrInvalidInput, cf)
	}
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("discovery: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("discovery: CBOR decoder initialization failed: " + err.Error())
	}
}

// ParseJSON parses an application/link-format+json payload: an array of
// objects keyed by href and attribute names.
func ParseJSON(payload []byte) ([]*Resource, error) {
	var records []map[string]any
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidLink, err)
	}
	return fromRecords(records)
}

// ParseCBOR parses an application/link-format+cbor payload.
func ParseCBOR(payload []byte) ([]*Resource, error) {
	var records []map[string]any
	if err := cborDec.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidLink, err)
	}
	return fromRecords(records)
}

// EncodeJSON renders resources as an application/link-format+json payload.
func EncodeJSON(rs []*Resource) ([]byte, error) {
	return json.Marshal(toRecords(rs))
}

// EncodeCBOR renders resources as an application/link-format+cbor payload.
// The encoding is deterministic.
func EncodeCBOR(rs []*Resource) ([]byte, error) {
	return cborEnc.Marshal(toRecords(rs))
}

func toRecords(rs []*Resource) []map[string]any {
	records := make([]map[string]any, len(rs))
	for i, r := range rs {
		rec := map[string]any{"href": r.path}
		if r.observable {
			rec["obs"] = true
		}
		if t, ok := r.title.Get(); ok {
			rec["title"] = t
		}
		if sz, ok := r.size.Get(); ok {
			rec["sz"] = sz
		}
		putList := func(name string, l []string) {
			if len(l) > 0 {
				rec[name] = strings.Join(l, " ")
			}
		}
		putList("if", r.interfaces)
		putList("rt", r.resourceTypes)
		putList("ct", r.contentTypes)
		records[i] = rec
	}
	return records
}

func fromRecords(records []map[string]any) ([]*Resource, error) {
	rs := make([]*Resource, 0, len(records))
	for _, rec := range records {
		r, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func fromRecord(rec map[string]any) (*Resource, error) {
	var l Link
	for k, v := range rec {
		var err error
		switch strings.ToLower(k) {
		case "href":
			l.Path, err = scalarString(v)
		case "obs":
			l.Observable, err = presence(v)
		case "title":
			err = setOptional(&l.Title, v)
		case "sz":
			err = setOptional(&l.Size, v)
		case "if":
			l.Interfaces, err = listStrings(v)
		case "rt":
			l.ResourceTypes, err = listStrings(v)
		case "ct":
			l.ContentTypes, err = listStrings(v)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %w", errors.ErrInvalidLink, k, err)
		}
	}
	return New(l)
}

func setOptional(dst *optional.Optional[string], v any) error {
	s, err := scalarString(v)
	if err != nil {
		return err
	}
	*dst = optional.Some(s)
	return nil
}

func presence(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return true, nil
	case bool:
		return x, nil
	case string:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected %T", v)
	}
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		}
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func listStrings(v any) ([]string, error) {
	if items, ok := v.([]any); ok {
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, splitList(s)...)
		}
		return out, nil
	}
	s, err := scalarString(v)
	if err != nil {
		return nil, err
	}
	return splitList(s), nil
}
