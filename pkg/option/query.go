// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package option

import (
	"strings"

	"github.com/absmach/coapattr/pkg/optional"
)

// QueryParam is one Uri-Query or Location-Query segment, either "key" or
// "key=value". A present but empty value ("key=") differs from no value.
type QueryParam struct {
	Key   string
	Value optional.Optional[string]
}

// ParseQueryParam splits a segment at its first '='.
func ParseQueryParam(segment string) QueryParam {
	key, value, found := strings.Cut(segment, "=")
	if !found {
		return QueryParam{Key: segment}
	}
	return QueryParam{Key: key, Value: optional.Some(value)}
}

// NewQueryParam creates a key=value parameter.
func NewQueryParam(key, value string) QueryParam {
	return QueryParam{Key: key, Value: optional.Some(value)}
}

// QueryKey creates a parameter without value.
func QueryKey(key string) QueryParam {
	return QueryParam{Key: key}
}

// String returns the wire segment.
func (q QueryParam) String() string {
	if v, ok := q.Value.Get(); ok {
		return q.Key + "=" + v
	}
	return q.Key
}

// ParseQuery splits a query string ("a=1&b") into parameters. Empty
// segments are skipped.
func ParseQuery(query string) []QueryParam {
	query = strings.TrimPrefix(query, "?")
	var params []QueryParam
	for _, seg := range strings.Split(query, "&") {
		if seg == "" {
			continue
		}
		params = append(params, ParseQueryParam(seg))
	}
	return params
}

// FormatQuery joins parameters with '&'.
func FormatQuery(params []QueryParam) string {
	segs := make([]string, len(params))
	for i, p := range params {
		segs[i] = p.String()
	}
	return strings.Join(segs, "&")
}
