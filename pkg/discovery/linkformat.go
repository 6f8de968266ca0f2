// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/optional"
)

// ParseLinkFormat parses an application/link-format payload (RFC 6690).
// Unknown attributes are ignored.
func ParseLinkFormat(payload []byte) ([]*Resource, error) {
	var rs []*Resource
	for _, link := range splitOutside(string(payload), ',') {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		r, err := parseLink(link)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// FormatLinkFormat renders resources as an application/link-format payload.
func FormatLinkFormat(rs []*Resource) []byte {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return []byte(strings.Join(parts, ","))
}

func parseLink(link string) (*Resource, error) {
	if !strings.HasPrefix(link, "<") {
		return nil, fmt.Errorf("%w: %q does not start with '<'", errors.ErrInvalidLink, link)
	}
	end := strings.IndexByte(link, '>')
	if end < 0 {
		return nil, fmt.Errorf("%w: %q has no closing '>'", errors.ErrInvalidLink, link)
	}

	l := Link{Path: link[1:end]}
	params := splitOutside(link[end+1:], ';')
	if len(params) > 0 && strings.TrimSpace(params[0]) != "" {
		return nil, fmt.Errorf("%w: unexpected %q after target", errors.ErrInvalidLink, params[0])
	}
	for _, param := range params[1:] {
		name, value, hasValue := strings.Cut(strings.TrimSpace(param), "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		value, err := unquote(strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		switch name {
		case "obs":
			l.Observable = true
		case "title":
			if hasValue && !l.Title.IsSet() {
				l.Title = optional.Some(value)
			}
		case "sz":
			if hasValue && !l.Size.IsSet() {
				l.Size = optional.Some(value)
			}
		case "if":
			l.Interfaces = append(l.Interfaces, splitList(value)...)
		case "rt":
			l.ResourceTypes = append(l.ResourceTypes, splitList(value)...)
		case "ct":
			l.ContentTypes = append(l.ContentTypes, splitList(value)...)
		}
	}
	return New(l)
}

func unquote(v string) (string, error) {
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	if len(v) < 2 || !strings.HasSuffix(v, `"`) {
		return "", fmt.Errorf("%w: unterminated quoted value %s", errors.ErrInvalidLink, v)
	}
	v = v[1 : len(v)-1]
	if !strings.Contains(v, `\`) {
		return v, nil
	}
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		sb.WriteByte(v[i])
	}
	return sb.String(), nil
}

// splitList splits a list attribute on whitespace and commas.
func splitList(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// splitOutside splits s on sep, ignoring separators inside quotes or
// angle brackets.
func splitOutside(s string, sep byte) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
		angle   bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '<':
			angle = true
		case c == '>':
			angle = false
		case c == sep && !angle:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
