// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package attributes

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/plgd-dev/go-coap/v3/message/codes"
)

// Method is a CoAP request method. Its value is the request code.
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodDelete
	MethodFetch  // RFC 8132
	MethodPatch  // RFC 8132
	MethodIPatch // RFC 8132
)

var methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodFetch, MethodPatch, MethodIPatch}

// MethodFromCode returns the method of a request code.
func MethodFromCode(c codes.Code) (Method, bool) {
	if c < codes.GET || c > codes.Code(MethodIPatch) {
		return 0, false
	}
	return Method(c), true
}

// ParseMethod parses a method name, ignoring case.
func ParseMethod(s string) (Method, error) {
	for _, m := range methods {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown method %q", errors.ErrInvalidInput, s)
}

// Code returns the request code.
func (m Method) Code() codes.Code {
	return codes.Code(m)
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	_, ok := MethodFromCode(m.Code())
	return ok
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodFetch:
		return "FETCH"
	case MethodPatch:
		return "PATCH"
	case MethodIPatch:
		return "IPATCH"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// MethodSet is a set of methods.
type MethodSet uint16

// AllMethods contains every method.
var AllMethods = NewMethodSet(methods...)

// NewMethodSet creates a set of ms. Unknown methods are ignored.
func NewMethodSet(ms ...Method) MethodSet {
	var s MethodSet
	for _, m := range ms {
		s = s.With(m)
	}
	return s
}

// ParseMethodSet parses a comma-separated list of method names. An empty
// string or "*" yields AllMethods.
func ParseMethodSet(s string) (MethodSet, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return AllMethods, nil
	}
	var set MethodSet
	for _, name := range strings.Split(s, ",") {
		m, err := ParseMethod(name)
		if err != nil {
			return 0, err
		}
		set = set.With(m)
	}
	return set, nil
}

// Has reports whether m is in s.
func (s MethodSet) Has(m Method) bool {
	return m.Valid() && s&(1<<m) != 0
}

// With returns s with m added.
func (s MethodSet) With(m Method) MethodSet {
	if !m.Valid() {
		return s
	}
	return s | 1<<m
}

// Without returns s with m removed.
func (s MethodSet) Without(m Method) MethodSet {
	if !m.Valid() {
		return s
	}
	return s &^ (1 << m)
}

// Len returns the number of methods in s.
func (s MethodSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Methods returns the members of s in code order.
func (s MethodSet) Methods() []Method {
	out := make([]Method, 0, s.Len())
	for _, m := range methods {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s MethodSet) String() string {
	ms := s.Methods()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

// UnmarshalText implements encoding.TextUnmarshaler for env configuration.
func (s *MethodSet) UnmarshalText(text []byte) error {
	set, err := ParseMethodSet(string(text))
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// ResourceConfig describes what a configurable resource accepts.
type ResourceConfig struct {
	Methods    MethodSet
	Observable bool
	// EarlyAck acknowledges confirmable requests before the response is ready.
	EarlyAck bool
}

// Check rejects requests the resource does not accept.
func (c ResourceConfig) Check(r *Request) error {
	if !c.Methods.Has(r.Method) {
		return fmt.Errorf("%w: %s not in %s", errors.ErrMethodNotAllowed, r.Method, c.Methods)
	}
	if r.Observe() && !c.Observable {
		return fmt.Errorf("%w: resource is not observable", errors.ErrMethodNotAllowed)
	}
	return nil
}
