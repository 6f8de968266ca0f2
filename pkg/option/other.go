// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package option

import (
	"cmp"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/plgd-dev/go-coap/v3/message"
)

// Other is an occurrence of an option that has no dedicated attribute.
// Its classification is always derived from the number.
type Other struct {
	number Number
	value  string
	alias  string
}

// NewOther creates an other option holding a copy of value.
func NewOther(n Number, value []byte, alias string) Other {
	return Other{number: n, value: string(value), alias: alias}
}

// Number returns the option number.
func (o Other) Number() Number {
	return o.number
}

// Alias returns the human alias, or "" when none is registered.
func (o Other) Alias() string {
	return o.alias
}

// Key returns the alias, or the decimal number when there is none.
func (o Other) Key() string {
	if o.alias != "" {
		return o.alias
	}
	return strconv.FormatUint(uint64(o.number), 10)
}

// Bytes returns a copy of the raw value.
func (o Other) Bytes() []byte {
	return []byte(o.value)
}

// Hex returns the value in lower-case hexadecimal.
func (o Other) Hex() string {
	return hex.EncodeToString([]byte(o.value))
}

// String returns the value as UTF-8, replacing invalid sequences.
func (o Other) String() string {
	return strings.ToValidUTF8(o.value, "�")
}

// Critical reports the critical bit of the number.
func (o Other) Critical() bool {
	return o.number.Critical()
}

// Unsafe reports the unsafe bit of the number.
func (o Other) Unsafe() bool {
	return o.number.Unsafe()
}

// NoCacheKey reports the no-cache-key bits of the number.
func (o Other) NoCacheKey() bool {
	return o.number.NoCacheKey()
}

// Equal compares number and value; the alias is ignored.
func (o Other) Equal(p Other) bool {
	return o.number == p.number && o.value == p.value
}

// Compare orders by number, then value.
func (o Other) Compare(p Other) int {
	if c := cmp.Compare(o.number, p.number); c != 0 {
		return c
	}
	return strings.Compare(o.value, p.value)
}

// Option returns the wire option.
func (o Other) Option() message.Option {
	return message.Option{ID: o.number.ID(), Value: o.Bytes()}
}
