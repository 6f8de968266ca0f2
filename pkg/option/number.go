// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package option

import (
	"strconv"

	"github.com/plgd-dev/go-coap/v3/message"
)

// Number is a CoAP option number.
type Number uint16

// Registered option numbers.
const (
	IfMatch       = Number(message.IfMatch)
	URIHost       = Number(message.URIHost)
	ETag          = Number(message.ETag)
	IfNoneMatch   = Number(message.IfNoneMatch)
	Observe       = Number(message.Observe)
	URIPort       = Number(message.URIPort)
	LocationPath  = Number(message.LocationPath)
	URIPath       = Number(message.URIPath)
	ContentFormat = Number(message.ContentFormat)
	MaxAge        = Number(message.MaxAge)
	URIQuery      = Number(message.URIQuery)
	Accept        = Number(message.Accept)
	LocationQuery = Number(message.LocationQuery)
	Block2        = Number(message.Block2)
	Block1        = Number(message.Block1)
	Size2         = Number(message.Size2)
	ProxyURI      = Number(message.ProxyURI)
	ProxyScheme   = Number(message.ProxyScheme)
	Size1         = Number(message.Size1)
	NoResponse    = Number(258)
)

// Flags is the classification derived from an option number.
type Flags struct {
	Critical   bool
	Unsafe     bool
	NoCacheKey bool
}

// Classify derives the classification bits of n (RFC 7252 §5.4.6).
// NoCacheKey is only meaningful when Unsafe is false.
func Classify(n Number) Flags {
	return Flags{
		Critical:   n.Critical(),
		Unsafe:     n.Unsafe(),
		NoCacheKey: n.NoCacheKey(),
	}
}

// Critical reports whether a receiver must understand the option.
func (n Number) Critical() bool {
	return n&0x01 == 0x01
}

// Unsafe reports whether a proxy that does not understand the option must not forward it.
func (n Number) Unsafe() bool {
	return n&0x02 == 0x02
}

// NoCacheKey reports whether the option is excluded from the cache key.
func (n Number) NoCacheKey() bool {
	return n&0x1e == 0x1c
}

// Repeatable reports whether the option may occur more than once. Only
// registered options are known to be repeatable.
func (n Number) Repeatable() bool {
	d, ok := Standard(n)
	return ok && d.Repeatable
}

// ID converts n to the go-coap option id.
func (n Number) ID() message.OptionID {
	return message.OptionID(n)
}

// String returns the registered name, or the decimal number.
func (n Number) String() string {
	if d, ok := Standard(n); ok {
		return d.Name
	}
	return strconv.FormatUint(uint64(n), 10)
}
