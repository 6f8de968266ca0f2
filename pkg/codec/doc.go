// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package codec translates between a CoAP option set and a typed attribute
// view of it.
//
// # Decoding
//
// Decode walks a message.Options in wire order and fills an
// OptionAttributes. Repeatable options (If-Match, ETag, Uri-Path,
// Uri-Query, Location-Path, Location-Query) accumulate in order; every
// other registered option may appear at most once. Options without a
// dedicated attribute are kept as option.Other values, keyed by their
// registry alias when one is configured.
//
// # Encoding
//
// Encode is the inverse: it emits the options of an OptionAttributes in
// ascending option number, repeated options in attribute order. Decoding
// the result yields the same attributes.
//
// Host values enter through Params, a map of option name, alias or decimal
// number to Value. Build coerces them per option format:
//
//	p := codec.Params{
//		"Uri-Path":       codec.Path("/sensors/temp"),
//		"Content-Format": codec.Uint(50),
//		"ETag":           codec.String("00ff"),
//	}
//	opts, err := codec.New(codec.Config{}).EncodeParams(p)
//
// A list for a repeatable option becomes one occurrence per element. A list
// of more than one element for a single-valued option is an error.
//
// # Failure Policy
//
// By default the first invalid option aborts the call with an
// *errors.OptionError that matches errors.ErrInvalidOptionValue or
// errors.ErrUnsupportedOption. With Config.OnIgnore set, invalid options are
// skipped and reported to the callback instead; nothing is dropped silently.
package codec
