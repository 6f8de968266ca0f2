// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/option"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindInt
	KindUint
	KindBool
	KindBytes
	KindStringer
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindStringer:
		return "stringer"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is a host-supplied option value: a string, a number, a bool, raw
// bytes, a value known only through its string form, or a list of those.
// The zero Value is KindNone.
type Value struct {
	kind Kind
	s    string
	i    int64
	u    uint64
	b    bool
	raw  []byte
	str  fmt.Stringer
	list []Value
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Int creates a signed number value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Uint creates an unsigned number value.
func Uint(u uint64) Value {
	return Value{kind: KindUint, u: u}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Bytes creates a raw byte value holding a copy of b.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

// Stringer creates a value whose representation is s.String().
func Stringer(s fmt.Stringer) Value {
	if s == nil {
		return Value{}
	}
	return Value{kind: KindStringer, str: s}
}

// List creates a list value. Each element becomes one option occurrence.
func List(vs ...Value) Value {
	return Value{kind: KindList, list: append([]Value{}, vs...)}
}

// Strings creates a list of string values.
func Strings(ss ...string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = String(s)
	}
	return List(vs...)
}

// ETag creates a raw byte value from an entity tag.
func ETag(t etag.Tag) Value {
	return Bytes(t.Bytes())
}

// ETags creates a list of entity tag values.
func ETags(tags ...etag.Tag) Value {
	vs := make([]Value, len(tags))
	for i, t := range tags {
		vs[i] = ETag(t)
	}
	return List(vs...)
}

// Path splits a slash-separated path into a list of segments. Leading and
// trailing slashes are ignored.
func Path(p string) Value {
	p = strings.Trim(p, "/")
	if p == "" {
		return List()
	}
	return Strings(strings.Split(p, "/")...)
}

// Of lifts a host value into a Value. It accepts strings, integers, bools,
// byte slices, entity tags, query parameters, blocks, fmt.Stringer values
// and slices of those. Integral floats are accepted since JSON and YAML
// decoders produce them.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x)), nil
	case uint8:
		return Uint(uint64(x)), nil
	case uint16:
		return Uint(uint64(x)), nil
	case uint32:
		return Uint(uint64(x)), nil
	case uint64:
		return Uint(x), nil
	case float64:
		return ofFloat(x)
	case float32:
		return ofFloat(float64(x))
	case etag.Tag:
		return ETag(x), nil
	case option.QueryParam:
		return String(x.String()), nil
	case option.Block:
		return String(x.String()), nil
	case []string:
		return Strings(x...), nil
	case []etag.Tag:
		return ETags(x...), nil
	case [][]byte:
		vs := make([]Value, len(x))
		for i, b := range x {
			vs[i] = Bytes(b)
		}
		return List(vs...), nil
	case []option.QueryParam:
		vs := make([]Value, len(x))
		for i, q := range x {
			vs[i] = String(q.String())
		}
		return List(vs...), nil
	case []any:
		vs := make([]Value, len(x))
		for i, e := range x {
			ev, err := Of(e)
			if err != nil {
				return Value{}, err
			}
			vs[i] = ev
		}
		return List(vs...), nil
	case fmt.Stringer:
		return Stringer(x), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported value type %T", errors.ErrInvalidInput, v)
	}
}

func ofFloat(f float64) (Value, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, fmt.Errorf("%w: non-integral number %v", errors.ErrInvalidInput, f)
	}
	if f < 0 {
		return Int(int64(f)), nil
	}
	return Uint(uint64(f)), nil
}

// Kind returns the variant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether v holds nothing.
func (v Value) IsZero() bool {
	return v.kind == KindNone
}

// Items returns the list elements, a single-element slice for scalars, and
// nil for the zero Value.
func (v Value) Items() []Value {
	switch v.kind {
	case KindNone:
		return nil
	case KindList:
		return v.list
	default:
		return []Value{v}
	}
}

// String returns a readable representation.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindBytes:
		return "0x" + hex.EncodeToString(v.raw)
	case KindStringer:
		return strconv.Quote(v.str.String())
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "<none>"
	}
}

func (v Value) scalar() (Value, error) {
	if v.kind != KindList {
		return v, nil
	}
	if len(v.list) != 1 {
		return Value{}, fmt.Errorf("%w: %d values for a single-valued option", errors.ErrInvalidOptionValue, len(v.list))
	}
	return v.list[0].scalar()
}

func (v Value) text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindStringer:
		return v.str.String(), true
	default:
		return "", false
	}
}

// AsString coerces v to an option string.
func (v Value) AsString() (string, error) {
	v, err := v.scalar()
	if err != nil {
		return "", err
	}
	if s, ok := v.text(); ok {
		return s, nil
	}
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindUint:
		return strconv.FormatUint(v.u, 10), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindBytes:
		if !utf8.Valid(v.raw) {
			return "", fmt.Errorf("%w: bytes are not valid UTF-8", errors.ErrInvalidOptionValue)
		}
		return string(v.raw), nil
	}
	return "", kindError(v, "string")
}

// AsUint coerces v to an unsigned number no larger than max.
func (v Value) AsUint(max uint64) (uint64, error) {
	v, err := v.scalar()
	if err != nil {
		return 0, err
	}
	var u uint64
	switch v.kind {
	case KindUint:
		u = v.u
	case KindInt:
		if v.i < 0 {
			return 0, fmt.Errorf("%w: negative number %d", errors.ErrInvalidOptionValue, v.i)
		}
		u = uint64(v.i)
	case KindString, KindStringer:
		s, _ := v.text()
		u, err = strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errors.ErrInvalidOptionValue, s)
		}
	case KindBytes:
		if len(v.raw) > 8 {
			return 0, fmt.Errorf("%w: %d bytes for a number", errors.ErrInvalidOptionValue, len(v.raw))
		}
		var buf [8]byte
		copy(buf[8-len(v.raw):], v.raw)
		u = binary.BigEndian.Uint64(buf[:])
	default:
		return 0, kindError(v, "number")
	}
	if u > max {
		return 0, fmt.Errorf("%w: %d exceeds %d", errors.ErrInvalidOptionValue, u, max)
	}
	return u, nil
}

// AsBool coerces v to a flag.
func (v Value) AsBool() (bool, error) {
	v, err := v.scalar()
	if err != nil {
		return false, err
	}
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i != 0, nil
	case KindUint:
		return v.u != 0, nil
	case KindString, KindStringer:
		s, _ := v.text()
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", errors.ErrInvalidOptionValue, s)
		}
		return b, nil
	}
	return false, kindError(v, "bool")
}

// AsBytes coerces v to raw bytes. Strings yield their UTF-8 bytes and
// numbers their minimal big-endian form.
func (v Value) AsBytes() ([]byte, error) {
	v, err := v.scalar()
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindBytes:
		return append([]byte{}, v.raw...), nil
	case KindString, KindStringer:
		s, _ := v.text()
		return []byte(s), nil
	case KindUint:
		return etag.FromUint64(v.u).Bytes(), nil
	case KindInt:
		if v.i < 0 {
			return nil, fmt.Errorf("%w: negative number %d", errors.ErrInvalidOptionValue, v.i)
		}
		return etag.FromUint64(uint64(v.i)).Bytes(), nil
	}
	return nil, kindError(v, "bytes")
}

// AsETag coerces v to an entity tag. Strings are parsed as hexadecimal;
// the zero Value yields the empty tag.
func (v Value) AsETag() (etag.Tag, error) {
	if v.kind == KindNone {
		return etag.Empty(), nil
	}
	v, err := v.scalar()
	if err != nil {
		return etag.Tag{}, err
	}
	switch v.kind {
	case KindBytes:
		return etag.FromBytes(v.raw)
	case KindUint:
		return etag.FromUint64(v.u), nil
	case KindInt:
		return etag.FromInt64(v.i)
	case KindString, KindStringer:
		s, _ := v.text()
		return etag.ParseHex(s)
	}
	return etag.Tag{}, kindError(v, "entity tag")
}

// AsBlock coerces v to a block value: a packed number, the wire bytes, or
// a "num/more/size" string.
func (v Value) AsBlock() (option.Block, error) {
	v, err := v.scalar()
	if err != nil {
		return option.Block{}, err
	}
	switch v.kind {
	case KindBytes:
		return option.DecodeBlock(v.raw)
	case KindString, KindStringer:
		s, _ := v.text()
		if strings.Contains(s, "/") {
			return option.ParseBlock(s)
		}
	}
	u, err := v.AsUint(1<<24 - 1)
	if err != nil {
		return option.Block{}, err
	}
	return option.BlockFromUint(uint32(u))
}

// AsQuery coerces v to a query parameter.
func (v Value) AsQuery() (option.QueryParam, error) {
	s, err := v.AsString()
	if err != nil {
		return option.QueryParam{}, err
	}
	return option.ParseQueryParam(s), nil
}

func kindError(v Value, want string) error {
	return fmt.Errorf("%w: cannot use %s as %s", errors.ErrInvalidOptionValue, v.kind, want)
}
