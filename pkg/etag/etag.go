// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package etag

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
)

// MaxLength is the maximum length of an entity tag in bytes.
const MaxLength = 8

// Tag is an immutable entity tag. The zero value is the empty tag, which
// stands for "no tag" and equals every other empty tag. Tag is comparable,
// so == and map keys agree with Equal.
type Tag struct {
	b string
}

// Empty returns the empty tag.
func Empty() Tag {
	return Tag{}
}

// FromBytes creates a tag holding a copy of b. A nil or empty slice yields
// the empty tag.
func FromBytes(b []byte) (Tag, error) {
	if len(b) > MaxLength {
		return Tag{}, &errors.EntityTagError{Input: hex.EncodeToString(b), Length: len(b)}
	}
	return Tag{b: string(b)}, nil
}

// FromUint64 creates a tag from the minimal big-endian form of v.
// Zero yields the empty tag.
func FromUint64(v uint64) Tag {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	i := 0
	for i < len(buf) && buf[i] == 0 {
		i++
	}
	return Tag{b: string(buf[i:])}
}

// FromInt64 creates a tag from a non-negative integer.
func FromInt64(v int64) (Tag, error) {
	if v < 0 {
		return Tag{}, inputError(strconv.FormatInt(v, 10), errors.New("negative value"))
	}
	return FromUint64(uint64(v)), nil
}

// FromString creates a tag from the UTF-8 bytes of s.
func FromString(s string) (Tag, error) {
	if len(s) > MaxLength {
		return Tag{}, &errors.EntityTagError{Input: s, Length: len(s)}
	}
	return Tag{b: s}, nil
}

// ParseHex parses a hexadecimal tag byte by byte, keeping leading zero
// bytes. An odd number of digits is padded with a leading zero; an
// optional 0x prefix is accepted.
func ParseHex(s string) (Tag, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return Tag{}, inputError(s, err)
	}
	if len(b) > MaxLength {
		return Tag{}, &errors.EntityTagError{Input: s, Length: len(b)}
	}
	return Tag{b: string(b)}, nil
}

// Parse parses s in the given radix. Radix 16 is parsed byte-wise as in
// ParseHex; any other radix is parsed as an unsigned number and stored in
// its minimal big-endian form. An empty string yields the empty tag.
func Parse(s string, radix int) (Tag, error) {
	if s == "" {
		return Tag{}, nil
	}
	if radix == 16 {
		return ParseHex(s)
	}
	if radix < 2 || radix > 36 {
		return Tag{}, inputError(s, errors.New("radix "+strconv.Itoa(radix)+" out of range"))
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), radix, 64)
	if err != nil {
		if n, ok := new(big.Int).SetString(strings.TrimSpace(s), radix); ok && n.Sign() > 0 {
			return Tag{}, &errors.EntityTagError{Input: s, Length: len(n.Bytes())}
		}
		return Tag{}, inputError(s, err)
	}
	return FromUint64(v), nil
}

// inputError reports input that could not be converted; the length is that
// of the input text.
func inputError(input string, err error) error {
	return &errors.EntityTagError{Input: input, Length: len(input), Err: err}
}

// Bytes returns a copy of the tag bytes.
func (t Tag) Bytes() []byte {
	return []byte(t.b)
}

// Hex returns the lower-case hexadecimal form.
func (t Tag) Hex() string {
	return hex.EncodeToString([]byte(t.b))
}

// String returns the hexadecimal form.
func (t Tag) String() string {
	return t.Hex()
}

// Len returns the tag length in bytes.
func (t Tag) Len() int {
	return len(t.b)
}

// IsEmpty reports whether the tag has no bytes.
func (t Tag) IsEmpty() bool {
	return len(t.b) == 0
}

// Equal reports whether both tags hold the same bytes.
func (t Tag) Equal(o Tag) bool {
	return t.b == o.b
}

// Compare orders tags by length first, then byte-wise. The empty tag
// sorts before every other tag.
func (t Tag) Compare(o Tag) int {
	if len(t.b) != len(o.b) {
		if len(t.b) < len(o.b) {
			return -1
		}
		return 1
	}
	return bytes.Compare([]byte(t.b), []byte(o.b))
}

// In reports whether an equal tag exists in tags.
func (t Tag) In(tags []Tag) bool {
	return slices.Contains(tags, t)
}

// MarshalText implements encoding.TextMarshaler using the hexadecimal form.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(text []byte) error {
	v, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Sort orders tags in place by Compare.
func Sort(tags []Tag) {
	slices.SortFunc(tags, Tag.Compare)
}
