// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package etag_test

import (
	"strconv"
	"testing"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytes_RoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0xff},
		{0x00, 0xff},
		{0x01, 0x02, 0x03, 0x04},
		{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00, 0x00, 0x01},
	}

	for _, b := range cases {
		tag, err := etag.FromBytes(b)
		require.NoError(t, err)
		assert.Equal(t, b, tag.Bytes())

		parsed, err := etag.Parse(tag.Hex(), 16)
		require.NoError(t, err)
		assert.Equal(t, b, parsed.Bytes(), "hex round trip of %x", b)
		assert.Equal(t, tag, parsed)
	}
}

func TestFromBytes_TooLong(t *testing.T) {
	for _, n := range []int{9, 12, 64} {
		_, err := etag.FromBytes(make([]byte, n))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidEntityTag))

		var tagErr *errors.EntityTagError
		require.True(t, errors.As(err, &tagErr))
		assert.Equal(t, n, tagErr.Length)
		assert.Contains(t, err.Error(), "length "+strconv.Itoa(n))
	}
}

func TestEmptyConstructorsAreEqual(t *testing.T) {
	fromString, err := etag.FromString("")
	require.NoError(t, err)
	fromBytes, err := etag.FromBytes([]byte{})
	require.NoError(t, err)
	fromNil, err := etag.FromBytes(nil)
	require.NoError(t, err)
	fromParse, err := etag.Parse("", 16)
	require.NoError(t, err)

	all := []etag.Tag{etag.Empty(), {}, fromString, fromBytes, fromNil, etag.FromUint64(0), fromParse}
	for i, a := range all {
		assert.True(t, a.IsEmpty())
		for j, b := range all {
			assert.True(t, a.Equal(b), "%d vs %d", i, j)
			assert.Equal(t, 0, a.Compare(b))
		}
	}
}

func TestFromUint64_Minimal(t *testing.T) {
	cases := []struct {
		value uint64
		want  []byte
	}{
		{1, []byte{0x01}},
		{0xff, []byte{0xff}},
		{0x100, []byte{0x01, 0x00}},
		{0x0102030405060708, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, etag.FromUint64(tc.value).Bytes())
	}

	hexOne, err := etag.Parse("1", 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, hexOne.Bytes())

	dec, err := etag.Parse("256", 10)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, dec.Bytes())
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		radix  int
		length string
	}{
		{"not hex", "zz12", 16, "length 4"},
		{"hex too long", "000102030405060708", 16, "length 9"},
		{"decimal overflow", "99999999999999999999999", 10, "length 10"},
		{"not decimal", "12ab", 10, "length 4"},
		{"bad radix", "12", 1, "length 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := etag.Parse(tc.input, tc.radix)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidEntityTag))
			assert.Contains(t, err.Error(), tc.input)
			assert.Contains(t, err.Error(), tc.length)
		})
	}
}

func TestFromStringAndInt64(t *testing.T) {
	tag, err := etag.FromString("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), tag.Bytes())

	_, err = etag.FromString("more than eight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length 15")

	_, err = etag.FromInt64(-5)
	assert.True(t, errors.Is(err, errors.ErrInvalidEntityTag))
	assert.Contains(t, err.Error(), `"-5" has length 2`)

	n, err := etag.FromInt64(0x2a)
	require.NoError(t, err)
	assert.Equal(t, "2a", n.Hex())
}

func TestCompare(t *testing.T) {
	a := mustHex(t, "ff")
	b := mustHex(t, "0000")
	c := mustHex(t, "0001")

	assert.Equal(t, -1, etag.Empty().Compare(a))
	assert.Equal(t, -1, a.Compare(b), "shorter sorts first")
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(b))
	assert.Equal(t, 0, c.Compare(mustHex(t, "0x0001")))

	tags := []etag.Tag{c, etag.Empty(), b, a}
	etag.Sort(tags)
	assert.Equal(t, []etag.Tag{etag.Empty(), a, b, c}, tags)
}

func TestIn(t *testing.T) {
	set := []etag.Tag{mustHex(t, "01"), etag.Empty()}
	assert.True(t, mustHex(t, "01").In(set))
	assert.True(t, etag.FromUint64(0).In(set))
	assert.False(t, mustHex(t, "02").In(set))
	assert.False(t, etag.Empty().In(nil))
}

func TestTextMarshaling(t *testing.T) {
	tag := mustHex(t, "00ff")
	text, err := tag.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "00ff", string(text))

	var back etag.Tag
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, tag, back)
	assert.Error(t, back.UnmarshalText([]byte("xyz")))
}

func mustHex(t *testing.T, s string) etag.Tag {
	t.Helper()
	tag, err := etag.ParseHex(s)
	require.NoError(t, err)
	return tag
}
