// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/absmach/coapattr/pkg/codec"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/etag"
	"github.com/absmach/coapattr/pkg/metrics"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opt(n option.Number, value []byte) message.Option {
	return message.Option{ID: n.ID(), Value: value}
}

func testRegistry(t *testing.T) *option.Registry {
	t.Helper()
	r, err := option.NewRegistry(
		option.Def{Number: 65000, Name: "x-trace", Format: option.FormatString},
		option.Def{Number: 65004, Name: "seq", Format: option.FormatUint, MaxLen: 2},
		option.Def{Number: 65008, Name: "flag", Format: option.FormatEmpty},
	)
	require.NoError(t, err)
	return r
}

func TestEndToEnd(t *testing.T) {
	in := message.Options{
		opt(option.ETag, []byte{0x00, 0xff}),
		opt(option.URIPath, []byte("a")),
		opt(option.URIPath, []byte("b")),
		opt(option.ContentFormat, []byte{41}),
	}

	a, err := codec.Decode(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, a.URIPath)
	assert.Equal(t, optional.Some(uint32(41)), a.ContentFormat)
	require.Len(t, a.ETags, 1)
	assert.Equal(t, "00ff", a.ETags[0].Hex())

	out, err := codec.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeSortsByNumber(t *testing.T) {
	a, err := codec.New(codec.Config{}).Build(codec.Params{
		"Uri-Path":       codec.Strings("a", "b"),
		"Content-Format": codec.Uint(41),
		"ETag":           codec.List(codec.Bytes([]byte{0x00, 0xff})),
	})
	require.NoError(t, err)

	out, err := codec.Encode(a)
	require.NoError(t, err)
	want := message.Options{
		opt(option.ETag, []byte{0x00, 0xff}),
		opt(option.URIPath, []byte("a")),
		opt(option.URIPath, []byte("b")),
		opt(option.ContentFormat, []byte{41}),
	}
	assert.Equal(t, want, out)

	back, err := codec.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, a.URIPath, back.URIPath)
	assert.Equal(t, a.ContentFormat, back.ContentFormat)
	assert.Equal(t, a.ETags, back.ETags)
}

func TestETagRoundTrip(t *testing.T) {
	tags := []etag.Tag{etag.FromUint64(1), etag.FromUint64(0x0203), etag.Empty()}
	a := &codec.OptionAttributes{ETags: tags}

	opts, err := codec.Encode(a)
	require.NoError(t, err)
	require.Len(t, opts, 3)

	got, err := codec.Decode(opts)
	require.NoError(t, err)
	assert.Equal(t, tags, got.ETags)
	assert.True(t, got.HasETag(etag.FromUint64(0x0203)))
	assert.False(t, got.HasETag(etag.FromUint64(4)))
}

func TestQueryParams(t *testing.T) {
	in := message.Options{
		opt(option.URIQuery, []byte("first")),
		opt(option.URIQuery, []byte("second=2")),
		opt(option.URIQuery, []byte("third=")),
	}

	a, err := codec.Decode(in)
	require.NoError(t, err)
	assert.Equal(t, []option.QueryParam{
		option.QueryKey("first"),
		option.NewQueryParam("second", "2"),
		option.NewQueryParam("third", ""),
	}, a.URIQuery)
	assert.Equal(t, "first&second=2&third=", a.URIQueryString())

	out, err := codec.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	bad := &codec.OptionAttributes{URIQuery: []option.QueryParam{option.QueryKey("a=b")}}
	_, err = codec.Encode(bad)
	assert.ErrorIs(t, err, errors.ErrInvalidOptionValue)

	var ignored []*errors.OptionError
	c := codec.New(codec.Config{OnIgnore: func(err *errors.OptionError) { ignored = append(ignored, err) }})
	bad.URIQuery = append(bad.URIQuery, option.NewQueryParam("c", "d"))
	out, err = c.Encode(bad)
	require.NoError(t, err)
	assert.Equal(t, message.Options{opt(option.URIQuery, []byte("c=d"))}, out)
	require.Len(t, ignored, 1)
	assert.Equal(t, uint16(option.URIQuery), ignored[0].Number)
}

func TestBuildCoercion(t *testing.T) {
	c := codec.New(codec.Config{})

	a, err := c.Build(codec.Params{
		"Uri-Path":       codec.Path("/sensors/temp"),
		"content_format": codec.String("41"),
		"ETag":           codec.Strings("00ff", "0x1"),
		"Max-Age":        codec.Int(30),
		"Observe":        codec.Uint(0),
		"Uri-Query":      codec.Strings("a=1", "b"),
		"Block2":         codec.String("2/0/64"),
		"If-None-Match":  codec.Bool(true),
		"Uri-Host":       codec.Stringer(stringer("example.com")),
		"Size1":          codec.Bytes([]byte{0x01, 0x00}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sensors", "temp"}, a.URIPath)
	assert.Equal(t, "/sensors/temp", a.URIPathString())
	assert.Equal(t, optional.Some(uint32(41)), a.ContentFormat)
	assert.Equal(t, []string{"00ff", "01"}, []string{a.ETags[0].Hex(), a.ETags[1].Hex()})
	assert.Equal(t, uint32(30), a.MaxAgeOrDefault())
	assert.Equal(t, optional.Some(uint32(0)), a.Observe)
	assert.Equal(t, "a=1&b", a.URIQueryString())
	b, ok := a.Block2.Get()
	require.True(t, ok)
	assert.Equal(t, uint32(2), b.Num)
	assert.Equal(t, 64, b.Size())
	assert.True(t, a.IfNoneMatch)
	assert.Equal(t, optional.Some("example.com"), a.URIHost)
	assert.Equal(t, optional.Some(uint32(256)), a.Size1)

	opts, err := c.Encode(a)
	require.NoError(t, err)
	back, err := c.Decode(opts)
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

type stringer string

func (s stringer) String() string { return string(s) }

func TestBuildScalarForRepeatable(t *testing.T) {
	a, err := codec.New(codec.Config{}).Build(codec.Params{"Uri-Path": codec.String("only")})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, a.URIPath)
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		desc   string
		params codec.Params
		number uint16
		err    error
	}{
		{
			desc:   "list for single-valued option",
			params: codec.Params{"Content-Format": codec.List(codec.Uint(1), codec.Uint(2))},
			number: 12,
			err:    errors.ErrInvalidOptionValue,
		},
		{
			desc:   "non-numeric uint",
			params: codec.Params{"Max-Age": codec.String("soon")},
			number: 14,
			err:    errors.ErrInvalidOptionValue,
		},
		{
			desc:   "uint out of range",
			params: codec.Params{"Content-Format": codec.Uint(70000)},
			number: 12,
			err:    errors.ErrInvalidOptionValue,
		},
		{
			desc:   "negative uint",
			params: codec.Params{"Uri-Port": codec.Int(-1)},
			number: 7,
			err:    errors.ErrInvalidOptionValue,
		},
		{
			desc:   "entity tag too long",
			params: codec.Params{"ETag": codec.String("0102030405060708090a")},
			number: 4,
			err:    errors.ErrInvalidEntityTag,
		},
		{
			desc:   "slash in path segment",
			params: codec.Params{"Uri-Path": codec.Strings("a/b")},
			number: 11,
			err:    errors.ErrInvalidOptionValue,
		},
		{
			desc:   "unknown option name",
			params: codec.Params{"bogus": codec.String("x")},
			number: 0,
			err:    errors.ErrUnsupportedOption,
		},
		{
			desc:   "reserved option number",
			params: codec.Params{"0": codec.String("x")},
			number: 0,
			err:    errors.ErrUnsupportedOption,
		},
		{
			desc:   "invalid block",
			params: codec.Params{"Block1": codec.String("1/0/2048")},
			number: 27,
			err:    errors.ErrInvalidOptionValue,
		},
	}

	c := codec.New(codec.Config{})
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			a, err := c.Build(tc.params)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tc.err)

			var oe *errors.OptionError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, tc.number, oe.Number)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		desc string
		opts message.Options
		err  error
	}{
		{
			desc: "invalid UTF-8 path",
			opts: message.Options{opt(option.URIPath, []byte{0xff, 0xfe})},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "repeated content format",
			opts: message.Options{opt(option.ContentFormat, []byte{0}), opt(option.ContentFormat, []byte{41})},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "oversized entity tag",
			opts: message.Options{opt(option.ETag, make([]byte, 9))},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "oversized uint",
			opts: message.Options{opt(option.ContentFormat, []byte{1, 2, 3})},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "reserved number",
			opts: message.Options{{ID: 0, Value: []byte{1}}},
			err:  errors.ErrUnsupportedOption,
		},
		{
			desc: "path segment with separator",
			opts: message.Options{opt(option.URIPath, []byte("a/b"))},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "location segment with separator",
			opts: message.Options{opt(option.LocationPath, []byte("/"))},
			err:  errors.ErrInvalidOptionValue,
		},
		{
			desc: "empty Uri-Host",
			opts: message.Options{opt(option.URIHost, nil)},
			err:  errors.ErrInvalidOptionValue,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := codec.Decode(tc.opts)
			assert.ErrorIs(t, err, tc.err)

			var oe *errors.OptionError
			assert.ErrorAs(t, err, &oe)
		})
	}
}

func TestOnIgnore(t *testing.T) {
	var ignored []*errors.OptionError
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	c := codec.New(codec.Config{
		Metrics:  m,
		OnIgnore: func(err *errors.OptionError) { ignored = append(ignored, err) },
	})

	a, err := c.Decode(message.Options{
		opt(option.URIPath, []byte{0xff}),
		opt(option.URIPath, []byte("ok")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, a.URIPath)
	require.Len(t, ignored, 1)
	assert.Equal(t, uint16(option.URIPath), ignored[0].Number)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OptionsIgnored.WithLabelValues("Uri-Path", "decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OptionsDecoded.WithLabelValues("Uri-Path")))

	ignored = nil
	a, err = c.Build(codec.Params{
		"Content-Format": codec.String("abc"),
		"Uri-Path":       codec.Path("/a"),
	})
	require.NoError(t, err)
	assert.False(t, a.ContentFormat.IsSet())
	assert.Equal(t, []string{"a"}, a.URIPath)
	require.Len(t, ignored, 1)
	assert.Equal(t, "Content-Format", ignored[0].Option)

	ignored = nil
	opts, err := c.Encode(&codec.OptionAttributes{URIPath: []string{"x/y", "z"}})
	require.NoError(t, err)
	assert.Equal(t, message.Options{opt(option.URIPath, []byte("z"))}, opts)
	assert.Len(t, ignored, 1)
}

func TestErrorMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	c := codec.New(codec.Config{Metrics: m})

	_, err := c.Decode(message.Options{{ID: 65001, Value: make([]byte, option.MaxOtherLen+1)}})
	assert.ErrorIs(t, err, errors.ErrInvalidOptionValue)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OptionErrors.WithLabelValues(codec.OtherKey, "decode")))
}

func TestOtherOptions(t *testing.T) {
	c := codec.New(codec.Config{Registry: testRegistry(t)})

	in := message.Options{
		{ID: 65000, Value: []byte("abc")},
		{ID: 65001, Value: []byte{0xde, 0xad}},
		{ID: 65001, Value: []byte{0xbe, 0xef}},
	}
	a, err := c.Decode(in)
	require.NoError(t, err)
	require.Len(t, a.Other, 3)
	assert.Equal(t, "x-trace", a.Other[0].Key())
	assert.Equal(t, "65001", a.Other[1].Key())
	assert.Len(t, a.OtherNumber(65001), 2)

	groups := a.OtherByKey()
	assert.Len(t, groups["x-trace"], 1)
	assert.Len(t, groups["65001"], 2)

	out, err := c.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOtherFormats(t *testing.T) {
	c := codec.New(codec.Config{Registry: testRegistry(t)})

	a, err := c.Build(codec.Params{
		"seq":     codec.Uint(300),
		"flag":    codec.Bool(true),
		"X_Trace": codec.Int(7),
		"2048":    codec.String("raw"),
	})
	require.NoError(t, err)
	require.Len(t, a.Other, 4)
	assert.Equal(t, option.Number(2048), a.Other[0].Number())
	assert.Equal(t, []byte("raw"), a.Other[0].Bytes())
	assert.Equal(t, []byte("7"), a.Other[1].Bytes())
	assert.Equal(t, []byte{0x01, 0x2c}, a.Other[2].Bytes())
	assert.Equal(t, option.Number(65008), a.Other[3].Number())
	assert.Empty(t, a.Other[3].Bytes())

	_, err = c.Build(codec.Params{"seq": codec.Uint(70000)})
	assert.ErrorIs(t, err, errors.ErrInvalidOptionValue)

	_, err = c.Build(codec.Params{"seq": codec.List(codec.Uint(1), codec.Uint(2))})
	assert.ErrorIs(t, err, errors.ErrInvalidOptionValue)

	a, err = c.Build(codec.Params{"flag": codec.Bool(false)})
	require.NoError(t, err)
	assert.Empty(t, a.Other)

	_, err = c.Decode(message.Options{{ID: 65004, Value: []byte{1}}, {ID: 65004, Value: []byte{2}}})
	assert.ErrorIs(t, err, errors.ErrInvalidOptionValue)

	a, err = c.Decode(message.Options{{ID: 2048, Value: []byte{1}}, {ID: 2048, Value: []byte{2}}})
	require.NoError(t, err)
	assert.Len(t, a.Other, 2)
}

func TestMapRoundTrip(t *testing.T) {
	c := codec.New(codec.Config{Registry: testRegistry(t)})
	in := message.Options{
		opt(option.IfMatch, []byte{}),
		opt(option.URIHost, []byte("example.com")),
		opt(option.ETag, []byte{0x00, 0x01}),
		opt(option.IfNoneMatch, nil),
		opt(option.Observe, []byte{1}),
		opt(option.URIPath, []byte("a")),
		opt(option.URIPath, []byte("b")),
		opt(option.ContentFormat, []byte{50}),
		opt(option.URIQuery, []byte("k=")),
		opt(option.Block2, []byte{0x22}),
		opt(option.NoResponse, []byte{26}),
		{ID: 65000, Value: []byte("abc")},
		{ID: 65001, Value: []byte{0x01}},
	}

	a, err := c.Decode(in)
	require.NoError(t, err)

	m := a.ToMap()
	assert.Equal(t, []string{""}, m["If-Match"])
	assert.Equal(t, "example.com", m["Uri-Host"])
	assert.Equal(t, []string{"0001"}, m["ETag"])
	assert.Equal(t, true, m["If-None-Match"])
	assert.Equal(t, []string{"a", "b"}, m["Uri-Path"])
	assert.Equal(t, []string{"k="}, m["Uri-Query"])
	assert.Equal(t, "2/0/64", m["Block2"])
	assert.Equal(t, map[string]any{
		"x-trace": [][]byte{[]byte("abc")},
		"65001":   [][]byte{{0x01}},
	}, m[codec.OtherKey])

	p, err := codec.ParamsOf(m)
	require.NoError(t, err)
	b, err := c.Build(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	out, err := c.Encode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParamsOf(t *testing.T) {
	p, err := codec.ParamsOf(map[string]any{
		"Uri-Path": []any{"a", "b"},
		"Max-Age":  float64(30),
		"other":    map[string]any{"2048": []byte{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, codec.KindList, p["Uri-Path"].Kind())
	assert.Equal(t, codec.KindUint, p["Max-Age"].Kind())
	assert.Equal(t, codec.KindBytes, p["2048"].Kind())

	_, err = codec.ParamsOf(map[string]any{"Max-Age": 1.5})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = codec.ParamsOf(map[string]any{"other": "x"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = codec.ParamsOf(map[string]any{"Uri-Path": struct{}{}})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAttributeHelpers(t *testing.T) {
	a := &codec.OptionAttributes{}
	assert.Equal(t, uint32(codec.DefaultMaxAge), a.MaxAgeOrDefault())
	_, ok := a.ContentFormatName()
	assert.False(t, ok)
	assert.Equal(t, "/", a.URIPathString())
	assert.Empty(t, a.ToMap())

	a.ContentFormat = optional.Some(uint32(message.AppJSON))
	name, ok := a.ContentFormatName()
	assert.True(t, ok)
	assert.Equal(t, message.AppJSON.String(), name)

	a.IfMatch = []etag.Tag{etag.FromUint64(5)}
	assert.True(t, a.MatchesIfMatch(etag.FromUint64(5)))
	assert.False(t, a.MatchesIfMatch(etag.FromUint64(6)))
	a.IfMatch = append(a.IfMatch, etag.Empty())
	assert.True(t, a.MatchesIfMatch(etag.FromUint64(6)))

	a.URIPath = []string{"x"}
	clone := a.Clone()
	clone.URIPath[0] = "y"
	assert.Equal(t, "x", a.URIPath[0])
	assert.Contains(t, a.String(), "Uri-Path: [x]")
}

func TestConcurrentUse(t *testing.T) {
	c := codec.New(codec.Config{Registry: testRegistry(t)})
	in := message.Options{
		opt(option.ETag, []byte{0x01}),
		opt(option.URIPath, []byte("a")),
		{ID: 65000, Value: []byte("abc")},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.Decode(in)
			if err != nil {
				errs <- err
				return
			}
			out, err := c.Encode(a)
			if err != nil {
				errs <- err
				return
			}
			if len(out) != len(in) {
				errs <- fmt.Errorf("got %d options, want %d", len(out), len(in))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
