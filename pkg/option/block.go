// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package option

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/plgd-dev/go-coap/v3/message"
)

// MaxSZX is the largest block size exponent (1024 bytes). The BERT value 7 is not accepted.
const MaxSZX = 6

// MaxBlockNum is the largest block number a 3-byte block value can carry.
const MaxBlockNum = 1<<20 - 1

// Block is a Block1 or Block2 value (RFC 7959 §2.2).
type Block struct {
	SZX  uint8
	More bool
	Num  uint32
}

// NewBlock creates a block value from a byte size, which must be a power
// of two between 16 and 1024.
func NewBlock(size int, num uint32, more bool) (Block, error) {
	if size < 16 || size > 1024 || size&(size-1) != 0 {
		return Block{}, fmt.Errorf("%w: block size %d", errors.ErrInvalidOptionValue, size)
	}
	b := Block{SZX: uint8(bits.TrailingZeros(uint(size)) - 4), More: more, Num: num}
	if err := b.validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// Size returns the block size in bytes, 2^(SZX+4).
func (b Block) Size() int {
	return 1 << (b.SZX + 4)
}

// Offset returns the byte offset of the block.
func (b Block) Offset() int64 {
	return int64(b.Num) * int64(b.Size())
}

// Uint returns the packed value: num << 4 | more << 3 | szx.
func (b Block) Uint() (uint32, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}
	v := b.Num<<4 | uint32(b.SZX)
	if b.More {
		v |= 1 << 3
	}
	return v, nil
}

// Encode returns the minimal wire value.
func (b Block) Encode() ([]byte, error) {
	v, err := b.Uint()
	if err != nil {
		return nil, err
	}
	return EncodeUint(v), nil
}

// String formats the block as "num/more/size", the form ParseBlock reads.
func (b Block) String() string {
	m := 0
	if b.More {
		m = 1
	}
	return fmt.Sprintf("%d/%d/%d", b.Num, m, b.Size())
}

func (b Block) validate() error {
	if b.SZX > MaxSZX {
		return fmt.Errorf("%w: block szx %d", errors.ErrInvalidOptionValue, b.SZX)
	}
	if b.Num > MaxBlockNum {
		return fmt.Errorf("%w: block number %d", errors.ErrInvalidOptionValue, b.Num)
	}
	return nil
}

// BlockFromUint unpacks a block value.
func BlockFromUint(v uint32) (Block, error) {
	b := Block{SZX: uint8(v & 0x7), More: v&(1<<3) != 0, Num: v >> 4}
	if err := b.validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// DecodeBlock unpacks a wire value of at most 3 bytes.
func DecodeBlock(value []byte) (Block, error) {
	if len(value) > 3 {
		return Block{}, fmt.Errorf("%w: block value length %d", errors.ErrInvalidOptionValue, len(value))
	}
	v, err := DecodeUint(value)
	if err != nil {
		return Block{}, err
	}
	return BlockFromUint(v)
}

// ParseBlock parses "num/more/size", e.g. "3/1/64".
func ParseBlock(s string) (Block, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Block{}, fmt.Errorf("%w: block %q, want num/more/size", errors.ErrInvalidOptionValue, s)
	}
	num, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Block{}, fmt.Errorf("%w: block number %q", errors.ErrInvalidOptionValue, parts[0])
	}
	more, err := strconv.ParseBool(parts[1])
	if err != nil {
		return Block{}, fmt.Errorf("%w: block more flag %q", errors.ErrInvalidOptionValue, parts[1])
	}
	size, err := strconv.Atoi(parts[2])
	if err != nil {
		return Block{}, fmt.Errorf("%w: block size %q", errors.ErrInvalidOptionValue, parts[2])
	}
	return NewBlock(size, uint32(num), more)
}

// EncodeUint returns the minimal big-endian form of v; zero is empty.
func EncodeUint(v uint32) []byte {
	var buf [4]byte
	n, _ := message.EncodeUint32(buf[:], v)
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}

// DecodeUint reads a big-endian value of at most 4 bytes.
func DecodeUint(value []byte) (uint32, error) {
	if len(value) > 4 {
		return 0, fmt.Errorf("%w: uint length %d", errors.ErrInvalidOptionValue, len(value))
	}
	v, _, err := message.DecodeUint32(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errors.ErrInvalidOptionValue, err)
	}
	return v, nil
}
