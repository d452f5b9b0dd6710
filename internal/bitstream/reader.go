// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitstream

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
)

// Reader reads bits written by a Writer. Every read past the end of the data
// fails with an error marked base.ErrEndOfStream.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the first bit of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current bit position.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.pos
}

// Seek moves the cursor to an absolute bit position.
func (r *Reader) Seek(pos int) {
	r.pos = pos
}

// AlignToByte advances the cursor to the next byte boundary.
func (r *Reader) AlignToByte() {
	if rem := r.pos % 8; rem != 0 {
		r.pos += 8 - rem
	}
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadBits reads width bits written by Writer.WriteBits.
func (r *Reader) ReadBits(width int) (uint64, error) {
	if width < 0 || width > 64 {
		return 0, errors.AssertionFailedf("invalid bit width %d", errors.Safe(width))
	}
	if r.pos+width > len(r.data)*8 {
		return 0, base.EndOfStreamf("reading %d bits at bit %d of %d", errors.Safe(width),
			errors.Safe(r.pos), errors.Safe(len(r.data)*8))
	}
	var v uint64
	shift := 0
	for width > 0 {
		idx, off := r.pos/8, r.pos%8
		k := min(8-off, width)
		v |= uint64((r.data[idx]>>uint(off))&(1<<uint(k)-1)) << uint(shift)
		shift += k
		width -= k
		r.pos += k
	}
	return v, nil
}

// ReadInt64 reads an integer written by Writer.WriteInt64.
func (r *Reader) ReadInt64() (int64, error) {
	neg, m, err := r.readCompact()
	if err != nil {
		return 0, err
	}
	switch {
	case !neg && m > math.MaxInt64:
		return 0, base.CorruptionErrorf("integer magnitude %d overflows int64", errors.Safe(m))
	case neg && m > 1<<63:
		return 0, base.CorruptionErrorf("integer magnitude -%d overflows int64", errors.Safe(m))
	case neg:
		return -int64(m-1) - 1, nil
	default:
		return int64(m), nil
	}
}

// ReadInt32 reads an integer written by Writer.WriteInt32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, base.CorruptionErrorf("integer %d overflows int32", errors.Safe(v))
	}
	return int32(v), nil
}

// ReadUint64 reads an integer written by Writer.WriteUint64.
func (r *Reader) ReadUint64() (uint64, error) {
	neg, m, err := r.readCompact()
	if err != nil {
		return 0, err
	}
	if neg {
		return 0, base.CorruptionErrorf("negative unsigned integer -%d", errors.Safe(m))
	}
	return m, nil
}

func (r *Reader) readCompact() (neg bool, m uint64, err error) {
	nonZero, err := r.ReadBit()
	if err != nil || !nonZero {
		return false, 0, err
	}
	if neg, err = r.ReadBit(); err != nil {
		return false, 0, err
	}
	class, err := r.ReadBits(3)
	if err != nil {
		return false, 0, err
	}
	m, err = r.ReadBits(intWidths[class])
	return neg, m, err
}

// ReadDecimal reads a decimal written by Writer.WriteDecimal.
func (r *Reader) ReadDecimal() (decimal.Decimal, error) {
	var p Parts
	var err error
	if p.Neg, err = r.ReadBit(); err != nil {
		return decimal.Decimal{}, err
	}
	scale, err := r.ReadBits(5)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if scale > MaxScale {
		return decimal.Decimal{}, base.CorruptionErrorf("decimal scale %d exceeds %d", errors.Safe(scale), errors.Safe(MaxScale))
	}
	p.Scale = uint8(scale)
	n, err := r.ReadBits(7)
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch {
	case n > 96:
		return decimal.Decimal{}, base.CorruptionErrorf("decimal magnitude of %d bits", errors.Safe(n))
	case n > 64:
		if p.Lo, err = r.ReadBits(64); err != nil {
			return decimal.Decimal{}, err
		}
		if p.Hi, err = r.ReadBits(int(n) - 64); err != nil {
			return decimal.Decimal{}, err
		}
	default:
		if p.Lo, err = r.ReadBits(int(n)); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return Join(p), nil
}
