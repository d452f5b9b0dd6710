// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitstream

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/internal/base"
	"golang.org/x/exp/rand"
)

func TestBits(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.WriteBits(0x15, 5)
	w.WriteBits(math.MaxUint64, 64)
	w.WriteBits(0, 0)
	w.WriteBits(0x3ff, 3)
	require.Equal(t, 73, w.Len())

	r := NewReader(w.Bytes())
	b, err := r.ReadBit()
	require.NoError(t, err)
	require.True(t, b)
	v, err := r.ReadBits(5)
	require.NoError(t, err)
	require.Equal(t, uint64(0x15), v)
	v, err = r.ReadBits(64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)
	v, err = r.ReadBits(3)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	// The padding of the last byte is readable; past it is not.
	_, err = r.ReadBits(7)
	require.NoError(t, err)
	_, err = r.ReadBit()
	require.True(t, errors.Is(err, base.ErrEndOfStream), "%v", err)
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestInts(t *testing.T) {
	values := []int64{0, 1, -1, 15, 16, -16, 255, 256, math.MaxInt32, math.MinInt32,
		math.MaxInt32 + 1, math.MaxInt64, math.MinInt64, math.MinInt64 + 1}
	w := NewWriter()
	for _, v := range values {
		w.WriteInt64(v)
	}
	r := NewReader(w.Bytes())
	for _, v := range values {
		got, err := r.ReadInt64()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	w.Reset()
	w.WriteInt64(math.MaxInt32 + 1)
	_, err := NewReader(w.Bytes()).ReadInt32()
	require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)

	// Zero costs a single bit.
	w.Reset()
	w.WriteInt32(0)
	require.Equal(t, 1, w.Len())
}

func TestIntsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(uint64(1)))
	values := make([]int64, 1000)
	w := NewWriter()
	for i := range values {
		values[i] = int64(rng.Uint64()) >> uint(rng.Intn(64))
		w.WriteInt64(values[i])
		if i%7 == 0 {
			w.WriteBit(i%2 == 0)
		}
	}
	r := NewReader(w.Bytes())
	for i, v := range values {
		got, err := r.ReadInt64()
		require.NoError(t, err)
		require.Equal(t, v, got, "value %d", i)
		if i%7 == 0 {
			b, err := r.ReadBit()
			require.NoError(t, err)
			require.Equal(t, i%2 == 0, b)
		}
	}
}

func TestDecimal(t *testing.T) {
	for _, s := range []string{
		"0", "1", "-1", "10.05", "0.0000000000000000000000000001",
		"79228162514264337593543950335", "-79228162514264337593543950335",
		"7.9228162514264337593543950335", "1e20", "123.4500",
	} {
		d := decimal.RequireFromString(s)
		w := NewWriter()
		w.WriteBit(true)
		require.NoError(t, w.WriteDecimal(d))
		r := NewReader(w.Bytes())
		_, err := r.ReadBit()
		require.NoError(t, err)
		got, err := r.ReadDecimal()
		require.NoError(t, err)
		require.True(t, d.Equal(got), "%s != %s", d, got)

		buf, err := AppendDecimal(nil, d)
		require.NoError(t, err)
		require.Len(t, buf, DecimalSize)
		got, err = DecodeDecimal(buf)
		require.NoError(t, err)
		require.True(t, d.Equal(got), "%s != %s", d, got)
	}

	// Scale is preserved.
	buf, err := AppendDecimal(nil, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	got, err := DecodeDecimal(buf)
	require.NoError(t, err)
	require.Equal(t, int32(-2), got.Exponent())
}

func TestDecimalLimits(t *testing.T) {
	w := NewWriter()
	err := w.WriteDecimal(decimal.RequireFromString("79228162514264337593543950336"))
	require.True(t, errors.Is(err, base.ErrRangeOverflow), "%v", err)

	err = w.WriteDecimal(decimal.RequireFromString("0.00000000000000000000000000001"))
	require.True(t, errors.Is(err, base.ErrPrecisionLoss), "%v", err)

	// Trailing zeros beyond the maximum scale are dropped.
	require.NoError(t, w.WriteDecimal(decimal.RequireFromString("1.00000000000000000000000000000000")))
	got, err := NewReader(w.Bytes()).ReadDecimal()
	require.NoError(t, err)
	require.Equal(t, "1", got.String())
}

func TestAlign(t *testing.T) {
	w := NewWriter()
	w.WriteBits(5, 3)
	w.AlignToByte()
	w.WriteBits(0xab, 8)
	w.AlignToByte()
	require.Equal(t, []byte{5, 0xab}, w.Bytes())

	r := NewReader(w.Bytes())
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	r.AlignToByte()
	v, err := r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xab), v)
	require.Equal(t, 0, r.Remaining())
}
