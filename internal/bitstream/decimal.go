// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitstream

import (
	"encoding/binary"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
)

// MaxScale is the largest number of fractional digits a raw decimal carries.
const MaxScale = 28

// DecimalSize is the size of the fixed 16-byte decimal layout used by
// headers.
const DecimalSize = 16

var (
	bigTen     = big.NewInt(10)
	max96      = new(big.Int).Lsh(big.NewInt(1), 96)
	mask64     = new(big.Int).SetUint64(^uint64(0))
	zeroScaled = decimal.Decimal{}
)

// Parts is the sign-magnitude decomposition of a raw decimal: the value is
// (-1)^Neg * (Hi<<64 | Lo) / 10^Scale. Hi never exceeds 32 bits.
type Parts struct {
	Lo, Hi uint64
	Scale  uint8
	Neg    bool
}

// Split decomposes d into its raw layout. Positive exponents are folded into
// the magnitude; scales above MaxScale are rounded when that is lossless.
func Split(d decimal.Decimal) (Parts, error) {
	exp := d.Exponent()
	coef := d.Coefficient()
	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(bigTen, big.NewInt(int64(exp)), nil))
		exp = 0
	}
	if -exp > MaxScale {
		r := d.Round(MaxScale)
		if !r.Equal(d) {
			return Parts{}, base.PrecisionLossf("decimal %s has more than %d fractional digits", d, MaxScale)
		}
		return Split(r)
	}
	p := Parts{Scale: uint8(-exp), Neg: coef.Sign() < 0}
	coef.Abs(coef)
	if coef.Cmp(max96) >= 0 {
		return Parts{}, base.RangeOverflowf("decimal %s does not fit 96 bits", d)
	}
	p.Lo = new(big.Int).And(coef, mask64).Uint64()
	p.Hi = coef.Rsh(coef, 64).Uint64()
	return p, nil
}

// Join is the inverse of Split.
func Join(p Parts) decimal.Decimal {
	if p.Lo == 0 && p.Hi == 0 {
		return decimal.New(0, -int32(p.Scale))
	}
	coef := new(big.Int).SetUint64(p.Hi)
	coef.Lsh(coef, 64)
	coef.Or(coef, new(big.Int).SetUint64(p.Lo))
	if p.Neg {
		coef.Neg(coef)
	}
	return decimal.NewFromBigInt(coef, -int32(p.Scale))
}

// AppendDecimal appends the 16-byte layout of d to dst: three little-endian
// 32-bit words of magnitude followed by a flags word holding the scale in
// bits 16-23 and the sign in bit 31.
func AppendDecimal(dst []byte, d decimal.Decimal) ([]byte, error) {
	p, err := Split(d)
	if err != nil {
		return dst, err
	}
	flags := uint32(p.Scale) << 16
	if p.Neg {
		flags |= 1 << 31
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Lo))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Lo>>32))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Hi))
	dst = binary.LittleEndian.AppendUint32(dst, flags)
	return dst, nil
}

// DecodeDecimal decodes the 16-byte layout written by AppendDecimal.
func DecodeDecimal(src []byte) (decimal.Decimal, error) {
	if len(src) < DecimalSize {
		return zeroScaled, base.EndOfStreamf("decimal needs %d bytes, %d remain", DecimalSize, len(src))
	}
	flags := binary.LittleEndian.Uint32(src[12:])
	scale := uint8(flags >> 16)
	if scale > MaxScale || flags&0x7f00ffff != 0 {
		return zeroScaled, base.CorruptionErrorf("invalid decimal flags %#x", flags)
	}
	return Join(Parts{
		Lo:    uint64(binary.LittleEndian.Uint32(src)) | uint64(binary.LittleEndian.Uint32(src[4:]))<<32,
		Hi:    uint64(binary.LittleEndian.Uint32(src[8:])),
		Scale: scale,
		Neg:   flags&(1<<31) != 0,
	}), nil
}
