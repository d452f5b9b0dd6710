// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/message"
)

// maxStringLen bounds the length of inline strings.
const maxStringLen = 1 << 20

// WriteID writes id as a signed 64-bit delta from prev.
func WriteID(w *bitstream.Writer, id, prev int64) int64 {
	w.WriteInt64(id - prev)
	return id
}

// ReadID reads an id written by WriteID.
func ReadID(r *bitstream.Reader, prev int64) (int64, error) {
	d, err := r.ReadInt64()
	if err != nil {
		return prev, err
	}
	return prev + d, nil
}

// WriteNullable writes a presence bit and, when v is non-nil, its payload.
func WriteNullable[T any](w *bitstream.Writer, v *T, fn func(*bitstream.Writer, T) error) error {
	w.WriteBit(v != nil)
	if v == nil {
		return nil
	}
	return fn(w, *v)
}

// ReadNullable reads a value written by WriteNullable.
func ReadNullable[T any](r *bitstream.Reader, fn func(*bitstream.Reader) (T, error)) (*T, error) {
	present, err := r.ReadBit()
	if err != nil || !present {
		return nil, err
	}
	v, err := fn(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteNullableDecimal writes a presence bit and, when d is valid, d as a
// raw decimal.
func WriteNullableDecimal(w *bitstream.Writer, d decimal.NullDecimal) error {
	w.WriteBit(d.Valid)
	if !d.Valid {
		return nil
	}
	return w.WriteDecimal(d.Decimal)
}

// ReadNullableDecimal reads a value written by WriteNullableDecimal.
func ReadNullableDecimal(r *bitstream.Reader) (decimal.NullDecimal, error) {
	present, err := r.ReadBit()
	if err != nil || !present {
		return decimal.NullDecimal{}, err
	}
	d, err := r.ReadDecimal()
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// WriteSide writes a presence bit and, for a known side, a buy bit.
func WriteSide(w *bitstream.Writer, s message.Side) error {
	switch s {
	case message.SideNone:
		w.WriteBit(false)
	case message.Buy, message.Sell:
		w.WriteBit(true)
		w.WriteBit(s == message.Buy)
	default:
		return base.UnsupportedValuef("side %d", errors.Safe(s))
	}
	return nil
}

// ReadSide reads a side written by WriteSide.
func ReadSide(r *bitstream.Reader) (message.Side, error) {
	present, err := r.ReadBit()
	if err != nil || !present {
		return message.SideNone, err
	}
	buy, err := r.ReadBit()
	if err != nil {
		return message.SideNone, err
	}
	if buy {
		return message.Buy, nil
	}
	return message.Sell, nil
}

// WriteString writes a presence bit and, for a non-empty s, its length and
// bytes.
func WriteString(w *bitstream.Writer, s string) error {
	w.WriteBit(s != "")
	if s == "" {
		return nil
	}
	if len(s) > maxStringLen {
		return base.RangeOverflowf("string of %d bytes", errors.Safe(len(s)))
	}
	if !utf8.ValidString(s) {
		return base.UnsupportedValuef("string %q is not valid UTF-8", s)
	}
	w.WriteInt32(int32(len(s)))
	for i := 0; i < len(s); i++ {
		w.WriteBits(uint64(s[i]), 8)
	}
	return nil
}

// ReadString reads a string written by WriteString.
func ReadString(r *bitstream.Reader) (string, error) {
	present, err := r.ReadBit()
	if err != nil || !present {
		return "", err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if n <= 0 || n > maxStringLen || int(n)*8 > r.Remaining() {
		return "", base.CorruptionErrorf("string of %d bytes", errors.Safe(n))
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.ReadBits(8)
		if err != nil {
			return "", err
		}
		buf[i] = byte(b)
	}
	if !utf8.Valid(buf) {
		return "", base.CorruptionErrorf("string is not valid UTF-8")
	}
	return string(buf), nil
}
