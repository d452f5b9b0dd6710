// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitstream

import (
	"math/bits"

	"github.com/shopspring/decimal"
)

// intWidths are the magnitude widths selectable by the 3-bit width class of a
// compact integer.
var intWidths = [8]int{4, 8, 12, 16, 24, 32, 48, 64}

// Writer appends bits to an in-memory buffer.
type Writer struct {
	buf []byte
	n   int
}

// NewWriter returns a Writer with an empty buffer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bits written so far.
func (w *Writer) Len() int {
	return w.n
}

// Bytes returns the written bits. The final byte is zero padded.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reset truncates the writer to an empty stream, retaining its buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.n = 0
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(b bool) {
	var v uint64
	if b {
		v = 1
	}
	w.WriteBits(v, 1)
}

// WriteBits writes the low width bits of v. Width must be in [0, 64].
func (w *Writer) WriteBits(v uint64, width int) {
	if width < 64 {
		v &= 1<<uint(width) - 1
	}
	for width > 0 {
		idx, off := w.n/8, w.n%8
		if idx == len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		k := min(8-off, width)
		w.buf[idx] |= byte(v&(1<<uint(k)-1)) << uint(off)
		v >>= uint(k)
		width -= k
		w.n += k
	}
}

// WriteInt32 writes v using the compact integer layout.
func (w *Writer) WriteInt32(v int32) {
	w.WriteInt64(int64(v))
}

// WriteInt64 writes v using the compact integer layout.
func (w *Writer) WriteInt64(v int64) {
	if v == 0 {
		w.WriteBit(false)
		return
	}
	w.WriteBit(true)
	var m uint64
	if v < 0 {
		w.WriteBit(true)
		m = uint64(-(v + 1)) + 1
	} else {
		w.WriteBit(false)
		m = uint64(v)
	}
	w.writeMagnitude(m)
}

// WriteUint64 writes v using the compact integer layout with a clear sign
// bit.
func (w *Writer) WriteUint64(v uint64) {
	if v == 0 {
		w.WriteBit(false)
		return
	}
	w.WriteBit(true)
	w.WriteBit(false)
	w.writeMagnitude(v)
}

func (w *Writer) writeMagnitude(m uint64) {
	n := bits.Len64(m)
	class := 0
	for intWidths[class] < n {
		class++
	}
	w.WriteBits(uint64(class), 3)
	w.WriteBits(m, intWidths[class])
}

// WriteDecimal writes d as a raw decimal. It fails with ErrRangeOverflow when
// the magnitude needs more than 96 bits and with ErrPrecisionLoss when the
// scale cannot be reduced to 28 digits without rounding.
func (w *Writer) WriteDecimal(d decimal.Decimal) error {
	p, err := Split(d)
	if err != nil {
		return err
	}
	w.WriteBit(p.Neg)
	w.WriteBits(uint64(p.Scale), 5)
	n := bits.Len64(p.Hi)
	if n > 0 {
		n += 64
	} else {
		n = bits.Len64(p.Lo)
	}
	w.WriteBits(uint64(n), 7)
	if n > 64 {
		w.WriteBits(p.Lo, 64)
		w.WriteBits(p.Hi, n-64)
	} else {
		w.WriteBits(p.Lo, n)
	}
	return nil
}

// AlignToByte pads the stream with zero bits up to the next byte boundary.
func (w *Writer) AlignToByte() {
	if r := w.n % 8; r != 0 {
		w.n += 8 - r
	}
}
