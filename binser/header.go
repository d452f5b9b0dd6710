// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"encoding/binary"
	"math"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/internal/fieldcodec"
)

// maxTableLen bounds the number of strings in a persisted string table.
const maxTableLen = 1 << 20

// headerIO reads or writes the byte-aligned header of a day blob. Integers are
// little-endian, decimals use the 16-byte raw layout, times are int64 ticks
// and durations int64 ticks. Like the record state, it records the first
// failure and ignores every later call.
type headerIO struct {
	reading bool
	buf     []byte
	data    []byte
	off     int
	err     error
}

func newHeaderWriter() *headerIO {
	return &headerIO{}
}

func newHeaderReader(data []byte) *headerIO {
	return &headerIO{reading: true, data: data}
}

// Err implements errHolder.
func (h *headerIO) Err() error {
	return h.err
}

func (h *headerIO) take(n int) []byte {
	if h.err != nil {
		return nil
	}
	if n < 0 || h.off+n > len(h.data) {
		h.err = base.EndOfStreamf("header needs %d bytes at offset %d, has %d",
			errors.Safe(n), errors.Safe(h.off), errors.Safe(len(h.data)))
		return nil
	}
	b := h.data[h.off : h.off+n]
	h.off += n
	return b
}

func (h *headerIO) u8(p *uint8) {
	switch {
	case h.err != nil:
	case h.reading:
		if b := h.take(1); b != nil {
			*p = b[0]
		}
	default:
		h.buf = append(h.buf, *p)
	}
}

func (h *headerIO) i16(p *int16) {
	switch {
	case h.err != nil:
	case h.reading:
		if b := h.take(2); b != nil {
			*p = int16(binary.LittleEndian.Uint16(b))
		}
	default:
		h.buf = binary.LittleEndian.AppendUint16(h.buf, uint16(*p))
	}
}

func (h *headerIO) i32(p *int32) {
	switch {
	case h.err != nil:
	case h.reading:
		if b := h.take(4); b != nil {
			*p = int32(binary.LittleEndian.Uint32(b))
		}
	default:
		h.buf = binary.LittleEndian.AppendUint32(h.buf, uint32(*p))
	}
}

func (h *headerIO) i64(p *int64) {
	switch {
	case h.err != nil:
	case h.reading:
		if b := h.take(8); b != nil {
			*p = int64(binary.LittleEndian.Uint64(b))
		}
	default:
		h.buf = binary.LittleEndian.AppendUint64(h.buf, uint64(*p))
	}
}

// count persists a non-negative int as an int32.
func (h *headerIO) count(p *int) {
	if h.err != nil {
		return
	}
	if !h.reading && (*p < 0 || *p > math.MaxInt32) {
		h.err = base.RangeOverflowf("count %d", errors.Safe(*p))
		return
	}
	v := int32(*p)
	h.i32(&v)
	if h.reading && h.err == nil {
		if v < 0 {
			h.err = base.CorruptionErrorf("negative count %d", errors.Safe(v))
			return
		}
		*p = int(v)
	}
}

func (h *headerIO) boolean(p *bool) {
	var b uint8
	if *p {
		b = 1
	}
	h.u8(&b)
	if h.reading && h.err == nil {
		if b > 1 {
			h.err = base.CorruptionErrorf("boolean byte %d", errors.Safe(b))
			return
		}
		*p = b == 1
	}
}

func (h *headerIO) dec(p *decimal.Decimal) {
	switch {
	case h.err != nil:
	case h.reading:
		if b := h.take(bitstream.DecimalSize); b != nil {
			*p, h.err = bitstream.DecodeDecimal(b)
		}
	default:
		h.buf, h.err = bitstream.AppendDecimal(h.buf, *p)
	}
}

func (h *headerIO) duration(p *time.Duration) {
	ticks := base.DurationTicks(*p)
	h.i64(&ticks)
	if h.reading && h.err == nil {
		*p = base.TicksDuration(ticks)
	}
}

// str persists a string as its uvarint length followed by its UTF-8 bytes.
func (h *headerIO) str(p *string) {
	switch {
	case h.err != nil:
	case h.reading:
		n, w := binary.Uvarint(h.data[h.off:])
		if w <= 0 {
			h.err = base.CorruptionErrorf("invalid string length at offset %d", errors.Safe(h.off))
			return
		}
		h.off += w
		if b := h.take(int(min(n, math.MaxInt32))); b != nil {
			if !utf8.Valid(b) {
				h.err = base.CorruptionErrorf("string at offset %d is not valid UTF-8", errors.Safe(h.off))
				return
			}
			*p = string(b)
		}
	default:
		h.buf = binary.AppendUvarint(h.buf, uint64(len(*p)))
		h.buf = append(h.buf, *p...)
	}
}

func (h *headerIO) table(p **fieldcodec.StringTable) {
	if h.err != nil {
		return
	}
	if !h.reading {
		n := int32((*p).Len())
		h.i32(&n)
		for _, s := range (*p).Values() {
			h.str(&s)
		}
		return
	}
	var n int32
	h.i32(&n)
	if h.err != nil {
		return
	}
	if n < 0 || n > maxTableLen {
		h.err = base.CorruptionErrorf("string table of %d entries", errors.Safe(n))
		return
	}
	values := make([]string, n)
	for i := range values {
		h.str(&values[i])
	}
	if h.err != nil {
		return
	}
	t := fieldcodec.NewStringTable(values...)
	if t.Len() != len(values) {
		h.err = base.CorruptionErrorf("string table has duplicate entries")
		return
	}
	*p = t
}

// skip reads and discards n bytes, or writes n zero bytes.
func (h *headerIO) skip(n int) {
	switch {
	case h.err != nil:
	case h.reading:
		h.take(n)
	default:
		h.buf = append(h.buf, make([]byte, n)...)
	}
}
