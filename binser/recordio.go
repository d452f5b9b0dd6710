// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// recordIO is the direction-agnostic half of a record codec state. Exactly
// one of w and r is set. Every helper takes a pointer to a field: writing
// encodes the pointee, reading decodes into it. The first failure is recorded
// and every later call becomes a no-op.
type recordIO struct {
	w *bitstream.Writer
	r *bitstream.Reader
	m *MetaInfo
	v Version

	// times and locals are the layouts of the server and local time fields.
	times  fieldcodec.TimeOptions
	locals fieldcodec.TimeOptions

	err error
}

// Err implements errHolder.
func (s *recordIO) Err() error {
	return s.err
}

func (s *recordIO) reading() bool {
	return s.r != nil
}

func (s *recordIO) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// at returns true if the stream's version is at least v.
func (s *recordIO) at(v Version) bool {
	return s.v >= v
}

func (s *recordIO) bit(p *bool) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = s.r.ReadBit()
	default:
		s.w.WriteBit(*p)
	}
}

// flag writes cond and returns it, or reads and returns a bit.
func (s *recordIO) flag(cond bool) bool {
	s.bit(&cond)
	return cond && s.err == nil
}

func (s *recordIO) i32(p *int32) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = s.r.ReadInt32()
	default:
		s.w.WriteInt32(*p)
	}
}

func (s *recordIO) i64(p *int64) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = s.r.ReadInt64()
	default:
		s.w.WriteInt64(*p)
	}
}

// count persists a length bounded by limit.
func (s *recordIO) count(p *int, limit int) {
	if s.err != nil {
		return
	}
	if !s.reading() && (*p < 0 || *p > limit) {
		s.fail(base.RangeOverflowf("count %d exceeds %d", errors.Safe(*p), errors.Safe(limit)))
		return
	}
	n := int32(*p)
	s.i32(&n)
	if s.reading() && s.err == nil {
		if n < 0 || int(n) > limit {
			s.fail(base.CorruptionErrorf("count %d outside [0,%d]", errors.Safe(n), errors.Safe(limit)))
			return
		}
		*p = int(n)
	}
}

// enum persists a small enum in width bits.
func enum[E ~int8 | ~int16 | ~int32](s *recordIO, p *E, width int) {
	switch {
	case s.err != nil:
	case s.reading():
		var v uint64
		v, s.err = s.r.ReadBits(width)
		*p = E(v)
	default:
		if *p < 0 || uint64(*p) >= 1<<width {
			s.fail(base.UnsupportedValuef("enum value %d does not fit %d bits", errors.Safe(*p), errors.Safe(width)))
			return
		}
		s.w.WriteBits(uint64(*p), width)
	}
}

// raw persists an absolute decimal.
func (s *recordIO) raw(p *decimal.Decimal) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = s.r.ReadDecimal()
	default:
		s.fail(s.w.WriteDecimal(*p))
	}
}

func (s *recordIO) nullRaw(p *decimal.NullDecimal) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = fieldcodec.ReadNullableDecimal(s.r)
	default:
		s.fail(fieldcodec.WriteNullableDecimal(s.w, *p))
	}
}

// diff persists *p as a decimal diff from *anchor and advances the anchor.
func (s *recordIO) diff(p, anchor *decimal.Decimal) {
	var err error
	switch {
	case s.err != nil:
	case s.reading():
		*p, err = fieldcodec.ReadDecimalDiff(s.r, *anchor)
		if err == nil {
			*anchor = *p
		}
	default:
		*anchor, err = fieldcodec.WriteDecimalDiff(s.w, *p, *anchor)
	}
	s.fail(err)
}

// nullDiff is diff behind a presence bit.
func (s *recordIO) nullDiff(p *decimal.NullDecimal, anchor *decimal.Decimal) {
	if s.flag(p.Valid) {
		if s.reading() {
			p.Valid = true
		}
		s.diff(&p.Decimal, anchor)
	} else if s.reading() {
		*p = decimal.NullDecimal{}
	}
}

// id persists *p as a delta from *prev and advances it.
func (s *recordIO) id(p, prev *int64) {
	var err error
	switch {
	case s.err != nil:
	case s.reading():
		*p, err = fieldcodec.ReadID(s.r, *prev)
		*prev = *p
	default:
		*prev = fieldcodec.WriteID(s.w, *p, *prev)
	}
	s.fail(err)
}

func (s *recordIO) seqNum(p *int64) {
	s.id(p, &s.m.PrevSeqNum)
}

// priceWith persists a price against an explicit anchor.
func (s *recordIO) priceWith(p *decimal.Decimal, a *fieldcodec.PriceAnchor, extended bool, o fieldcodec.PriceOptions) {
	var err error
	switch {
	case s.err != nil:
	case s.reading() && extended:
		*p, *a, err = fieldcodec.ReadPriceEx(s.r, *a, o)
	case s.reading():
		*p, *a, err = fieldcodec.ReadPrice(s.r, *a, o)
	case extended:
		*a, err = fieldcodec.WritePriceEx(s.w, *p, *a, o)
	default:
		*a, err = fieldcodec.WritePrice(s.w, *p, *a, o)
	}
	s.fail(err)
}

// price persists a price against the shared price anchors.
func (s *recordIO) price(p *decimal.Decimal, extended bool, o fieldcodec.PriceOptions) {
	if s.err != nil {
		return
	}
	a := s.m.priceAnchor()
	s.priceWith(p, &a, extended, o)
	s.m.setPriceAnchor(a)
}

// volume persists a volume against the shared volume anchor.
func (s *recordIO) volume(p *decimal.Decimal, fractional bool) {
	a := fieldcodec.VolumeAnchor{Step: s.m.VolumeStep, Fraction: s.m.LastFractionalVolume}
	o := fieldcodec.VolumeOptions{Fractional: fractional}
	var err error
	switch {
	case s.err != nil:
		return
	case s.reading():
		*p, a, err = fieldcodec.ReadVolume(s.r, a, o)
	default:
		a, err = fieldcodec.WriteVolume(s.w, *p, a, o)
	}
	s.m.LastFractionalVolume = a.Fraction
	s.fail(err)
}

func (s *recordIO) timeWith(p *time.Time, ticks *int64, offset *time.Duration, o fieldcodec.TimeOptions) {
	a := fieldcodec.TimeAnchor{Ticks: *ticks, Offset: *offset}
	var err error
	switch {
	case s.err != nil:
		return
	case s.reading():
		*p, a, err = fieldcodec.ReadTime(s.r, a, o)
	default:
		a, err = fieldcodec.WriteTime(s.w, *p, a, o)
	}
	*ticks, *offset = a.Ticks, a.Offset
	s.fail(err)
}

// serverTime persists the server time of a record.
func (s *recordIO) serverTime(p *time.Time) {
	s.timeWith(p, &s.m.LastTime, &s.m.LastOffset, s.times)
}

// localTime persists the local receipt time of a record.
func (s *recordIO) localTime(p *time.Time) {
	s.timeWith(p, &s.m.LastLocalTime, &s.m.LastLocalOffset, s.locals)
}

// relTime persists a time that is absent when zero as a delta from the
// stored reading base.
func (s *recordIO) relTime(p *time.Time, base int64) {
	if !s.flag(!p.IsZero()) {
		if s.reading() {
			*p = time.Time{}
		}
		return
	}
	o := s.times
	o.NonOrdered, o.BigRange = true, true
	offset := s.m.LastOffset
	s.timeWith(p, &base, &offset, o)
}

// optTime persists a time that is absent when zero.
func (s *recordIO) optTime(p *time.Time) {
	if s.flag(!p.IsZero()) {
		s.rawTime(p)
	} else if s.reading() {
		*p = time.Time{}
	}
}

// rawTime persists the ticks of the UTC instant of *p and its UTC offset in
// minutes.
func (s *recordIO) rawTime(p *time.Time) {
	ticks := base.Ticks(base.TruncateTicks(*p, true))
	_, sec := p.Zone()
	mins := int32(sec / 60)
	s.i64(&ticks)
	s.i32(&mins)
	if s.reading() && s.err == nil {
		*p = base.FromTicks(ticks).In(base.Zone(time.Duration(mins) * time.Minute))
	}
}

// nullable persists a presence bit and, when *p is non-nil, the value fn
// persists.
func nullable[T any](s *recordIO, p **T, fn func(*T)) {
	if !s.flag(*p != nil) {
		if s.reading() {
			*p = nil
		}
		return
	}
	if s.reading() {
		*p = new(T)
	}
	fn(*p)
}

// required persists a value that older versions store without a presence
// bit. Writing a nil *p stores the zero value.
func required[T any](s *recordIO, p **T, fn func(*T)) {
	if s.reading() {
		*p = new(T)
		fn(*p)
		return
	}
	v := new(T)
	if *p != nil {
		*v = **p
	}
	fn(v)
}

func (s *recordIO) nullBool(p **bool) {
	nullable(s, p, s.bit)
}

func (s *recordIO) nullI32(p **int32) {
	nullable(s, p, s.i32)
}

func (s *recordIO) nullI64(p **int64) {
	nullable(s, p, s.i64)
}

func (s *recordIO) side(p *message.Side) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = fieldcodec.ReadSide(s.r)
	default:
		s.fail(fieldcodec.WriteSide(s.w, *p))
	}
}

func (s *recordIO) str(p *string) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = fieldcodec.ReadString(s.r)
	default:
		s.fail(fieldcodec.WriteString(s.w, *p))
	}
}

func (s *recordIO) interned(p *string, t *fieldcodec.StringTable) {
	switch {
	case s.err != nil:
	case s.reading():
		*p, s.err = fieldcodec.ReadInterned(s.r, t)
	default:
		if t.Len() == math.MaxInt32 {
			s.fail(base.RangeOverflowf("string table is full"))
			return
		}
		fieldcodec.WriteInterned(s.w, *p, t)
	}
}

func (s *recordIO) dataType(p **message.DataType) {
	nullable(s, p, func(dt *message.DataType) {
		switch {
		case s.err != nil:
		case s.reading():
			*dt, s.err = fieldcodec.ReadDataType(s.r)
		default:
			s.fail(fieldcodec.WriteDataType(s.w, *dt))
		}
	})
}

func (s *recordIO) currency(p *message.Currency) {
	v := int32(*p)
	present := s.flag(v != 0)
	if present {
		s.i32(&v)
	} else {
		v = 0
	}
	if s.reading() && s.err == nil {
		if v < math.MinInt16 || v > math.MaxInt16 {
			s.fail(base.CorruptionErrorf("currency %d", errors.Safe(v)))
			return
		}
		*p = message.Currency(v)
	}
}
