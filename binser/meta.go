// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"maps"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
)

// Meta is implemented by the header type of every entity codec.
type Meta interface {
	// Info returns the header fields shared by every entity.
	Info() *MetaInfo
	// headerLayout returns the full header layout, starting with the base
	// fields, bound to this header.
	headerLayout() Layout[*headerIO]
	// copyFrom overwrites the receiver with a deep copy of other, which has
	// the receiver's concrete type.
	copyFrom(other Meta)
	// rewind resets every running anchor to its first value.
	rewind()
}

// MetaInfo is the part of a day blob header shared by every entity: the
// format version, the record count and the anchors of the common field
// codecs. Each anchor comes as a First/Last pair: the writer continues from
// Last when appending, and readers replay the stream starting from First.
type MetaInfo struct {
	Version Version
	Count   int
	// Date is the trading day of the blob. It is not persisted.
	Date time.Time

	PriceStep  decimal.Decimal
	VolumeStep decimal.Decimal

	// FirstTime and LastTime are the stored readings (see
	// fieldcodec.StoredTicks) of the first and last record.
	FirstTime, LastTime int64

	// LocalOffset is the UTC offset of the wall clock used by legacy
	// non-UTC versions when the board's time zone is unknown.
	LocalOffset time.Duration
	// ServerOffset is the offset UTC instants are presented in when record
	// offsets are not stored.
	ServerOffset time.Duration

	FirstPrice, LastPrice                       decimal.Decimal
	FirstFractionalPrice, LastFractionalPrice   decimal.Decimal
	FirstFractionalVolume, LastFractionalVolume decimal.Decimal
	FirstNonAdjustedStep, LastNonAdjustedStep   decimal.Decimal
	FirstNonAdjustedPrice, LastNonAdjustedPrice decimal.Decimal

	FirstSeqNum, PrevSeqNum       int64
	FirstLocalTime, LastLocalTime int64

	FirstOffset, LastOffset           time.Duration
	FirstLocalOffset, LastLocalOffset time.Duration
}

// Info implements Meta.
func (m *MetaInfo) Info() *MetaInfo {
	return m
}

// rewindBase resets the shared running anchors to their first values.
func (m *MetaInfo) rewindBase() {
	m.LastTime = m.FirstTime
	m.LastPrice = m.FirstPrice
	m.LastFractionalPrice = m.FirstFractionalPrice
	m.LastFractionalVolume = m.FirstFractionalVolume
	m.LastNonAdjustedStep = m.FirstNonAdjustedStep
	m.LastNonAdjustedPrice = m.FirstNonAdjustedPrice
	m.PrevSeqNum = m.FirstSeqNum
	m.LastLocalTime = m.FirstLocalTime
	m.LastOffset = m.FirstOffset
	m.LastLocalOffset = m.FirstLocalOffset
}

// priceAnchor returns the running state of the shared price codec.
func (m *MetaInfo) priceAnchor() fieldcodec.PriceAnchor {
	return fieldcodec.PriceAnchor{
		Step:            m.PriceStep,
		Last:            m.LastPrice,
		Fraction:        m.LastFractionalPrice,
		NonAdjustedStep: m.LastNonAdjustedStep,
		NonAdjustedLast: m.LastNonAdjustedPrice,
	}
}

func (m *MetaInfo) setPriceAnchor(a fieldcodec.PriceAnchor) {
	m.LastPrice = a.Last
	m.LastFractionalPrice = a.Fraction
	m.LastNonAdjustedStep = a.NonAdjustedStep
	m.LastNonAdjustedPrice = a.NonAdjustedLast
}

// seedPrice initializes the price anchors of an empty blob from the first
// price of the first batch. Aligned prices seed the step anchor, others the
// fractional one when the header persists it at this version.
func (m *MetaInfo) seedPrice(p decimal.Decimal, fractionalSince Version) {
	if p.Abs().GreaterThan(fieldcodec.LargeDecimalThreshold) {
		return
	}
	if m.priceAnchor().Aligned(p) {
		m.FirstPrice, m.LastPrice = p, p
	} else if fractionalSince != 0 && m.Version >= fractionalSince {
		m.FirstFractionalPrice, m.LastFractionalPrice = p, p
	}
}

func (m *MetaInfo) seedTime(ticks int64) {
	m.FirstTime, m.LastTime = ticks, ticks
}

func (m *MetaInfo) seedSeqNum(seq int64) {
	m.FirstSeqNum, m.PrevSeqNum = seq, seq
}

func (m *MetaInfo) seedServerOffset(t time.Time) {
	_, sec := t.Zone()
	m.ServerOffset = time.Duration(sec) * time.Second
}

// baseLayout returns the header fields shared by every entity. Entities append
// their own gates after the extension block.
func (m *MetaInfo) baseLayout() Layout[*headerIO] {
	return Layout[*headerIO]{
		field("count", Version31, func(h *headerIO) { h.count(&m.Count) }),
		field("price step", Version31, func(h *headerIO) { h.dec(&m.PriceStep) }),
		fieldUntil("reserved", Version31, Version40, func(h *headerIO) {
			var reserved decimal.Decimal
			h.dec(&reserved)
		}),
		field("first time", Version31, func(h *headerIO) { h.i64(&m.FirstTime) }),
		field("last time", Version31, func(h *headerIO) { h.i64(&m.LastTime) }),
		field("local offset", Version40, func(h *headerIO) { h.duration(&m.LocalOffset) }),
		{
			Name:  "extension",
			Since: Version40,
			Write: func(h *headerIO) error {
				var size int16
				h.i16(&size)
				return h.Err()
			},
			Read: func(h *headerIO) error {
				var size int16
				h.i16(&size)
				if h.err == nil && size < 0 {
					return base.CorruptionErrorf("negative header extension size %d", errors.Safe(size))
				}
				h.skip(int(size))
				return h.Err()
			},
		},
	}
}

func (m *MetaInfo) pricesGate(since Version) Gate[*headerIO] {
	g := field("prices", since, func(h *headerIO) {
		h.dec(&m.FirstPrice)
		h.dec(&m.LastPrice)
	})
	g.Reset = func() { m.FirstPrice, m.LastPrice = decimal.Decimal{}, decimal.Decimal{} }
	return g
}

func (m *MetaInfo) fractionalPricesGate(since Version) Gate[*headerIO] {
	g := field("fractional prices", since, func(h *headerIO) {
		h.dec(&m.FirstFractionalPrice)
		h.dec(&m.LastFractionalPrice)
	})
	g.Reset = func() {
		m.FirstFractionalPrice, m.LastFractionalPrice = decimal.Decimal{}, decimal.Decimal{}
	}
	return g
}

func (m *MetaInfo) fractionalVolumesGate(since Version) Gate[*headerIO] {
	g := field("fractional volumes", since, func(h *headerIO) {
		h.dec(&m.VolumeStep)
		h.dec(&m.FirstFractionalVolume)
		h.dec(&m.LastFractionalVolume)
	})
	g.Reset = func() {
		m.FirstFractionalVolume, m.LastFractionalVolume = decimal.Decimal{}, decimal.Decimal{}
	}
	return g
}

func (m *MetaInfo) nonAdjustedGate(since Version) Gate[*headerIO] {
	g := field("non-adjusted prices", since, func(h *headerIO) {
		h.dec(&m.FirstNonAdjustedStep)
		h.dec(&m.LastNonAdjustedStep)
		h.dec(&m.FirstNonAdjustedPrice)
		h.dec(&m.LastNonAdjustedPrice)
	})
	g.Reset = func() {
		m.FirstNonAdjustedStep, m.LastNonAdjustedStep = decimal.Decimal{}, decimal.Decimal{}
		m.FirstNonAdjustedPrice, m.LastNonAdjustedPrice = decimal.Decimal{}, decimal.Decimal{}
	}
	return g
}

func (m *MetaInfo) seqNumsGate(since Version) Gate[*headerIO] {
	g := field("sequence numbers", since, func(h *headerIO) {
		h.i64(&m.FirstSeqNum)
		h.i64(&m.PrevSeqNum)
	})
	g.Reset = func() { m.FirstSeqNum, m.PrevSeqNum = 0, 0 }
	return g
}

func (m *MetaInfo) localTimesGate(since Version) Gate[*headerIO] {
	g := field("local times", since, func(h *headerIO) {
		h.i64(&m.FirstLocalTime)
		h.i64(&m.LastLocalTime)
	})
	g.Reset = func() { m.FirstLocalTime, m.LastLocalTime = 0, 0 }
	return g
}

func (m *MetaInfo) offsetsGate(since Version) Gate[*headerIO] {
	g := field("offsets", since, func(h *headerIO) {
		h.duration(&m.FirstOffset)
		h.duration(&m.LastOffset)
		h.duration(&m.FirstLocalOffset)
		h.duration(&m.LastLocalOffset)
	})
	g.Reset = func() {
		m.FirstOffset, m.LastOffset = 0, 0
		m.FirstLocalOffset, m.LastLocalOffset = 0, 0
	}
	return g
}

func (m *MetaInfo) serverOffsetGate(since Version) Gate[*headerIO] {
	return field("server offset", since, func(h *headerIO) { h.duration(&m.ServerOffset) })
}

// idsGate persists an id anchor pair.
func idsGate(name string, since Version, first, last *int64) Gate[*headerIO] {
	g := field(name, since, func(h *headerIO) {
		h.i64(first)
		h.i64(last)
	})
	g.Reset = func() { *first, *last = 0, 0 }
	return g
}

// decimalsGate persists a decimal anchor pair.
func decimalsGate(name string, since Version, first, last *decimal.Decimal) Gate[*headerIO] {
	g := field(name, since, func(h *headerIO) {
		h.dec(first)
		h.dec(last)
	})
	g.Reset = func() { *first, *last = decimal.Decimal{}, decimal.Decimal{} }
	return g
}

// tableGate persists an interned string table.
func tableGate(name string, since Version, t **fieldcodec.StringTable) Gate[*headerIO] {
	g := field(name, since, func(h *headerIO) { h.table(t) })
	g.Reset = func() { *t = fieldcodec.NewStringTable() }
	return g
}

// fieldAnchors is a set of per-field decimal anchor pairs keyed by a field
// identifier.
type fieldAnchors[F ~int32] map[F]*[2]decimal.Decimal

func (a fieldAnchors[F]) clone() fieldAnchors[F] {
	c := make(fieldAnchors[F], len(a))
	for f, v := range a {
		pair := *v
		c[f] = &pair
	}
	return c
}

// last returns the running anchor of field f.
func (a fieldAnchors[F]) last(f F) *decimal.Decimal {
	p, ok := a[f]
	if !ok {
		p = &[2]decimal.Decimal{}
		a[f] = p
	}
	return &p[1]
}

func (a fieldAnchors[F]) seed(f F, d decimal.Decimal) {
	if _, ok := a[f]; !ok {
		a[f] = &[2]decimal.Decimal{d, d}
	}
}

func (a fieldAnchors[F]) rewind() {
	for _, p := range a {
		p[1] = p[0]
	}
}

// fieldAnchorsGate persists a field anchor set as a count followed by
// (field, first, last) triples in ascending field order.
func fieldAnchorsGate[F ~int32](name string, since Version, a *fieldAnchors[F]) Gate[*headerIO] {
	g := field(name, since, func(h *headerIO) {
		if !h.reading {
			fields := sortedKeys(*a)
			n := len(fields)
			h.count(&n)
			for _, f := range fields {
				id := int32(f)
				h.i32(&id)
				h.dec(&(*a)[f][0])
				h.dec(&(*a)[f][1])
			}
			return
		}
		var n int
		h.count(&n)
		if h.err == nil && n > maxTableLen {
			h.err = base.CorruptionErrorf("%d field anchors", errors.Safe(n))
		}
		m := make(fieldAnchors[F])
		for i := 0; i < n && h.err == nil; i++ {
			var id int32
			var pair [2]decimal.Decimal
			h.i32(&id)
			h.dec(&pair[0])
			h.dec(&pair[1])
			m[F(id)] = &pair
		}
		*a = m
	})
	g.Reset = func() { *a = make(fieldAnchors[F]) }
	return g
}

func sortedKeys[F ~int32, V any](m map[F]V) []F {
	return slices.Sorted(maps.Keys(m))
}
