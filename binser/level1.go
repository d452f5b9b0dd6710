// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// maxLevel1Changes bounds the number of field changes in one record.
const maxLevel1Changes = 1 << 10

// maxLevel1Field is the newest field this package knows the encoding of.
const maxLevel1Field = message.L1Duration

// level1Kind selects the encoding of a field's value.
type level1Kind int8

const (
	l1Unknown level1Kind = iota
	// l1Price values use the shared price anchor.
	l1Price
	// l1Decimal values are diffs against a per-field anchor.
	l1Decimal
	l1Int32
	l1Int64
	// l1Time values are deltas against the shared field time anchor.
	l1Time
	l1Bool
	l1Side
)

var level1Kinds = func() map[message.Level1Field]level1Kind {
	m := make(map[message.Level1Field]level1Kind, maxLevel1Field)
	for f := message.L1OpenPrice; f <= maxLevel1Field; f++ {
		m[f] = l1Decimal
	}
	for _, f := range []message.Level1Field{
		message.L1OpenPrice, message.L1HighPrice, message.L1LowPrice, message.L1ClosePrice,
		message.L1BestBidPrice, message.L1BestAskPrice, message.L1LastTradePrice,
		message.L1MinPrice, message.L1MaxPrice, message.L1HighBidPrice, message.L1LowAskPrice,
	} {
		m[f] = l1Price
	}
	for _, f := range []message.Level1Field{
		message.L1BidsCount, message.L1AsksCount, message.L1TradesCount, message.L1State,
	} {
		m[f] = l1Int32
	}
	m[message.L1LastTradeID] = l1Int64
	m[message.L1LastTradeTime] = l1Time
	m[message.L1BestBidTime] = l1Time
	m[message.L1BestAskTime] = l1Time
	m[message.L1LastTradeUpDown] = l1Bool
	m[message.L1LastTradeOrigin] = l1Side
	return m
}()

// legacyLevel1Fields lists the fields of format versions before 4.5, which
// identify a field by a single-bit code: the field at index i has code 1<<i.
var legacyLevel1Fields = [...]message.Level1Field{
	message.L1OpenPrice,
	message.L1HighPrice,
	message.L1LowPrice,
	message.L1ClosePrice,
	message.L1StepPrice,
	message.L1BestBidPrice,
	message.L1BestBidVolume,
	message.L1BestAskPrice,
	message.L1BestAskVolume,
	message.L1ImpliedVolatility,
	message.L1TheorPrice,
	message.L1OpenInterest,
	message.L1MinPrice,
	message.L1MaxPrice,
	message.L1BidsVolume,
	message.L1BidsCount,
	message.L1AsksVolume,
	message.L1AsksCount,
	message.L1HistoricalVolatility,
	message.L1Delta,
	message.L1Gamma,
	message.L1Vega,
	message.L1Theta,
	message.L1MarginBuy,
	message.L1MarginSell,
	message.L1LastTradePrice,
}

var legacyLevel1Codes, legacyLevel1ByCode = func() (map[message.Level1Field]int64, map[int64]message.Level1Field) {
	codes := make(map[message.Level1Field]int64, len(legacyLevel1Fields))
	fields := make(map[int64]message.Level1Field, len(legacyLevel1Fields))
	for i, f := range legacyLevel1Fields {
		codes[f] = 1 << i
		fields[1<<i] = f
	}
	return codes, fields
}()

// Wire tags of fields newer than the blob's MaxKnownField.
const (
	level1TagDecimal int32 = 0
	level1TagInt64   int32 = 1
	level1TagInt32   int32 = 2
	level1TagNone    int32 = 10
)

// Level1Meta is the header of a level 1 day blob.
type Level1Meta struct {
	MetaInfo
	// Anchors holds the running value of every decimal field.
	Anchors fieldAnchors[message.Level1Field]
	// FirstFieldTime and LastFieldTime anchor the time-valued fields.
	FirstFieldTime, LastFieldTime int64
	// MaxKnownField is the newest field known to the blob's writer. Newer
	// fields are written with a type tag.
	MaxKnownField message.Level1Field
}

var _ Meta = (*Level1Meta)(nil)

func newLevel1Meta() *Level1Meta {
	return &Level1Meta{Anchors: make(fieldAnchors[message.Level1Field])}
}

func (m *Level1Meta) copyFrom(other Meta) {
	o := other.(*Level1Meta)
	*m = *o
	m.Anchors = o.Anchors.clone()
}

func (m *Level1Meta) rewind() {
	m.rewindBase()
	m.Anchors.rewind()
	m.LastFieldTime = m.FirstFieldTime
}

func (m *Level1Meta) headerLayout() Layout[*headerIO] {
	maxKnown := field("max known field", Version58, func(h *headerIO) {
		id := int32(m.MaxKnownField)
		h.i32(&id)
		m.MaxKnownField = message.Level1Field(id)
	})
	maxKnown.Reset = func() { m.MaxKnownField = 0 }
	return append(m.baseLayout(),
		m.pricesGate(Version40),
		m.fractionalPricesGate(Version47),
		fieldAnchorsGate("field anchors", Version47, &m.Anchors),
		idsGate("field times", Version47, &m.FirstFieldTime, &m.LastFieldTime),
		m.localTimesGate(Version52),
		m.serverOffsetGate(Version53),
		m.offsetsGate(Version54),
		m.seqNumsGate(Version56),
		maxKnown,
		m.nonAdjustedGate(Version59),
	)
}

type level1State = state[message.Level1Change, *Level1Meta]

var level1Codec = &codec[message.Level1Change, *Level1Meta]{
	name:    "level1",
	min:     Version40,
	max:     Version60,
	newMeta: newLevel1Meta,
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    v >= Version50,
			UTC:           v >= Version53,
			DiffOffsets:   v >= Version54,
			TickPrecision: v >= Version55,
			BigRange:      v >= Version55,
		}
	},
	serverOffset: Version53,
	seed:         seedLevel1,
	validate:     validateLevel1,
	layout: Layout[*level1State]{
		field("server time", Version40, func(st *level1State) { st.serverTime(&st.rec.ServerTime) }),
		field("changes", Version40, level1Changes),
		field("local time", Version49, func(st *level1State) { st.localTime(&st.rec.LocalTime) }),
		field("sequence number", Version56, func(st *level1State) { st.seqNum(&st.rec.SeqNum) }),
	},
}

func seedLevel1(st *level1State, recs []message.Level1Change) {
	r := &recs[0]
	m := st.meta
	m.MaxKnownField = maxLevel1Field
	st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
	st.seedTimes(r.ServerTime, r.LocalTime)
	st.m.seedSeqNum(r.SeqNum)
	pricesSeeded, timesSeeded := false, false
	for _, f := range r.Fields() {
		switch v := r.Changes[f]; level1Kinds[f] {
		case l1Price:
			if !pricesSeeded {
				st.m.seedPrice(v.(decimal.Decimal), Version47)
				pricesSeeded = true
			}
		case l1Decimal:
			m.Anchors.seed(f, v.(decimal.Decimal))
		case l1Time:
			if !timesSeeded {
				o := st.times
				o.NonOrdered, o.BigRange = true, true
				ticks := fieldcodec.StoredTicks(v.(time.Time), o)
				m.FirstFieldTime, m.LastFieldTime = ticks, ticks
				timesSeeded = true
			}
		}
	}
}

func validateLevel1(v Version, c *message.Level1Change) error {
	if v < Version49 && len(c.Changes) != 1 {
		return base.UnsupportedValuef("level1 record at %s has %d changes, format %s stores exactly one",
			c.ServerTime, errors.Safe(len(c.Changes)), v)
	}
	if len(c.Changes) > maxLevel1Changes {
		return base.RangeOverflowf("level1 record at %s has %d changes", c.ServerTime, errors.Safe(len(c.Changes)))
	}
	for f, val := range c.Changes {
		if v < Version45 {
			if _, ok := legacyLevel1Codes[f]; !ok {
				return base.UnknownFieldf("level1 field %s has no code in format %s", f, v)
			}
		}
		kind, ok := level1Kinds[f]
		if !ok {
			if v < Version58 {
				return base.UnknownFieldf("level1 field %s", f)
			}
			continue
		}
		if !level1ValueMatches(kind, val) {
			return base.UnsupportedValuef("level1 field %s has value of type %T", f, errors.Safe(val))
		}
	}
	return nil
}

func level1ValueMatches(kind level1Kind, v any) bool {
	switch v.(type) {
	case decimal.Decimal:
		return kind == l1Price || kind == l1Decimal
	case int32:
		return kind == l1Int32
	case int64:
		return kind == l1Int64
	case time.Time:
		return kind == l1Time
	case bool:
		return kind == l1Bool
	case message.Side:
		return kind == l1Side
	default:
		return false
	}
}

func level1Changes(st *level1State) {
	c := st.rec
	if !st.at(Version49) {
		var f message.Level1Field
		var v any
		for f, v = range c.Changes {
		}
		level1Change(st, &f, &v)
		if st.reading() && st.Err() == nil {
			c.Changes = map[message.Level1Field]any{f: v}
		}
		return
	}
	var fields []message.Level1Field
	if !st.reading() {
		fields = c.Fields()
	}
	n := len(fields)
	st.count(&n, maxLevel1Changes)
	if st.Err() != nil {
		return
	}
	if st.reading() {
		fields = make([]message.Level1Field, n)
		c.Changes = make(map[message.Level1Field]any, n)
	}
	for _, f := range fields {
		v := c.Changes[f]
		level1Change(st, &f, &v)
		if !st.reading() || st.Err() != nil {
			continue
		}
		if _, dup := c.Changes[f]; dup {
			st.fail(base.CorruptionErrorf("level1 field %s repeated", f))
			return
		}
		if v != nil {
			c.Changes[f] = v
		}
	}
}

// level1Change persists one field identifier and its value.
func level1Change(st *level1State, f *message.Level1Field, v *any) {
	level1FieldID(st, f)
	if st.Err() != nil {
		return
	}
	maxKnown := maxLevel1Field
	if st.at(Version58) {
		maxKnown = st.meta.MaxKnownField
	}
	if *f > maxKnown {
		level1Tagged(st, v)
		return
	}
	switch level1Kinds[*f] {
	case l1Price:
		anyValue(&st.recordIO, v, func(p *decimal.Decimal) { level1Price(st, p) })
	case l1Decimal:
		anyValue(&st.recordIO, v, func(p *decimal.Decimal) { st.diff(p, st.meta.Anchors.last(*f)) })
	case l1Int32:
		anyValue(&st.recordIO, v, st.i32)
	case l1Int64:
		anyValue(&st.recordIO, v, st.i64)
	case l1Time:
		anyValue(&st.recordIO, v, func(p *time.Time) { level1Time(st, p) })
	case l1Bool:
		anyValue(&st.recordIO, v, st.bit)
	case l1Side:
		anyValue(&st.recordIO, v, st.side)
	default:
		st.fail(base.UnknownFieldf("level1 field %s", *f))
	}
}

func level1FieldID(st *level1State, f *message.Level1Field) {
	if st.at(Version45) {
		id := int32(*f)
		st.i32(&id)
		*f = message.Level1Field(id)
		return
	}
	var code int64
	if !st.reading() {
		var ok bool
		if code, ok = legacyLevel1Codes[*f]; !ok {
			st.fail(base.UnknownFieldf("level1 field %s has no legacy code", *f))
			return
		}
	}
	st.i64(&code)
	if st.reading() && st.Err() == nil {
		var ok bool
		if *f, ok = legacyLevel1ByCode[code]; !ok {
			st.fail(base.UnknownFieldf("legacy level1 code %d", errors.Safe(code)))
		}
	}
}

func level1Price(st *level1State, p *decimal.Decimal) {
	if st.at(Version59) {
		st.price(p, false, fieldcodec.PriceOptions{NonAdjusted: true, UseLong: st.at(Version60)})
		return
	}
	st.price(p, st.at(Version47), fieldcodec.PriceOptions{})
}

func level1Time(st *level1State, p *time.Time) {
	if !st.at(Version46) {
		ticks := base.Ticks(base.TruncateTicks(*p, true))
		st.i64(&ticks)
		if st.reading() {
			*p = base.FromTicks(ticks)
		}
		return
	}
	o := st.times
	o.NonOrdered, o.BigRange = true, true
	offset := st.m.LastOffset
	st.timeWith(p, &st.meta.LastFieldTime, &offset, o)
}

// level1Tagged persists the value of a field unknown to the blob's writer.
// Values of types without a tag are dropped.
func level1Tagged(st *level1State, v *any) {
	tag := level1TagNone
	if !st.reading() {
		switch (*v).(type) {
		case decimal.Decimal:
			tag = level1TagDecimal
		case int64:
			tag = level1TagInt64
		case int32:
			tag = level1TagInt32
		}
	}
	st.i32(&tag)
	switch tag {
	case level1TagDecimal:
		anyValue(&st.recordIO, v, st.raw)
	case level1TagInt64:
		anyValue(&st.recordIO, v, st.i64)
	case level1TagInt32:
		anyValue(&st.recordIO, v, st.i32)
	case level1TagNone:
		if st.reading() {
			*v = nil
		}
	default:
		st.fail(base.CorruptionErrorf("level1 value tag %d", errors.Safe(tag)))
	}
}

// anyValue persists a dynamically typed value whose type is known from
// context.
func anyValue[T any](s *recordIO, v *any, fn func(*T)) {
	var x T
	if !s.reading() {
		x = (*v).(T)
	}
	fn(&x)
	if s.reading() && s.err == nil {
		*v = x
	}
}

// NewLevel1Serializer returns the serializer of the level 1 changes of sec.
func NewLevel1Serializer(sec message.SecurityID, opts ...Option) *Serializer[message.Level1Change, *Level1Meta] {
	return newSerializer(level1Codec, sec, opts)
}
