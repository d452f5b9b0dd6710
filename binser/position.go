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

// maxPositionChanges bounds the number of field changes in one record.
const maxPositionChanges = 1 << 8

// positionKind returns the value type of a position field: a decimal, an
// int32 or a time.Time. Unknown fields yield nil.
func positionKind(f message.PositionField) any {
	switch f {
	case message.PosBuyOrdersCount, message.PosSellOrdersCount, message.PosState:
		return int32(0)
	case message.PosExpirationDate:
		return time.Time{}
	}
	if f >= message.PosBeginValue && f <= message.PosState {
		return decimal.Decimal{}
	}
	return nil
}

// PositionMeta is the header of a position day blob.
type PositionMeta struct {
	MetaInfo
	// Anchors holds the running value of every decimal field.
	Anchors     fieldAnchors[message.PositionField]
	Portfolios  *fieldcodec.StringTable
	ClientCodes *fieldcodec.StringTable
	DepoNames   *fieldcodec.StringTable
	StrategyIDs *fieldcodec.StringTable
}

var _ Meta = (*PositionMeta)(nil)

func newPositionMeta() *PositionMeta {
	return &PositionMeta{
		Anchors:     make(fieldAnchors[message.PositionField]),
		Portfolios:  fieldcodec.NewStringTable(),
		ClientCodes: fieldcodec.NewStringTable(),
		DepoNames:   fieldcodec.NewStringTable(),
		StrategyIDs: fieldcodec.NewStringTable(),
	}
}

func (m *PositionMeta) copyFrom(other Meta) {
	o := other.(*PositionMeta)
	*m = *o
	m.Anchors = o.Anchors.clone()
	m.Portfolios = o.Portfolios.Clone()
	m.ClientCodes = o.ClientCodes.Clone()
	m.DepoNames = o.DepoNames.Clone()
	m.StrategyIDs = o.StrategyIDs.Clone()
}

func (m *PositionMeta) rewind() {
	m.rewindBase()
	m.Anchors.rewind()
}

func (m *PositionMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		fieldAnchorsGate("field anchors", Version40, &m.Anchors),
		tableGate("portfolios", Version40, &m.Portfolios),
		tableGate("client codes", Version40, &m.ClientCodes),
		tableGate("depo names", Version40, &m.DepoNames),
		m.serverOffsetGate(Version40),
		m.offsetsGate(Version40),
		m.localTimesGate(Version40),
		tableGate("strategies", Version46, &m.StrategyIDs),
		m.seqNumsGate(Version47),
	)
}

type positionState = state[message.PositionChange, *PositionMeta]

var positionCodec = &codec[message.PositionChange, *PositionMeta]{
	name:    "position",
	min:     Version40,
	max:     Version47,
	newMeta: newPositionMeta,
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    true,
			UTC:           true,
			DiffOffsets:   true,
			BigRange:      true,
			TickPrecision: v >= Version45,
		}
	},
	serverOffset: Version40,
	seed: func(st *positionState, recs []message.PositionChange) {
		r := &recs[0]
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
		for f, v := range r.Changes {
			if d, ok := v.(decimal.Decimal); ok {
				st.meta.Anchors.seed(f, d)
			}
		}
	},
	validate: validatePosition,
	layout: Layout[*positionState]{
		field("server time", Version40, func(st *positionState) { st.serverTime(&st.rec.ServerTime) }),
		field("local time", Version40, func(st *positionState) { st.localTime(&st.rec.LocalTime) }),
		field("names", Version40, func(st *positionState) {
			st.interned(&st.rec.PortfolioName, st.meta.Portfolios)
			st.interned(&st.rec.ClientCode, st.meta.ClientCodes)
			st.interned(&st.rec.DepoName, st.meta.DepoNames)
		}),
		field("limit type", Version40, func(st *positionState) { st.nullI32(&st.rec.LimitType) }),
		field("changes", Version40, positionChanges),
		field("strategy and build source", Version46, func(st *positionState) {
			st.interned(&st.rec.StrategyID, st.meta.StrategyIDs)
			st.dataType(&st.rec.BuildFrom)
		}),
		field("sequence number", Version47, func(st *positionState) { st.seqNum(&st.rec.SeqNum) }),
	},
}

func positionChanges(st *positionState) {
	c := st.rec
	var fields []message.PositionField
	if !st.reading() {
		fields = c.Fields()
	}
	n := len(fields)
	st.count(&n, maxPositionChanges)
	if st.Err() != nil {
		return
	}
	if st.reading() {
		fields = make([]message.PositionField, n)
		c.Changes = make(map[message.PositionField]any, n)
	}
	for _, f := range fields {
		id := int32(f)
		st.i32(&id)
		f = message.PositionField(id)
		v := c.Changes[f]
		switch positionKind(f).(type) {
		case decimal.Decimal:
			anyValue(&st.recordIO, &v, func(p *decimal.Decimal) { st.diff(p, st.meta.Anchors.last(f)) })
		case int32:
			anyValue(&st.recordIO, &v, st.i32)
		case time.Time:
			anyValue(&st.recordIO, &v, st.optTime)
		default:
			st.fail(base.UnknownFieldf("position field %s", f))
		}
		if !st.reading() || st.Err() != nil {
			continue
		}
		if _, dup := c.Changes[f]; dup {
			st.fail(base.CorruptionErrorf("position field %s repeated", f))
			return
		}
		c.Changes[f] = v
	}
}

func validatePosition(_ Version, p *message.PositionChange) error {
	if len(p.Changes) > maxPositionChanges {
		return base.RangeOverflowf("position change has %d fields", errors.Safe(len(p.Changes)))
	}
	for f, v := range p.Changes {
		kind := positionKind(f)
		if kind == nil {
			return base.UnknownFieldf("position field %s", f)
		}
		ok := false
		switch kind.(type) {
		case decimal.Decimal:
			_, ok = v.(decimal.Decimal)
		case int32:
			_, ok = v.(int32)
		case time.Time:
			_, ok = v.(time.Time)
		}
		if !ok {
			return base.UnsupportedValuef("position field %s has value of type %T", f, errors.Safe(v))
		}
	}
	return nil
}

// NewPositionSerializer returns the serializer of the position changes of
// sec.
func NewPositionSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.PositionChange, *PositionMeta] {
	return newSerializer(positionCodec, sec, opts)
}
