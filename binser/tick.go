// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// TickMeta is the header of a tick day blob.
type TickMeta struct {
	MetaInfo
	FirstTradeID, LastTradeID int64
}

var _ Meta = (*TickMeta)(nil)

func (m *TickMeta) copyFrom(other Meta) {
	*m = *other.(*TickMeta)
}

func (m *TickMeta) rewind() {
	m.rewindBase()
	m.LastTradeID = m.FirstTradeID
}

func (m *TickMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		idsGate("trade ids", Version40, &m.FirstTradeID, &m.LastTradeID),
		m.pricesGate(Version40),
		m.fractionalPricesGate(Version43),
		m.fractionalVolumesGate(Version44),
		m.serverOffsetGate(Version48),
		m.offsetsGate(Version52),
		m.localTimesGate(Version53),
		m.seqNumsGate(Version54),
	)
}

type tickState = state[message.Tick, *TickMeta]

var tickCodec = &codec[message.Tick, *TickMeta]{
	name:    "tick",
	min:     Version40,
	max:     Version54,
	newMeta: func() *TickMeta { return &TickMeta{} },
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    v >= Version46,
			UTC:           v >= Version48,
			DiffOffsets:   v >= Version52,
			TickPrecision: v >= Version53,
			BigRange:      v >= Version53,
		}
	},
	serverOffset: Version48,
	seed: func(st *tickState, recs []message.Tick) {
		r := &recs[0]
		st.m.seedPrice(r.Price, Version43)
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
	},
	validate: validateTick,
	layout: Layout[*tickState]{
		field("trade id", Version40, func(st *tickState) {
			st.id(&st.rec.TradeID, &st.meta.LastTradeID)
		}),
		field("price", Version40, func(st *tickState) {
			st.price(&st.rec.Price, st.at(Version41), fieldcodec.PriceOptions{UseLong: st.at(Version54)})
		}),
		field("volume", Version40, func(st *tickState) {
			st.volume(&st.rec.Volume, st.at(Version44))
		}),
		field("side", Version40, func(st *tickState) { st.side(&st.rec.Side) }),
		field("server time", Version40, func(st *tickState) { st.serverTime(&st.rec.ServerTime) }),
		field("open interest", Version45, func(st *tickState) { st.nullRaw(&st.rec.OpenInterest) }),
		field("up tick", Version46, func(st *tickState) { st.nullBool(&st.rec.IsUpTick) }),
		field("order ids", Version47, func(st *tickState) {
			st.nullI64(&st.rec.OrderBuyID)
			st.nullI64(&st.rec.OrderSellID)
		}),
		field("system and currency", Version50, func(st *tickState) {
			st.nullBool(&st.rec.IsSystem)
			st.currency(&st.rec.Currency)
		}),
		field("local time", Version53, func(st *tickState) { st.localTime(&st.rec.LocalTime) }),
		field("sequence number", Version54, func(st *tickState) { st.seqNum(&st.rec.SeqNum) }),
	},
}

func validateTick(v Version, t *message.Tick) error {
	if v < Version44 && !t.Volume.IsInteger() {
		return base.UnsupportedValuef("tick %d has fractional volume %s", t.TradeID, t.Volume)
	}
	if t.Volume.IsNegative() {
		return base.InvalidDomainStatef("tick %d has negative volume %s", t.TradeID, t.Volume)
	}
	return nil
}

// NewTickSerializer returns the serializer of the trades of sec.
func NewTickSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.Tick, *TickMeta] {
	return newSerializer(tickCodec, sec, opts)
}
