// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// OrderLogMeta is the header of an order log day blob.
type OrderLogMeta struct {
	MetaInfo
	FirstOrderID, LastOrderID             int64
	FirstTradeID, LastTradeID             int64
	FirstTransactionID, LastTransactionID int64
	// FirstOrderPrice and LastOrderPrice anchor order prices, which trade
	// prices no longer share from format 4.5 on.
	FirstOrderPrice, LastOrderPrice decimal.Decimal
	Portfolios                      *fieldcodec.StringTable
}

var _ Meta = (*OrderLogMeta)(nil)

func newOrderLogMeta() *OrderLogMeta {
	return &OrderLogMeta{Portfolios: fieldcodec.NewStringTable()}
}

func (m *OrderLogMeta) copyFrom(other Meta) {
	o := other.(*OrderLogMeta)
	*m = *o
	m.Portfolios = o.Portfolios.Clone()
}

func (m *OrderLogMeta) rewind() {
	m.rewindBase()
	m.LastOrderID = m.FirstOrderID
	m.LastTradeID = m.FirstTradeID
	m.LastTransactionID = m.FirstTransactionID
	m.LastOrderPrice = m.FirstOrderPrice
}

func (m *OrderLogMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		idsGate("order ids", Version31, &m.FirstOrderID, &m.LastOrderID),
		m.pricesGate(Version31),
		idsGate("trade ids", Version31, &m.FirstTradeID, &m.LastTradeID),
		idsGate("transaction ids", Version34, &m.FirstTransactionID, &m.LastTransactionID),
		tableGate("portfolios", Version40, &m.Portfolios),
		m.fractionalPricesGate(Version41),
		m.fractionalVolumesGate(Version44),
		decimalsGate("order prices", Version45, &m.FirstOrderPrice, &m.LastOrderPrice),
		m.localTimesGate(Version46),
		m.serverOffsetGate(Version48),
		m.offsetsGate(Version52),
		m.seqNumsGate(Version60),
	)
}

type orderLogState = state[message.OrderLogItem, *OrderLogMeta]

var orderLogCodec = &codec[message.OrderLogItem, *OrderLogMeta]{
	name:    "orderlog",
	min:     Version31,
	max:     Version60,
	newMeta: newOrderLogMeta,
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    v >= Version47,
			UTC:           v >= Version48,
			DiffOffsets:   v >= Version52,
			TickPrecision: v >= Version53,
			BigRange:      v >= Version53,
		}
	},
	serverOffset: Version48,
	seed: func(st *orderLogState, recs []message.OrderLogItem) {
		r := &recs[0]
		st.m.seedPrice(r.OrderPrice, Version41)
		if st.m.priceAnchor().Aligned(r.OrderPrice) {
			st.meta.FirstOrderPrice, st.meta.LastOrderPrice = r.OrderPrice, r.OrderPrice
		}
		st.meta.FirstOrderID, st.meta.LastOrderID = r.OrderID, r.OrderID
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
	},
	validate: validateOrderLog,
	layout: Layout[*orderLogState]{
		field("order id", Version31, func(st *orderLogState) {
			st.id(&st.rec.OrderID, &st.meta.LastOrderID)
		}),
		field("order price", Version31, orderLogPrice),
		field("order volume", Version31, func(st *orderLogState) {
			v := &st.rec.OrderVolume
			if st.at(Version59) && !st.flag(v.Valid) {
				if st.reading() {
					*v = decimal.NullDecimal{}
				}
				return
			}
			d := v.Decimal
			st.volume(&d, st.at(Version44))
			if st.reading() {
				*v = decimal.NewNullDecimal(d)
			}
		}),
		field("side", Version31, func(st *orderLogState) {
			buy := st.flag(st.rec.Side == message.Buy)
			if st.reading() {
				st.rec.Side = message.Sell
				if buy {
					st.rec.Side = message.Buy
				}
			}
		}),
		field("server time", Version31, func(st *orderLogState) { st.serverTime(&st.rec.ServerTime) }),
		fieldUntil("latency", Version31, Version46, orderLogLatency),
		field("local time", Version46, func(st *orderLogState) { st.localTime(&st.rec.LocalTime) }),
		field("trade", Version31, orderLogTrade),
		field("status", Version31, func(st *orderLogState) { st.nullI64(&st.rec.Status) }),
		field("time in force and system flag", Version33, func(st *orderLogState) {
			if !st.at(Version50) || st.flag(st.rec.TimeInForce != message.TimeInForceNone) {
				enum(&st.recordIO, &st.rec.TimeInForce, 2)
			} else if st.reading() {
				st.rec.TimeInForce = message.TimeInForceNone
			}
			if st.at(Version49) {
				st.nullBool(&st.rec.IsSystem)
			} else {
				required(&st.recordIO, &st.rec.IsSystem, st.bit)
			}
		}),
		field("transaction id", Version34, func(st *orderLogState) {
			st.id(&st.rec.TransactionID, &st.meta.LastTransactionID)
		}),
		field("portfolio", Version40, func(st *orderLogState) {
			st.interned(&st.rec.Portfolio, st.meta.Portfolios)
		}),
		field("currency", Version51, func(st *orderLogState) { st.currency(&st.rec.Currency) }),
		field("balance", Version59, func(st *orderLogState) {
			b := &st.rec.Balance
			if !st.flag(b.Valid) {
				if st.reading() {
					*b = decimal.NullDecimal{}
				}
				return
			}
			d := b.Decimal
			st.volume(&d, true)
			if st.reading() {
				*b = decimal.NewNullDecimal(d)
			}
		}),
		field("sequence number", Version60, func(st *orderLogState) { st.seqNum(&st.rec.SeqNum) }),
	},
}

func orderLogPrice(st *orderLogState) {
	p := &st.rec.OrderPrice
	ex := st.at(Version41)
	if !st.at(Version45) {
		st.price(p, ex, fieldcodec.PriceOptions{})
		return
	}
	a := st.m.priceAnchor()
	a.Last = st.meta.LastOrderPrice
	st.priceWith(p, &a, ex, fieldcodec.PriceOptions{})
	st.meta.LastOrderPrice = a.Last
	st.m.LastFractionalPrice = a.Fraction
}

// orderLogLatency persists the local time of old formats as its distance
// from the server time.
func orderLogLatency(st *orderLogState) {
	r := st.rec
	if !st.flag(!r.LocalTime.IsZero()) {
		if st.reading() {
			r.LocalTime = time.Time{}
		}
		return
	}
	ms := int64(r.LocalTime.Sub(r.ServerTime) / time.Millisecond)
	st.i64(&ms)
	if st.reading() && st.Err() == nil {
		r.LocalTime = r.ServerTime.Add(time.Duration(ms) * time.Millisecond)
	}
}

// orderLogTrade persists the match of an entry. Entries with a match are
// done; others are either still active or done.
func orderLogTrade(st *orderLogState) {
	r := st.rec
	if !st.flag(r.HasTrade()) {
		active := st.flag(r.State == message.OrderActive)
		if st.reading() {
			r.State = message.OrderDone
			if active {
				r.State = message.OrderActive
			}
		}
		return
	}
	if st.reading() {
		r.State = message.OrderDone
	}
	st.id(&r.TradeID, &st.meta.LastTradeID)
	price := r.TradePrice.Decimal
	st.price(&price, st.at(Version41), fieldcodec.PriceOptions{})
	if st.reading() {
		r.TradePrice = decimal.NewNullDecimal(price)
	}
	st.nullRaw(&r.OpenInterest)
}

func validateOrderLog(v Version, o *message.OrderLogItem) error {
	switch {
	case o.Side != message.Buy && o.Side != message.Sell:
		return base.InvalidDomainStatef("order %d has no side", o.OrderID)
	case o.OrderVolume.Valid && !o.OrderVolume.Decimal.IsPositive() && o.State != message.OrderDone:
		return base.InvalidDomainStatef("order %d has volume %s in state %s",
			o.OrderID, o.OrderVolume.Decimal, o.State)
	case !o.OrderVolume.Valid && v < Version59 && o.State != message.OrderDone:
		return base.InvalidDomainStatef("order %d has no volume", o.OrderID)
	case o.HasTrade() && (!o.TradePrice.Valid || !o.TradePrice.Decimal.IsPositive()):
		return base.InvalidDomainStatef("order %d has trade %d without a positive trade price",
			o.OrderID, o.TradeID)
	case !o.HasTrade() && o.State != message.OrderActive && o.State != message.OrderDone:
		return base.UnsupportedValuef("order %d in state %s", o.OrderID, o.State)
	case v < Version44 && o.OrderVolume.Valid && !o.OrderVolume.Decimal.IsInteger():
		return base.UnsupportedValuef("order %d has fractional volume %s", o.OrderID, o.OrderVolume.Decimal)
	}
	return nil
}

// NewOrderLogSerializer returns the serializer of the order log of sec.
func NewOrderLogSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.OrderLogItem, *OrderLogMeta] {
	return newSerializer(orderLogCodec, sec, opts)
}
