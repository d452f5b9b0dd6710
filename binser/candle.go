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

// maxPriceLevels bounds the volume-at-price histogram of a candle.
const maxPriceLevels = 1 << 16

// CandleMeta is the header of a candle day blob.
type CandleMeta struct {
	MetaInfo
}

var _ Meta = (*CandleMeta)(nil)

func (m *CandleMeta) copyFrom(other Meta) {
	*m = *other.(*CandleMeta)
}

func (m *CandleMeta) rewind() {
	m.rewindBase()
}

func (m *CandleMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		m.pricesGate(Version40),
		m.serverOffsetGate(Version50),
		m.offsetsGate(Version53),
		m.fractionalPricesGate(Version56),
		m.fractionalVolumesGate(Version56),
		m.seqNumsGate(Version59),
	)
}

type candleState = state[message.Candle, *CandleMeta]

var candleCodec = &codec[message.Candle, *CandleMeta]{
	name:    "candle",
	min:     Version40,
	max:     Version59,
	newMeta: func() *CandleMeta { return &CandleMeta{} },
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    v >= Version49,
			UTC:           v >= Version50,
			DiffOffsets:   v >= Version53,
			TickPrecision: v >= Version57,
			BigRange:      v >= Version57,
		}
	},
	serverOffset: Version50,
	seed: func(st *candleState, recs []message.Candle) {
		c := &recs[0]
		st.m.seedPrice(c.LowPrice, Version56)
		st.m.seedTime(fieldcodec.StoredTicks(c.OpenTime, st.times))
		st.seedTimes(c.OpenTime, time.Time{})
		st.m.seedSeqNum(c.SeqNum)
	},
	validate: validateCandle,
	layout: Layout[*candleState]{
		field("open time", Version40, func(st *candleState) {
			st.serverTime(&st.rec.OpenTime)
			if st.reading() {
				st.rec.State = message.CandleFinished
			}
		}),
		field("prices", Version40, candlePrices),
		field("total volume", Version40, func(st *candleState) {
			st.volume(&st.rec.TotalVolume, st.at(Version56))
		}),
		fieldUntil("open interest", Version45, Version48, func(st *candleState) {
			requiredDec(&st.recordIO, &st.rec.OpenInterest)
		}),
		field("open interest", Version48, func(st *candleState) { st.nullRaw(&st.rec.OpenInterest) }),
		field("high and low times", Version46, func(st *candleState) {
			open := st.m.LastTime
			st.relTime(&st.rec.HighTime, open)
			st.relTime(&st.rec.LowTime, open)
		}),
		fieldUntil("ohlc volumes", Version46, Version51, func(st *candleState) {
			for _, p := range candleVolumes(st.rec) {
				requiredDec(&st.recordIO, p)
			}
		}),
		field("ohlc volumes", Version51, func(st *candleState) {
			for _, p := range candleVolumes(st.rec) {
				st.nullRaw(p)
			}
		}),
		field("close time", Version47, func(st *candleState) {
			st.relTime(&st.rec.CloseTime, st.m.LastTime)
		}),
		field("relative volume and tick counts", Version52, func(st *candleState) {
			st.nullRaw(&st.rec.RelativeVolume)
			st.nullI32(&st.rec.TotalTicks)
			st.nullI32(&st.rec.UpTicks)
			st.nullI32(&st.rec.DownTicks)
		}),
		field("price levels", Version54, candlePriceLevels),
		field("build source and sequence number", Version59, func(st *candleState) {
			st.dataType(&st.rec.BuildFrom)
			st.seqNum(&st.rec.SeqNum)
		}),
	},
}

func candleVolumes(c *message.Candle) []*decimal.NullDecimal {
	return []*decimal.NullDecimal{&c.OpenVolume, &c.HighVolume, &c.LowVolume, &c.CloseVolume}
}

// requiredDec persists a decimal that older versions store without a
// presence bit. An absent value is written as zero.
func requiredDec(s *recordIO, p *decimal.NullDecimal) {
	d := p.Decimal
	if !p.Valid {
		d = decimal.Decimal{}
	}
	s.raw(&d)
	if s.reading() {
		*p = decimal.NewNullDecimal(d)
	}
}

// openFirst reports whether the open price is written before the close
// price. Equal prices take the open-first branch.
func openFirst(c *message.Candle) bool {
	return c.OpenPrice.LessThanOrEqual(c.ClosePrice)
}

// candlePrices writes the low price against the shared price anchor and the
// other prices against the candle's own prices, so that every delta but the
// first is non-negative for well-formed candles.
func candlePrices(st *candleState) {
	c := st.rec
	ex := st.at(Version56)
	o := fieldcodec.PriceOptions{UseLong: st.at(Version58)}
	a := st.m.priceAnchor()
	st.priceWith(&c.LowPrice, &a, ex, o)
	shared := a.Last

	from := func(p *decimal.Decimal, prev decimal.Decimal) {
		if a.Aligned(prev) {
			a.Last = prev
		}
		st.priceWith(p, &a, ex, o)
	}
	if st.flag(openFirst(c)) {
		from(&c.OpenPrice, c.LowPrice)
		from(&c.ClosePrice, c.OpenPrice)
	} else {
		from(&c.ClosePrice, c.LowPrice)
		from(&c.OpenPrice, c.ClosePrice)
	}
	from(&c.HighPrice, decimal.Max(c.OpenPrice, c.ClosePrice))

	a.Last = shared
	st.m.setPriceAnchor(a)
}

func candlePriceLevels(st *candleState) {
	c := st.rec
	if !st.flag(c.PriceLevels != nil) {
		if st.reading() {
			c.PriceLevels = nil
		}
		return
	}
	n := len(c.PriceLevels)
	st.count(&n, maxPriceLevels)
	if st.Err() != nil {
		return
	}
	if st.reading() {
		c.PriceLevels = make([]message.CandlePriceLevel, n)
	}
	ex := st.at(Version56)
	o := fieldcodec.PriceOptions{UseLong: st.at(Version58)}
	a := st.m.priceAnchor()
	if a.Aligned(c.LowPrice) {
		a.Last = c.LowPrice
	}
	for i := range c.PriceLevels {
		l := &c.PriceLevels[i]
		st.priceWith(&l.Price, &a, ex, o)
		st.raw(&l.BuyVolume)
		st.raw(&l.SellVolume)
		st.i32(&l.BuyCount)
		st.i32(&l.SellCount)
		if st.at(Version55) {
			st.nullRaw(&l.TotalVolume)
		}
		decimals(&st.recordIO, &l.BuyVolumes)
		decimals(&st.recordIO, &l.SellVolumes)
	}
	// Only the fractional anchor carries over to the next candle.
	shared := st.m.priceAnchor()
	shared.Fraction = a.Fraction
	st.m.setPriceAnchor(shared)
}

// decimals persists an optional list of raw decimals.
func decimals(s *recordIO, p *[]decimal.Decimal) {
	if !s.flag(*p != nil) {
		if s.reading() {
			*p = nil
		}
		return
	}
	n := len(*p)
	s.count(&n, maxPriceLevels)
	if s.err != nil {
		return
	}
	if s.reading() {
		*p = make([]decimal.Decimal, n)
	}
	for i := range *p {
		s.raw(&(*p)[i])
	}
}

func validateCandle(v Version, c *message.Candle) error {
	if c.State == message.CandleActive {
		return base.InvalidDomainStatef("active candle opened at %s", c.OpenTime)
	}
	if c.OpenTime.IsZero() {
		return base.InvalidDomainStatef("candle has no open time")
	}
	if v < Version56 && !c.TotalVolume.IsInteger() {
		return base.UnsupportedValuef("candle opened at %s has fractional volume %s", c.OpenTime, c.TotalVolume)
	}
	if len(c.PriceLevels) > maxPriceLevels {
		return base.RangeOverflowf("candle has %d price levels", errors.Safe(len(c.PriceLevels)))
	}
	return nil
}

// NewCandleSerializer returns the serializer of the candles of sec.
func NewCandleSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.Candle, *CandleMeta] {
	return newSerializer(candleCodec, sec, opts)
}
