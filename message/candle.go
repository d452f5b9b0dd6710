// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is an OHLC bar.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	HighTime  time.Time
	LowTime   time.Time

	OpenPrice  decimal.Decimal
	HighPrice  decimal.Decimal
	LowPrice   decimal.Decimal
	ClosePrice decimal.Decimal

	TotalVolume    decimal.Decimal
	RelativeVolume decimal.NullDecimal
	OpenVolume     decimal.NullDecimal
	HighVolume     decimal.NullDecimal
	LowVolume      decimal.NullDecimal
	CloseVolume    decimal.NullDecimal
	OpenInterest   decimal.NullDecimal

	TotalTicks *int32
	UpTicks    *int32
	DownTicks  *int32

	PriceLevels []CandlePriceLevel
	// State is not stored. Stored candles are finished, so decoded candles
	// always have CandleFinished.
	State       CandleState
	BuildFrom   *DataType
	SeqNum      int64
}

// CandlePriceLevel is one row of the volume-at-price histogram of a candle.
type CandlePriceLevel struct {
	Price       decimal.Decimal
	BuyVolume   decimal.Decimal
	SellVolume  decimal.Decimal
	BuyCount    int32
	SellCount   int32
	TotalVolume decimal.NullDecimal
	BuyVolumes  []decimal.Decimal
	SellVolumes []decimal.Decimal
}

// String implements fmt.Stringer.
func (c Candle) String() string {
	f := newFormatter("candle")
	f.instant("open", c.OpenTime)
	f.instant("close", c.CloseTime)
	f.instant("high-time", c.HighTime)
	f.instant("low-time", c.LowTime)
	f.dec("o", c.OpenPrice)
	f.dec("h", c.HighPrice)
	f.dec("l", c.LowPrice)
	f.dec("c", c.ClosePrice)
	f.dec("vol", c.TotalVolume)
	f.nullDec("rel-vol", c.RelativeVolume)
	f.nullDec("o-vol", c.OpenVolume)
	f.nullDec("h-vol", c.HighVolume)
	f.nullDec("l-vol", c.LowVolume)
	f.nullDec("c-vol", c.CloseVolume)
	f.nullDec("oi", c.OpenInterest)
	f.value("ticks", c.TotalTicks)
	f.value("up", c.UpTicks)
	f.value("down", c.DownTicks)
	for i, l := range c.PriceLevels {
		f.str(fmt.Sprintf("level[%d]", i), l.String())
	}
	if c.State != CandleStateNone {
		f.str("state", c.State.String())
	}
	f.value("from", c.BuildFrom)
	f.integer("seq", c.SeqNum)
	return f.String()
}

// String implements fmt.Stringer.
func (l CandlePriceLevel) String() string {
	s := fmt.Sprintf("(%s buy=%s/%d sell=%s/%d", l.Price, l.BuyVolume, l.BuyCount, l.SellVolume, l.SellCount)
	if l.TotalVolume.Valid {
		s += " total=" + l.TotalVolume.Decimal.String()
	}
	if l.BuyVolumes != nil {
		s += fmt.Sprintf(" buys=%v", l.BuyVolumes)
	}
	if l.SellVolumes != nil {
		s += fmt.Sprintf(" sells=%v", l.SellVolumes)
	}
	return s + ")"
}
