// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/message"
)

func testCandles() []message.Candle {
	mk := func(open string, o, h, l, c, vol string) message.Candle {
		ot := at(open)
		return message.Candle{
			OpenTime:  ot,
			CloseTime: ot.Add(59*time.Second + 999*time.Millisecond),
			HighTime:  ot.Add(10 * time.Second),
			LowTime:   ot.Add(40 * time.Second),
			OpenPrice: dec(o), HighPrice: dec(h), LowPrice: dec(l), ClosePrice: dec(c),
			TotalVolume:    dec(vol),
			RelativeVolume: message.Dec("0.5"),
			OpenVolume:     message.Dec("1"),
			HighVolume:     message.Dec("2"),
			LowVolume:      message.Dec("3"),
			CloseVolume:    message.Dec("4"),
			OpenInterest:   message.Dec("1500"),
			TotalTicks:     message.Int32(12),
			UpTicks:        message.Int32(7),
			DownTicks:      message.Int32(5),
			PriceLevels: []message.CandlePriceLevel{
				{
					Price: dec(l), BuyVolume: dec("5"), SellVolume: dec("3"), BuyCount: 2, SellCount: 1,
					TotalVolume: message.Dec("8"), BuyVolumes: []decimal.Decimal{dec("2"), dec("3")},
				},
				{
					Price: dec(h), BuyVolume: dec("1"), SellVolume: dec("0"), BuyCount: 1,
					SellVolumes: []decimal.Decimal{},
				},
			},
			State:     message.CandleFinished,
			BuildFrom: &message.DataType{Kind: message.DataTypeTicks},
			SeqNum:    42,
		}
	}
	return []message.Candle{
		mk("10:00:00", "10.00", "10.50", "9.80", "10.20", "1000"),
		// Close below open.
		mk("10:01:00", "10.20", "10.30", "10.00", "10.00", "20"),
		// Open equal to close.
		mk("10:02:00", "10.10", "10.15", "10.05", "10.10", "0"),
	}
}

// expectCandle drops the fields that v does not store and applies the zero
// defaults older formats read back for absent values.
func expectCandle(v Version, c message.Candle) message.Candle {
	zero := message.Dec("0")
	if v < Version45 {
		c.OpenInterest = decimal.NullDecimal{}
	}
	if v < Version46 {
		c.HighTime, c.LowTime = time.Time{}, time.Time{}
		c.OpenVolume, c.HighVolume = decimal.NullDecimal{}, decimal.NullDecimal{}
		c.LowVolume, c.CloseVolume = decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	if v < Version47 {
		c.CloseTime = time.Time{}
	}
	if v < Version52 {
		c.RelativeVolume = decimal.NullDecimal{}
		c.TotalTicks, c.UpTicks, c.DownTicks = nil, nil, nil
	}
	if v < Version54 {
		c.PriceLevels = nil
	}
	if v < Version55 {
		for i := range c.PriceLevels {
			c.PriceLevels[i].TotalVolume = decimal.NullDecimal{}
		}
	}
	if v < Version59 {
		c.BuildFrom = nil
		c.SeqNum = 0
	}
	// Formats without presence bits store absent values as zero.
	if v >= Version45 && v < Version48 && !c.OpenInterest.Valid {
		c.OpenInterest = zero
	}
	c.State = message.CandleFinished
	return c
}

func TestCandleRoundTrip(t *testing.T) {
	s := NewCandleSerializer(testSec)
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			recs := testCandles()
			var want []message.Candle
			for _, c := range testCandles() {
				want = append(want, expectCandle(v, c))
			}
			requireRecords(t, want, roundTrip(t, s, v, recs[:1], recs[1:]))
		})
	}
}

func TestCandleRequiredFields(t *testing.T) {
	s := NewCandleSerializer(testSec)
	c := message.Candle{
		OpenTime:  at("10:00:00"),
		OpenPrice: dec("10"), HighPrice: dec("11"), LowPrice: dec("9"), ClosePrice: dec("10.5"),
		TotalVolume: dec("100"),
	}
	got := roundTrip(t, s, Version47, []message.Candle{c})
	require.True(t, got[0].OpenInterest.Valid)
	require.True(t, got[0].OpenInterest.Decimal.IsZero())
	require.True(t, got[0].OpenVolume.Valid)
	require.Equal(t, message.CandleFinished, got[0].State)

	got = roundTrip(t, s, Version59, []message.Candle{c})
	require.False(t, got[0].OpenInterest.Valid)
	require.False(t, got[0].OpenVolume.Valid)
	require.Nil(t, got[0].PriceLevels)
	require.Equal(t, message.CandleFinished, got[0].State)
}

// TestCandleOpenEqualsClose pins the tie-break of the price order: equal open
// and close prices take the open-first branch.
func TestCandleOpenEqualsClose(t *testing.T) {
	c := message.Candle{OpenPrice: dec("10.10"), ClosePrice: dec("10.1")}
	require.True(t, openFirst(&c))
	c.ClosePrice = dec("10.09")
	require.False(t, openFirst(&c))
	c.ClosePrice = dec("10.11")
	require.True(t, openFirst(&c))

	s := NewCandleSerializer(testSec)
	flat := message.Candle{
		OpenTime:  at("10:00:00"),
		OpenPrice: dec("10.10"), HighPrice: dec("10.10"), LowPrice: dec("10.10"), ClosePrice: dec("10.10"),
		TotalVolume: dec("1"), State: message.CandleFinished,
	}
	first, _ := encode(t, s, Version59, []message.Candle{flat})
	again, _ := encode(t, s, Version59, []message.Candle{flat})
	require.Equal(t, first, again)
	requireRecords(t, []message.Candle{flat}, roundTrip(t, s, Version59, []message.Candle{flat}))
}

func TestCandleFractional(t *testing.T) {
	s := NewCandleSerializer(testSec)
	candles := []message.Candle{
		{
			OpenTime:  at("10:00:00.1234567"),
			OpenPrice: dec("10.005"), HighPrice: dec("10.0125"), LowPrice: dec("9.999"), ClosePrice: dec("10.01"),
			TotalVolume: dec("0.75"), State: message.CandleFinished,
			PriceLevels: []message.CandlePriceLevel{
				{Price: dec("10.0001"), BuyVolume: dec("0.25"), SellVolume: dec("0.5")},
			},
		},
		{
			OpenTime:  at("10:00:01"),
			OpenPrice: dec("10.02"), HighPrice: dec("10.03"), LowPrice: dec("10.00"), ClosePrice: dec("10.00"),
			TotalVolume: dec("12.5"), State: message.CandleFinished,
		},
	}
	requireRecords(t, candles, roundTrip(t, s, Version59, candles))
}

func TestCandleValidation(t *testing.T) {
	s := NewCandleSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	ok := message.Candle{
		OpenTime:  at("10:00:00"),
		OpenPrice: dec("10"), HighPrice: dec("11"), LowPrice: dec("9"), ClosePrice: dec("10"),
		TotalVolume: dec("1"),
	}
	for _, c := range []struct {
		mutate func(*message.Candle)
		v      Version
		want   error
	}{
		{func(c *message.Candle) { c.State = message.CandleActive }, Version59, ErrInvalidDomainState},
		{func(c *message.Candle) { c.OpenTime = time.Time{} }, Version59, ErrInvalidDomainState},
		{func(c *message.Candle) { c.TotalVolume = dec("0.5") }, Version55, ErrUnsupportedValue},
	} {
		bad := ok
		c.mutate(&bad)
		meta.Version = c.v
		body, err := s.Serialize(nil, []message.Candle{ok, bad}, meta)
		require.True(t, errors.Is(err, c.want), "%v", err)
		require.Empty(t, body)
		require.Zero(t, meta.Count)
	}
}
