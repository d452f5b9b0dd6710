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

func testOrderLog() [][]message.OrderLogItem {
	return [][]message.OrderLogItem{
		{
			{
				OrderID: 1000, OrderPrice: dec("101.50"), OrderVolume: message.Dec("10"), Side: message.Buy,
				State: message.OrderActive, ServerTime: at("10:00:00"), LocalTime: at("10:00:00.015"),
				TransactionID: 77, Portfolio: "P1", IsSystem: message.Bool(true), TimeInForce: message.PutInQueue,
				Status: message.Int64(4), Currency: 643, Balance: message.Dec("10"), SeqNum: 1,
			},
			{
				OrderID: 1001, OrderPrice: dec("101.60"), OrderVolume: message.Dec("5"), Side: message.Sell,
				State: message.OrderActive, ServerTime: at("10:00:00.5"),
				TransactionID: 78, Portfolio: "P2", SeqNum: 2,
			},
			{
				OrderID: 1000, OrderPrice: dec("101.50"), OrderVolume: message.Dec("4"), Side: message.Buy,
				State: message.OrderDone, ServerTime: at("10:00:01"), LocalTime: at("10:00:01.002"),
				TradeID: 555, TradePrice: message.Dec("101.55"), OpenInterest: message.Dec("300"),
				Portfolio: "P1", Balance: message.Dec("6"), SeqNum: 3,
			},
		},
		{
			{
				OrderID: 1001, OrderPrice: dec("101.60"), OrderVolume: message.Dec("5"), Side: message.Sell,
				State: message.OrderDone, ServerTime: at("10:05:00"),
				TransactionID: 78, Portfolio: "P2", SeqNum: 4,
			},
			{
				OrderID: 990, OrderPrice: dec("99.00"), OrderVolume: message.Dec("1"), Side: message.Sell,
				State: message.OrderDone, ServerTime: at("11:00:00"),
				TradeID: 556, TradePrice: message.Dec("99.00"), SeqNum: 5,
			},
		},
	}
}

// expectOrderLog drops the fields that v does not store and applies the
// defaults older formats read back.
func expectOrderLog(v Version, o message.OrderLogItem) message.OrderLogItem {
	if v < Version33 {
		o.IsSystem = nil
		o.TimeInForce = message.TimeInForceNone
	} else if v < Version49 && o.IsSystem == nil {
		o.IsSystem = message.Bool(false)
	}
	if v < Version34 {
		o.TransactionID = 0
	}
	if v < Version40 {
		o.Portfolio = ""
	}
	if v < Version51 {
		o.Currency = 0
	}
	if v < Version59 {
		o.Balance = decimal.NullDecimal{}
	}
	if v < Version60 {
		o.SeqNum = 0
	}
	return o
}

func TestOrderLogRoundTrip(t *testing.T) {
	s := NewOrderLogSerializer(testSec)
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			var want []message.OrderLogItem
			for _, b := range testOrderLog() {
				for _, o := range b {
					want = append(want, expectOrderLog(v, o))
				}
			}
			requireRecords(t, want, roundTrip(t, s, v, testOrderLog()...))
		})
	}
}

func TestOrderLogFractional(t *testing.T) {
	s := NewOrderLogSerializer(testSec)
	items := []message.OrderLogItem{
		{
			OrderID: 1, OrderPrice: dec("10.005"), OrderVolume: message.Dec("0.5"), Side: message.Buy,
			State: message.OrderActive, ServerTime: at("10:00:00.0000001"), LocalTime: at("09:59:59.9999999"),
			Balance: message.Dec("0.25"), TimeInForce: message.MatchOrCancel,
		},
		{
			OrderID: 2, OrderPrice: dec("10.01"), Side: message.Sell, State: message.OrderDone,
			ServerTime: at("09:59:00"), LocalTime: at("10:00:01"),
			TradeID: 3, TradePrice: message.Dec("10.0025"),
		},
		{
			// Cancelled orders may carry a zero volume.
			OrderID: 1, OrderPrice: dec("10.005"), OrderVolume: message.Dec("0"), Side: message.Buy,
			State: message.OrderDone, ServerTime: at("10:00:02"), LocalTime: at("10:00:02"),
		},
	}
	requireRecords(t, items, roundTrip(t, s, Version60, items))
}

func TestOrderLogLatency(t *testing.T) {
	s := NewOrderLogSerializer(testSec)
	item := message.OrderLogItem{
		OrderID: 1, OrderPrice: dec("10"), OrderVolume: message.Dec("1"), Side: message.Buy,
		State: message.OrderActive, ServerTime: at("10:00:00"), LocalTime: at("10:00:00.0421234"),
	}
	got := roundTrip(t, s, Version45, []message.OrderLogItem{item})
	require.Equal(t, 42*time.Millisecond, got[0].LocalTime.Sub(got[0].ServerTime))
	require.Contains(t, NewOrderLogSerializer(testSec).RecordFields(Version45), "latency")
	require.NotContains(t, NewOrderLogSerializer(testSec).RecordFields(Version46), "latency")
}

func TestOrderLogValidation(t *testing.T) {
	s := NewOrderLogSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	ok := message.OrderLogItem{
		OrderID: 1, OrderPrice: dec("10"), OrderVolume: message.Dec("1"), Side: message.Buy,
		State: message.OrderActive, ServerTime: at("10:00:00"),
	}
	for _, c := range []struct {
		name   string
		v      Version
		mutate func(*message.OrderLogItem)
		want   error
	}{
		{"no side", Version60, func(o *message.OrderLogItem) { o.Side = message.SideNone }, ErrInvalidDomainState},
		{"zero volume", Version60, func(o *message.OrderLogItem) { o.OrderVolume = message.Dec("0") }, ErrInvalidDomainState},
		{"negative volume", Version60, func(o *message.OrderLogItem) { o.OrderVolume = message.Dec("-1") }, ErrInvalidDomainState},
		{"missing volume", Version58, func(o *message.OrderLogItem) { o.OrderVolume = decimal.NullDecimal{} }, ErrInvalidDomainState},
		{"trade without price", Version60, func(o *message.OrderLogItem) { o.TradeID = 5 }, ErrInvalidDomainState},
		{"trade at zero", Version60, func(o *message.OrderLogItem) {
			o.TradeID, o.TradePrice = 5, message.Dec("0")
		}, ErrInvalidDomainState},
		{"pending", Version60, func(o *message.OrderLogItem) { o.State = message.OrderPending }, ErrUnsupportedValue},
		{"fractional", Version43, func(o *message.OrderLogItem) { o.OrderVolume = message.Dec("1.5") }, ErrUnsupportedValue},
	} {
		t.Run(c.name, func(t *testing.T) {
			bad := ok
			c.mutate(&bad)
			meta.Version = c.v
			body, err := s.Serialize(nil, []message.OrderLogItem{ok, bad}, meta)
			require.True(t, errors.Is(err, c.want), "%v", err)
			require.Empty(t, body)
		})
	}

	// Done orders may omit their volume from 5.9 on.
	done := ok
	done.State, done.OrderVolume = message.OrderDone, decimal.NullDecimal{}
	got := roundTrip(t, s, Version59, []message.OrderLogItem{done})
	require.False(t, got[0].OrderVolume.Valid)
}

func TestOrderLogPortfolios(t *testing.T) {
	s := NewOrderLogSerializer(testSec)
	var items []message.OrderLogItem
	for i := 0; i < 50; i++ {
		items = append(items, message.OrderLogItem{
			OrderID: int64(i + 1), OrderPrice: dec("10"), OrderVolume: message.Dec("1"), Side: message.Buy,
			State: message.OrderActive, ServerTime: at("10:00:00"), Portfolio: []string{"A", "B", "C"}[i%3],
		})
	}
	body, meta := encode(t, s, Version60, items)
	require.Equal(t, []string{"A", "B", "C"}, meta.Portfolios.Values())
	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)
	got, err := seq.Collect()
	require.NoError(t, err)
	requireRecords(t, items, got)
}
