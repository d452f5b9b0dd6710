// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/redact"
)

// Level1Field identifies a top-of-book or instrument statistic.
type Level1Field int32

// Level1Field values. The numeric values are persisted and must never change.
const (
	L1OpenPrice Level1Field = iota + 1
	L1HighPrice
	L1LowPrice
	L1ClosePrice
	L1StepPrice
	L1BestBidPrice
	L1BestBidVolume
	L1BestAskPrice
	L1BestAskVolume
	L1ImpliedVolatility
	L1TheorPrice
	L1OpenInterest
	L1MinPrice
	L1MaxPrice
	L1BidsVolume
	L1BidsCount
	L1AsksVolume
	L1AsksCount
	L1HistoricalVolatility
	L1Delta
	L1Gamma
	L1Vega
	L1Theta
	L1MarginBuy
	L1MarginSell
	L1PriceStep
	L1VolumeStep
	L1LastTradeTime
	L1LastTradePrice
	L1LastTradeVolume
	L1Volume
	L1AveragePrice
	L1SettlementPrice
	L1Change
	L1BestBidTime
	L1BestAskTime
	L1Rho
	L1AccruedCouponIncome
	L1HighBidPrice
	L1LowAskPrice
	L1Yield
	L1TradesCount
	L1VWAP
	L1LastTradeID
	L1State
	L1LastTradeUpDown
	L1LastTradeOrigin
	L1Multiplier
	L1Turnover
	L1Duration
)

var level1Names = [...]string{
	"", "open", "high", "low", "close", "step-price", "bid", "bid-vol", "ask", "ask-vol",
	"iv", "theor", "oi", "min", "max", "bids-vol", "bids-count", "asks-vol", "asks-count",
	"hv", "delta", "gamma", "vega", "theta", "margin-buy", "margin-sell", "price-step",
	"volume-step", "last-time", "last-px", "last-vol", "volume", "avg-px", "settlement",
	"change", "bid-time", "ask-time", "rho", "aci", "high-bid", "low-ask", "yield",
	"trades", "vwap", "last-id", "state", "last-updown", "last-origin", "multiplier",
	"turnover", "duration",
}

// String implements fmt.Stringer.
func (f Level1Field) String() string {
	if f > 0 && int(f) < len(level1Names) {
		return level1Names[f]
	}
	return fmt.Sprintf("field(%d)", int32(f))
}

// SafeFormat implements redact.SafeFormatter.
func (f Level1Field) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// Level1Change is a set of field updates observed at one instant. Values are
// decimal.Decimal, int32, int64, bool, Side or time.Time depending on the
// field.
type Level1Change struct {
	ServerTime time.Time
	LocalTime  time.Time
	Changes    map[Level1Field]any
	SeqNum     int64
}

// Fields returns the changed fields in ascending order.
func (c Level1Change) Fields() []Level1Field {
	fields := make([]Level1Field, 0, len(c.Changes))
	for f := range c.Changes {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// String implements fmt.Stringer.
func (c Level1Change) String() string {
	f := newFormatter("level1")
	f.instant("t", c.ServerTime)
	f.instant("local", c.LocalTime)
	for _, field := range c.Fields() {
		f.value(field.String(), c.Changes[field])
	}
	f.integer("seq", c.SeqNum)
	return f.String()
}
