// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is a single trade.
type Tick struct {
	TradeID      int64
	Price        decimal.Decimal
	Volume       decimal.Decimal
	Side         Side
	ServerTime   time.Time
	LocalTime    time.Time
	OpenInterest decimal.NullDecimal
	IsUpTick     *bool
	OrderBuyID   *int64
	OrderSellID  *int64
	IsSystem     *bool
	Currency     Currency
	SeqNum       int64
}

// String implements fmt.Stringer.
func (t Tick) String() string {
	f := newFormatter("tick")
	f.integer("id", t.TradeID)
	f.dec("px", t.Price)
	f.dec("vol", t.Volume)
	if t.Side != SideNone {
		f.str("side", t.Side.String())
	}
	f.instant("t", t.ServerTime)
	f.instant("local", t.LocalTime)
	f.nullDec("oi", t.OpenInterest)
	f.value("up", t.IsUpTick)
	f.value("buy-order", t.OrderBuyID)
	f.value("sell-order", t.OrderSellID)
	f.value("system", t.IsSystem)
	f.integer("ccy", int64(t.Currency))
	f.integer("seq", t.SeqNum)
	return f.String()
}
