// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLogItem is one entry of the exchange's full order log: an order
// registration, a cancellation, or a match with its trade.
type OrderLogItem struct {
	OrderID       int64
	OrderPrice    decimal.Decimal
	OrderVolume   decimal.NullDecimal
	Balance       decimal.NullDecimal
	Side          Side
	State         OrderState
	Status        *int64
	TimeInForce   TimeInForce
	IsSystem      *bool
	TransactionID int64
	Portfolio     string
	Currency      Currency

	TradeID      int64
	TradePrice   decimal.NullDecimal
	OpenInterest decimal.NullDecimal

	ServerTime time.Time
	LocalTime  time.Time
	SeqNum     int64
}

// HasTrade returns true if the entry carries a match.
func (o OrderLogItem) HasTrade() bool {
	return o.TradeID != 0 || o.TradePrice.Valid
}

// String implements fmt.Stringer.
func (o OrderLogItem) String() string {
	f := newFormatter("ol")
	f.integer("order", o.OrderID)
	f.dec("px", o.OrderPrice)
	f.nullDec("vol", o.OrderVolume)
	f.nullDec("balance", o.Balance)
	f.str("side", o.Side.String())
	f.str("state", o.State.String())
	f.value("status", o.Status)
	f.integer("tif", int64(o.TimeInForce))
	f.value("system", o.IsSystem)
	f.integer("txn", o.TransactionID)
	f.str("portfolio", o.Portfolio)
	f.integer("ccy", int64(o.Currency))
	f.integer("trade", o.TradeID)
	f.nullDec("trade-px", o.TradePrice)
	f.nullDec("oi", o.OpenInterest)
	f.instant("t", o.ServerTime)
	f.instant("local", o.LocalTime)
	f.integer("seq", o.SeqNum)
	return f.String()
}
