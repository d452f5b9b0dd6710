// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an execution report: an order state change, a fill, or
// both.
type Transaction struct {
	ServerTime            time.Time
	LocalTime             time.Time
	TransactionID         int64
	OriginalTransactionID *int64

	HasOrderInfo  bool
	OrderID       *int64
	OrderStringID string
	OrderPrice    decimal.Decimal
	OrderVolume   decimal.NullDecimal
	VisibleVolume decimal.NullDecimal
	Balance       decimal.NullDecimal
	Side          Side
	OrderType     *int32
	OrderState    OrderState
	OrderStatus   *int64
	TimeInForce   TimeInForce
	ExpiryDate    *time.Time
	IsSystem      *bool

	HasTradeInfo bool
	TradeID      *int64
	TradePrice   decimal.NullDecimal
	TradeVolume  decimal.NullDecimal
	TradeStatus  *int64

	Commission         decimal.NullDecimal
	CommissionCurrency string
	PnL                decimal.NullDecimal
	Position           decimal.NullDecimal
	Slippage           decimal.NullDecimal
	Latency            *time.Duration

	Portfolio   string
	ClientCode  string
	BrokerCode  string
	DepoName    string
	Comment     string
	UserOrderID string
	StrategyID  string
	Error       string

	Currency      Currency
	IsMarketMaker *bool
	IsMargin      *bool
	SeqNum        int64
}

// String implements fmt.Stringer.
func (t Transaction) String() string {
	f := newFormatter("txn")
	f.instant("t", t.ServerTime)
	f.instant("local", t.LocalTime)
	f.integer("id", t.TransactionID)
	f.value("orig", t.OriginalTransactionID)
	if t.HasOrderInfo {
		f.str("order", "yes")
		f.value("order-id", t.OrderID)
		f.str("order-sid", t.OrderStringID)
		f.dec("px", t.OrderPrice)
		f.nullDec("vol", t.OrderVolume)
		f.nullDec("visible", t.VisibleVolume)
		f.nullDec("balance", t.Balance)
		if t.Side != SideNone {
			f.str("side", t.Side.String())
		}
		f.value("type", t.OrderType)
		if t.OrderState != OrderStateNone {
			f.str("state", t.OrderState.String())
		}
		f.value("status", t.OrderStatus)
		f.integer("tif", int64(t.TimeInForce))
		f.value("expiry", t.ExpiryDate)
		f.value("system", t.IsSystem)
	}
	if t.HasTradeInfo {
		f.str("trade", "yes")
		f.value("trade-id", t.TradeID)
		f.nullDec("trade-px", t.TradePrice)
		f.nullDec("trade-vol", t.TradeVolume)
		f.value("trade-status", t.TradeStatus)
	}
	f.nullDec("commission", t.Commission)
	f.str("commission-ccy", t.CommissionCurrency)
	f.nullDec("pnl", t.PnL)
	f.nullDec("position", t.Position)
	f.nullDec("slippage", t.Slippage)
	f.value("latency", t.Latency)
	f.str("portfolio", t.Portfolio)
	f.str("client", t.ClientCode)
	f.str("broker", t.BrokerCode)
	f.str("depo", t.DepoName)
	f.str("comment", t.Comment)
	f.str("user-order", t.UserOrderID)
	f.str("strategy", t.StrategyID)
	f.str("error", t.Error)
	f.integer("ccy", int64(t.Currency))
	f.value("mm", t.IsMarketMaker)
	f.value("margin", t.IsMargin)
	f.integer("seq", t.SeqNum)
	return f.String()
}
