// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"
	"slices"
	"time"
)

// PositionField identifies a position or portfolio statistic.
type PositionField int32

// PositionField values. The numeric values are persisted and must never
// change.
const (
	PosBeginValue PositionField = iota + 1
	PosCurrentValue
	PosBlockedValue
	PosCurrentPrice
	PosAveragePrice
	PosUnrealizedPnL
	PosRealizedPnL
	PosVariationMargin
	PosLeverage
	PosCommission
	PosCurrentValueInLots
	PosSettlementPrice
	PosCommissionMaker
	PosCommissionTaker
	PosBuyOrdersCount
	PosSellOrdersCount
	PosExpirationDate
	PosState
)

var positionNames = [...]string{
	"", "begin", "current", "blocked", "price", "avg-price", "upnl", "rpnl", "vm",
	"leverage", "commission", "lots", "settlement", "commission-maker",
	"commission-taker", "buy-orders", "sell-orders", "expiration", "state",
}

// String implements fmt.Stringer.
func (f PositionField) String() string {
	if f > 0 && int(f) < len(positionNames) {
		return positionNames[f]
	}
	return fmt.Sprintf("field(%d)", int32(f))
}

// PositionChange is a set of position statistic updates for one portfolio and
// instrument. Values are decimal.Decimal, int32 or time.Time depending on the
// field.
type PositionChange struct {
	ServerTime    time.Time
	LocalTime     time.Time
	PortfolioName string
	ClientCode    string
	DepoName      string
	LimitType     *int32
	StrategyID    string
	Changes       map[PositionField]any
	BuildFrom     *DataType
	SeqNum        int64
}

// Fields returns the changed fields in ascending order.
func (p PositionChange) Fields() []PositionField {
	fields := make([]PositionField, 0, len(p.Changes))
	for f := range p.Changes {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// String implements fmt.Stringer.
func (p PositionChange) String() string {
	f := newFormatter("pos")
	f.instant("t", p.ServerTime)
	f.instant("local", p.LocalTime)
	f.str("portfolio", p.PortfolioName)
	f.str("client", p.ClientCode)
	f.str("depo", p.DepoName)
	f.value("limit", p.LimitType)
	f.str("strategy", p.StrategyID)
	for _, field := range p.Fields() {
		f.value(field.String(), p.Changes[field])
	}
	f.value("from", p.BuildFrom)
	f.integer("seq", p.SeqNum)
	return f.String()
}
