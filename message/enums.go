// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SecurityID identifies an instrument on a board.
type SecurityID struct {
	SecurityCode string
	BoardCode    string
}

// String implements fmt.Stringer.
func (s SecurityID) String() string {
	return s.SecurityCode + "@" + s.BoardCode
}

// ParseSecurityID parses the CODE@BOARD form produced by String.
func ParseSecurityID(s string) (SecurityID, error) {
	code, board, ok := strings.Cut(s, "@")
	if !ok || code == "" || board == "" {
		return SecurityID{}, errors.Newf("invalid security id %q", s)
	}
	return SecurityID{SecurityCode: code, BoardCode: board}, nil
}

// Side is the direction of an order or trade. The zero value means the side
// is unknown.
type Side int8

// Side values.
const (
	SideNone Side = iota
	Buy
	Sell
)

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "none"
	}
}

// OrderState is the lifecycle state of an order.
type OrderState int8

// OrderState values.
const (
	OrderStateNone OrderState = iota
	OrderPending
	OrderActive
	OrderDone
	OrderFailed
)

// String implements fmt.Stringer.
func (s OrderState) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderActive:
		return "active"
	case OrderDone:
		return "done"
	case OrderFailed:
		return "failed"
	default:
		return "none"
	}
}

// TimeInForce is the execution condition of an order.
type TimeInForce int8

// TimeInForce values.
const (
	TimeInForceNone TimeInForce = iota
	PutInQueue
	MatchOrCancel
	CancelBalance
)

// CandleState is the build state of a candle. Only finished candles are
// persisted.
type CandleState int8

// CandleState values.
const (
	CandleStateNone CandleState = iota
	CandleActive
	CandleFinished
)

// String implements fmt.Stringer.
func (s CandleState) String() string {
	switch s {
	case CandleActive:
		return "active"
	case CandleFinished:
		return "finished"
	default:
		return "none"
	}
}

// QuoteChangeState tags an order book record as part of a snapshot or as an
// increment. The zero value marks a full book without incremental semantics.
type QuoteChangeState int8

// QuoteChangeState values.
const (
	QuoteStateNone QuoteChangeState = iota
	SnapshotStarted
	SnapshotBuilding
	SnapshotComplete
	Increment
)

// String implements fmt.Stringer.
func (s QuoteChangeState) String() string {
	switch s {
	case SnapshotStarted:
		return "snapshot-started"
	case SnapshotBuilding:
		return "snapshot-building"
	case SnapshotComplete:
		return "snapshot-complete"
	case Increment:
		return "increment"
	default:
		return "none"
	}
}

// SessionState is the trading state of a board.
type SessionState int8

// SessionState values.
const (
	SessionNone SessionState = iota
	SessionAssigned
	SessionActive
	SessionPaused
	SessionForceStopped
	SessionEnded
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SessionAssigned:
		return "assigned"
	case SessionActive:
		return "active"
	case SessionPaused:
		return "paused"
	case SessionForceStopped:
		return "force-stopped"
	case SessionEnded:
		return "ended"
	default:
		return "none"
	}
}

// Currency is an ISO 4217 numeric currency code. Zero means unknown.
type Currency int16

// A handful of common currencies.
const (
	CurrencyNone Currency = 0
	USD          Currency = 840
	EUR          Currency = 978
	RUB          Currency = 643
	GBP          Currency = 826
	JPY          Currency = 392
	CNY          Currency = 156
)
