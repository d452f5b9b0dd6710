// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one price level of an order book.
type Quote struct {
	Price       decimal.Decimal
	Volume      decimal.Decimal
	OrdersCount *int32
}

// String implements fmt.Stringer.
func (q Quote) String() string {
	if q.OrdersCount != nil {
		return fmt.Sprintf("%s x %s (%d)", q.Price, q.Volume, *q.OrdersCount)
	}
	return fmt.Sprintf("%s x %s", q.Price, q.Volume)
}

// QuoteChange is an order book record: a full book, a part of a snapshot or
// an increment depending on State. Bids are ordered by descending price and
// asks by ascending price.
type QuoteChange struct {
	ServerTime time.Time
	LocalTime  time.Time
	Bids       []Quote
	Asks       []Quote
	State      QuoteChangeState
	SeqNum     int64
}

// Clone returns a deep copy of q.
func (q QuoteChange) Clone() QuoteChange {
	q.Bids = append([]Quote(nil), q.Bids...)
	q.Asks = append([]Quote(nil), q.Asks...)
	return q
}

// String implements fmt.Stringer.
func (q QuoteChange) String() string {
	f := newFormatter("book")
	f.instant("t", q.ServerTime)
	f.instant("local", q.LocalTime)
	if q.State != QuoteStateNone {
		f.str("state", q.State.String())
	}
	f.str("bids", formatQuotes(q.Bids))
	f.str("asks", formatQuotes(q.Asks))
	f.integer("seq", q.SeqNum)
	return f.String()
}

func formatQuotes(qs []Quote) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = q.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
