// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package orderbook diffs, patches and assembles order book records.
//
// Two levels of a side are the same level when their prices are equal. A
// delta lists the levels whose volume or order count changed; a level with a
// zero volume removes the level.
package orderbook

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/message"
)

// GetDelta returns the delta that turns the full book from into to. The
// delta carries the times, state and sequence number of to.
func GetDelta(from, to message.QuoteChange) message.QuoteChange {
	d := to
	d.Bids = sideDelta(from.Bids, to.Bids)
	d.Asks = sideDelta(from.Asks, to.Asks)
	return d
}

// AddDelta applies delta to the full book from and returns the resulting
// book. The result carries the times, state and sequence number of delta.
func AddDelta(from, delta message.QuoteChange) message.QuoteChange {
	b := delta
	b.Bids = applySide(from.Bids, delta.Bids, true)
	b.Asks = applySide(from.Asks, delta.Asks, false)
	return b
}

func sideDelta(from, to []message.Quote) []message.Quote {
	var d []message.Quote
	for _, q := range to {
		i := find(from, q.Price)
		if i < 0 || !sameLevel(from[i], q) {
			d = append(d, q)
		}
	}
	for _, q := range from {
		if find(to, q.Price) < 0 {
			d = append(d, message.Quote{Price: q.Price})
		}
	}
	return d
}

func applySide(from, delta []message.Quote, bids bool) []message.Quote {
	book := slices.Clone(from)
	for _, q := range delta {
		i := find(book, q.Price)
		switch {
		case q.Volume.IsZero() && i >= 0:
			book = slices.Delete(book, i, i+1)
		case q.Volume.IsZero():
		case i >= 0:
			book[i] = q
		default:
			book = append(book, q)
		}
	}
	Sort(book, bids)
	return book
}

// Sort orders the levels of one side: bids by descending price, asks by
// ascending price.
func Sort(qs []message.Quote, bids bool) {
	slices.SortStableFunc(qs, func(a, b message.Quote) int {
		if bids {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})
}

// IsSorted reports whether the levels of one side are strictly ordered.
func IsSorted(qs []message.Quote, bids bool) bool {
	for i := 1; i < len(qs); i++ {
		c := qs[i-1].Price.Cmp(qs[i].Price)
		if (bids && c <= 0) || (!bids && c >= 0) {
			return false
		}
	}
	return true
}

func find(qs []message.Quote, price decimal.Decimal) int {
	for i := range qs {
		if qs[i].Price.Equal(price) {
			return i
		}
	}
	return -1
}

func sameLevel(a, b message.Quote) bool {
	if !a.Volume.Equal(b.Volume) {
		return false
	}
	switch {
	case a.OrdersCount == nil && b.OrdersCount == nil:
		return true
	case a.OrdersCount == nil || b.OrdersCount == nil:
		return false
	default:
		return *a.OrdersCount == *b.OrdersCount
	}
}
