// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package orderbook

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/message"
)

func q(price, volume string) message.Quote {
	return message.Quote{Price: decimal.RequireFromString(price), Volume: decimal.RequireFromString(volume)}
}

func book(state message.QuoteChangeState, bids, asks []message.Quote) message.QuoteChange {
	return message.QuoteChange{Bids: bids, Asks: asks, State: state}
}

func TestDeltaRoundTrip(t *testing.T) {
	from := book(message.QuoteStateNone,
		[]message.Quote{q("10.02", "5"), q("10.01", "7"), q("10.00", "1")},
		[]message.Quote{q("10.03", "2"), q("10.04", "9")})
	to := book(message.QuoteStateNone,
		[]message.Quote{q("10.02", "5"), q("10.01", "8"), q("9.99", "4")},
		[]message.Quote{q("10.04", "9"), q("10.05", "1")})

	d := GetDelta(from, to)
	require.Equal(t, "[10.01 x 8, 9.99 x 4, 10 x 0]", formatSide(d.Bids))
	require.Equal(t, "[10.05 x 1, 10.03 x 0]", formatSide(d.Asks))

	got := AddDelta(from, d)
	require.Equal(t, to.String(), got.String())
	require.True(t, IsSorted(got.Bids, true))
	require.True(t, IsSorted(got.Asks, false))

	// Identical books have an empty delta.
	d = GetDelta(to, to)
	require.Empty(t, d.Bids)
	require.Empty(t, d.Asks)
}

func TestDeltaOrdersCount(t *testing.T) {
	n1, n2 := int32(1), int32(2)
	a := q("1", "1")
	a.OrdersCount = &n1
	b := q("1", "1")
	b.OrdersCount = &n2
	d := GetDelta(book(0, []message.Quote{a}, nil), book(0, []message.Quote{b}, nil))
	require.Len(t, d.Bids, 1)
	require.Equal(t, int32(2), *d.Bids[0].OrdersCount)
}

func TestIncrementBuilder(t *testing.T) {
	var b IncrementBuilder
	inc := book(message.Increment, []message.Quote{q("10", "1")}, nil)

	// Increments without a book are ignored.
	for i := 0; i < 3; i++ {
		_, ok := b.TryApply(inc)
		require.False(t, ok)
		require.False(t, b.HasBook())
	}

	_, ok := b.TryApply(book(message.SnapshotStarted, []message.Quote{q("10", "2")}, nil))
	require.False(t, ok)
	_, ok = b.TryApply(book(message.SnapshotBuilding, nil, []message.Quote{q("11", "3")}))
	require.False(t, ok)
	full, ok := b.TryApply(book(message.SnapshotComplete, []message.Quote{q("9", "1")}, nil))
	require.True(t, ok)
	require.Equal(t, message.QuoteStateNone, full.State)
	require.Equal(t, "[10 x 2, 9 x 1]", formatSide(full.Bids))
	require.Equal(t, "[11 x 3]", formatSide(full.Asks))

	full, ok = b.TryApply(book(message.Increment, []message.Quote{q("10", "0"), q("9.5", "4")}, nil))
	require.True(t, ok)
	require.Equal(t, "[9.5 x 4, 9 x 1]", formatSide(full.Bids))
	require.True(t, b.HasBook())

	got, ok := b.Book()
	require.True(t, ok)
	require.Equal(t, full.String(), got.String())
}

func formatSide(qs []message.Quote) string {
	parts := make([]string, len(qs))
	for i := range qs {
		parts[i] = qs[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
