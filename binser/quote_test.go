// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/message"
)

func q(price, volume string) message.Quote {
	return message.Quote{Price: dec(price), Volume: dec(volume)}
}

func testBooks() [][]message.QuoteChange {
	return [][]message.QuoteChange{
		{
			{
				ServerTime: at("10:00:00"),
				Bids:       []message.Quote{q("10.00", "5"), q("9.99", "10"), q("9.95", "1")},
				Asks:       []message.Quote{q("10.01", "7"), q("10.05", "2")},
			},
			{
				// A changed level, a removed level and a new level.
				ServerTime: at("10:00:00.25"),
				Bids:       []message.Quote{q("10.00", "6"), q("9.95", "1"), q("9.90", "100")},
				Asks:       []message.Quote{q("10.01", "7"), q("10.05", "2")},
			},
			{
				ServerTime: at("10:00:01"),
			},
		},
		{
			{
				ServerTime: at("10:00:02"),
				Bids:       []message.Quote{q("10.02", "1")},
				Asks:       []message.Quote{q("10.03", "1")},
			},
			{
				ServerTime: at("10:00:02"),
				Bids:       []message.Quote{q("10.02", "1")},
				Asks:       []message.Quote{q("10.03", "1")},
			},
		},
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	var want []message.QuoteChange
	for _, b := range testBooks() {
		want = append(want, b...)
	}
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			requireRecords(t, want, roundTrip(t, s, v, testBooks()...))
		})
	}
}

func TestQuoteAllFields(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	books := []message.QuoteChange{
		{
			ServerTime: at("10:00:00.0000001"), LocalTime: at("10:00:00.001"), SeqNum: 1,
			State: message.SnapshotStarted,
			Bids:  []message.Quote{{Price: dec("100.5"), Volume: dec("0.5"), OrdersCount: message.Int32(3)}},
		},
		{
			ServerTime: at("10:00:00.0000002"), LocalTime: at("10:00:00.002"), SeqNum: 2,
			State: message.SnapshotComplete,
			Asks:  []message.Quote{{Price: dec("100.525"), Volume: dec("1.25")}},
		},
		{
			ServerTime: at("10:00:00.5"), LocalTime: at("10:00:00.6"), SeqNum: 3,
			State: message.Increment,
			Bids:  []message.Quote{{Price: dec("100.5"), Volume: dec("0")}},
		},
	}
	requireRecords(t, books, roundTrip(t, s, Version55, books))
}

// TestQuoteHasSnapshot pins the snapshot flag: increments without a prior
// snapshot never produce a full book, and once one is produced the flag
// stays set for the rest of the day.
func TestQuoteHasSnapshot(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	inc := func(clock, price, volume string) message.QuoteChange {
		return message.QuoteChange{
			ServerTime: at(clock), State: message.Increment,
			Bids: []message.Quote{q(price, volume)},
		}
	}
	meta := s.CreateMetaInfo(testDay)
	var body []byte
	var err error

	body, err = s.Serialize(body, []message.QuoteChange{
		inc("10:00:00", "10", "1"),
		inc("10:00:01", "10", "2"),
		inc("10:00:02", "9.5", "3"),
	}, meta)
	require.NoError(t, err)
	require.False(t, meta.HasSnapshot)

	body, err = s.Serialize(body, []message.QuoteChange{
		{ServerTime: at("10:00:03"), State: message.SnapshotStarted, Bids: []message.Quote{q("10", "1")}},
		{ServerTime: at("10:00:03"), State: message.SnapshotComplete, Asks: []message.Quote{q("10.5", "1")}},
	}, meta)
	require.NoError(t, err)
	require.True(t, meta.HasSnapshot)

	body, err = s.Serialize(body, []message.QuoteChange{inc("10:00:04", "10", "0")}, meta)
	require.NoError(t, err)
	require.True(t, meta.HasSnapshot)

	hdr, err := s.MarshalMetaInfo(meta)
	require.NoError(t, err)
	decoded, err := s.UnmarshalMetaInfo(hdr)
	require.NoError(t, err)
	require.True(t, decoded.HasSnapshot)
	seq, err := s.Deserialize(body, decoded)
	require.NoError(t, err)
	require.Equal(t, 6, seq.Len())

	// Versions without the flag never set it.
	old := s.CreateMetaInfo(testDay)
	old.Version = Version52
	_, err = s.Serialize(nil, []message.QuoteChange{{ServerTime: at("10:00:00"), Bids: []message.Quote{q("10", "1")}}}, old)
	require.NoError(t, err)
	require.False(t, old.HasSnapshot)
}

// TestQuoteSnapshotAcrossParts checks that a snapshot whose parts are
// appended separately completes the day's book.
func TestQuoteSnapshotAcrossParts(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	body, err := s.Serialize(nil, []message.QuoteChange{
		{ServerTime: at("10:00:00"), State: message.SnapshotStarted, Bids: []message.Quote{q("10", "1")}},
	}, meta)
	require.NoError(t, err)
	require.False(t, meta.HasSnapshot)

	body, err = s.Serialize(body, []message.QuoteChange{
		{ServerTime: at("10:00:00"), State: message.SnapshotBuilding, Bids: []message.Quote{q("9.5", "2")}},
	}, meta)
	require.NoError(t, err)
	require.False(t, meta.HasSnapshot)

	body, err = s.Serialize(body, []message.QuoteChange{
		{ServerTime: at("10:00:01"), State: message.SnapshotComplete, Asks: []message.Quote{q("10.5", "1")}},
	}, meta)
	require.NoError(t, err)
	require.True(t, meta.HasSnapshot)

	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)
	book, ok, err := QuoteSnapshot(seq)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"10 x 1", "9.5 x 2"}, levels(book.Bids))
	require.Equal(t, []string{"10.5 x 1"}, levels(book.Asks))
}

// TestQuoteSnapshot checks the books synthesized while reading: increments
// before any snapshot are ignored, and later ones patch the snapshot.
func TestQuoteSnapshot(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	books := []message.QuoteChange{
		{ServerTime: at("10:00:00"), State: message.Increment, Bids: []message.Quote{q("11", "1")}},
		{ServerTime: at("10:00:01"), State: message.Increment, Asks: []message.Quote{q("12", "1")}},
		{ServerTime: at("10:00:02"), State: message.SnapshotStarted, Bids: []message.Quote{q("10", "1")}},
		{ServerTime: at("10:00:02"), State: message.SnapshotComplete, Asks: []message.Quote{q("10.5", "3")}},
		{ServerTime: at("10:00:03"), State: message.Increment, Bids: []message.Quote{q("10", "0"), q("9.9", "4")}},
	}
	body, meta := encode(t, s, Version55, books[:2], books[2:])
	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)

	e := seq.Enumerator()
	_, ok := QuoteBook(e)
	require.False(t, ok)
	for i := 0; i < 2; i++ {
		require.True(t, e.MoveNext())
		_, ok = QuoteBook(e)
		require.False(t, ok, "record %d", i)
	}
	require.True(t, e.MoveNext())
	_, ok = QuoteBook(e)
	require.False(t, ok)
	require.True(t, e.MoveNext())
	book, ok := QuoteBook(e)
	require.True(t, ok)
	require.Equal(t, []string{"10 x 1"}, levels(book.Bids))
	require.Equal(t, message.QuoteStateNone, book.State)

	book, ok, err = QuoteSnapshot(seq)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"9.9 x 4"}, levels(book.Bids))
	require.Equal(t, []string{"10.5 x 3"}, levels(book.Asks))

	// The snapshot is cached and callers get their own copy.
	book.Bids[0].Volume = dec("100")
	again, _, err := QuoteSnapshot(seq)
	require.NoError(t, err)
	require.Equal(t, []string{"9.9 x 4"}, levels(again.Bids))

	seq, err = s.Deserialize(body[:0], s.CreateMetaInfo(testDay))
	require.NoError(t, err)
	_, ok, err = QuoteSnapshot(seq)
	require.NoError(t, err)
	require.False(t, ok)
}

func levels(qs []message.Quote) []string {
	out := make([]string, len(qs))
	for i, l := range qs {
		out[i] = l.Price.String() + " x " + l.Volume.String()
	}
	return out
}

func TestQuoteValidation(t *testing.T) {
	s := NewQuoteSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	for _, c := range []struct {
		v    Version
		book message.QuoteChange
		want error
	}{
		{Version52, message.QuoteChange{ServerTime: at("10:00:00"), State: message.Increment}, ErrUnsupportedValue},
		{Version55, message.QuoteChange{ServerTime: at("10:00:00"), State: 7}, ErrUnsupportedValue},
		{Version55, message.QuoteChange{
			ServerTime: at("10:00:00"), Bids: []message.Quote{q("9", "1"), q("10", "1")},
		}, ErrInvalidDomainState},
		{Version55, message.QuoteChange{
			ServerTime: at("10:00:00"), Asks: []message.Quote{q("10", "-1")},
		}, ErrInvalidDomainState},
		{Version43, message.QuoteChange{
			ServerTime: at("10:00:00"), Asks: []message.Quote{q("10", "1.5")},
		}, ErrUnsupportedValue},
	} {
		meta.Version = c.v
		_, err := s.Serialize(nil, []message.QuoteChange{c.book}, meta)
		require.True(t, errors.Is(err, c.want), "%s: %v", c.v, err)
	}
}
