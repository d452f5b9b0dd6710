// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/message"
)

func basicTicks() [][]message.Tick {
	return [][]message.Tick{
		{
			{TradeID: 1, Price: dec("10.00"), Volume: dec("5"), Side: message.Buy, ServerTime: at("10:00:00")},
			{TradeID: 2, Price: dec("10.05"), Volume: dec("3"), Side: message.Sell, ServerTime: at("10:00:00.5")},
			{TradeID: 5, Price: dec("9.90"), Volume: dec("100"), Side: message.Sell, ServerTime: at("10:00:59.5")},
		},
		{
			{TradeID: 4, Price: dec("9.95"), Volume: dec("1"), Side: message.Buy, ServerTime: at("10:02:00.001")},
			{TradeID: 9, Price: dec("11.20"), Volume: dec("7"), Side: message.Buy, ServerTime: at("14:30:00")},
		},
	}
}

func TestTickRoundTrip(t *testing.T) {
	s := NewTickSerializer(testSec)
	batches := basicTicks()
	var want []message.Tick
	for _, b := range batches {
		want = append(want, b...)
	}
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			requireRecords(t, want, roundTrip(t, s, v, batches...))
		})
	}
}

func TestTickAllFields(t *testing.T) {
	s := NewTickSerializer(testSec)
	ticks := []message.Tick{
		{
			TradeID: 100, Price: dec("250.5"), Volume: dec("1.25"), Side: message.Buy,
			ServerTime: at("10:00:00.1234567"), LocalTime: at("10:00:00.2234567"),
			OpenInterest: message.Dec("12000"), IsUpTick: message.Bool(true),
			OrderBuyID: message.Int64(7), OrderSellID: message.Int64(8),
			IsSystem: message.Bool(false), Currency: 643, SeqNum: 5,
		},
		{
			TradeID: 101, Price: dec("250.537"), Volume: dec("0.001"), Side: message.Sell,
			ServerTime: at("09:59:59.9"), LocalTime: at("10:00:01"),
			SeqNum: 6,
		},
		{
			TradeID: 99, Price: dec("1e27"), Volume: dec("3"),
			ServerTime: at("10:00:02"), LocalTime: at("10:00:02.5"), Currency: 840, SeqNum: 7,
		},
	}
	requireRecords(t, ticks, roundTrip(t, s, Version54, ticks))
}

// TestTickConcrete pins the documented two-trade example: the trade ids are
// stored as deltas of one from a zero anchor.
func TestTickConcrete(t *testing.T) {
	s := NewTickSerializer(testSec, WithPriceStep(dec("0.01")))
	t0 := at("10:00:00")
	ticks := []message.Tick{
		{TradeID: 1, Price: dec("10.00"), Volume: dec("5"), Side: message.Buy, ServerTime: t0},
		{TradeID: 2, Price: dec("10.05"), Volume: dec("3"), Side: message.Sell, ServerTime: t0.Add(500 * time.Millisecond)},
	}
	body, meta := encode(t, s, Version54, ticks)
	require.EqualValues(t, 0, meta.FirstTradeID)
	require.EqualValues(t, 2, meta.LastTradeID)

	r := bitstream.NewReader(body)
	n, err := r.ReadInt32()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	delta, err := r.ReadInt64()
	require.NoError(t, err)
	require.EqualValues(t, 1, delta)

	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)
	e := seq.Enumerator()
	var ids []int64
	prev := meta.FirstTradeID
	for e.MoveNext() {
		last := e.MetaInfo().LastTradeID
		ids = append(ids, last-prev)
		prev = last
	}
	require.NoError(t, e.Err())
	require.Equal(t, []int64{1, 1}, ids)
}

func TestTickTruncation(t *testing.T) {
	s := NewTickSerializer(testSec)
	tick := message.Tick{
		TradeID: 1, Price: dec("10"), Volume: dec("1"), Side: message.Buy,
		ServerTime: at("10:00:00.1234567"),
	}
	got := roundTrip(t, s, Version52, []message.Tick{tick})
	require.True(t, at("10:00:00.123").Equal(got[0].ServerTime), "%s", got[0].ServerTime)
	got = roundTrip(t, s, Version53, []message.Tick{tick})
	require.True(t, at("10:00:00.1234567").Equal(got[0].ServerTime), "%s", got[0].ServerTime)
}

// TestTickAtomicBatch checks that a batch failing validation or encoding
// leaves both the body and the header untouched.
func TestTickAtomicBatch(t *testing.T) {
	s := NewTickSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	meta.Version = Version43
	body, err := s.Serialize(nil, basicTicks()[0], meta)
	require.NoError(t, err)
	hdr, err := s.MarshalMetaInfo(meta)
	require.NoError(t, err)

	for _, bad := range [][]message.Tick{
		{
			{TradeID: 10, Price: dec("10"), Volume: dec("1"), Side: message.Buy, ServerTime: at("11:00:00")},
			{TradeID: 11, Price: dec("10"), Volume: dec("-1"), Side: message.Buy, ServerTime: at("11:00:01")},
		},
		{
			{TradeID: 10, Price: dec("10"), Volume: dec("1.5"), Side: message.Buy, ServerTime: at("11:00:00")},
		},
		{
			// Ordered streams cannot go back in time.
			{TradeID: 10, Price: dec("10"), Volume: dec("1"), Side: message.Buy, ServerTime: at("11:00:00")},
			{TradeID: 11, Price: dec("10"), Volume: dec("1"), Side: message.Buy, ServerTime: at("09:00:00")},
		},
	} {
		out, err := s.Serialize(body, bad, meta)
		require.Error(t, err)
		require.Equal(t, body, out)
		after, err := s.MarshalMetaInfo(meta)
		require.NoError(t, err)
		require.Equal(t, hdr, after)
	}

	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)
	got, err := seq.Collect()
	require.NoError(t, err)
	requireRecords(t, basicTicks()[0], got)
}

func TestTickValidation(t *testing.T) {
	s := NewTickSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	meta.Version = Version43
	_, err := s.Serialize(nil, []message.Tick{
		{TradeID: 1, Price: dec("10"), Volume: dec("0.5"), Side: message.Buy, ServerTime: at("10:00:00")},
	}, meta)
	require.True(t, errors.Is(err, ErrUnsupportedValue), "%v", err)

	meta.Version = Version54
	_, err = s.Serialize(nil, []message.Tick{
		{TradeID: 1, Price: dec("10"), Volume: dec("-2"), Side: message.Buy, ServerTime: at("10:00:00")},
	}, meta)
	require.True(t, errors.Is(err, ErrInvalidDomainState), "%v", err)
}

func TestEnumerator(t *testing.T) {
	s := NewTickSerializer(testSec)
	batches := basicTicks()
	body, meta := encode(t, s, Version54, batches...)
	seq, err := s.Deserialize(body, meta)
	require.NoError(t, err)
	require.Equal(t, 5, seq.Len())

	e := seq.Enumerator()
	require.Equal(t, BeforeFirst, e.State())
	require.Equal(t, -1, e.Index())
	var first []string
	for e.MoveNext() {
		require.Equal(t, InProgress, e.State())
		if e.Index() > 0 {
			prev, ok := e.Previous()
			require.True(t, ok)
			require.Equal(t, first[len(first)-1], prev.String())
		}
		first = append(first, e.Current().String())
	}
	require.NoError(t, e.Err())
	require.Equal(t, Exhausted, e.State())
	require.False(t, e.MoveNext())

	e.Reset()
	require.Equal(t, BeforeFirst, e.State())
	var second []string
	for e.MoveNext() {
		second = append(second, e.Current().String())
	}
	require.Equal(t, first, second)

	// Enumerations do not disturb the sequence's header.
	var third []string
	for tick, err := range seq.All() {
		require.NoError(t, err)
		third = append(third, tick.String())
	}
	require.Equal(t, first, third)
}

func TestEnumeratorCorruption(t *testing.T) {
	s := NewTickSerializer(testSec)
	body, meta := encode(t, s, Version54, basicTicks()...)

	for _, cut := range []int{0, 1, len(body) / 2, len(body) - 1} {
		t.Run(fmt.Sprint(cut), func(t *testing.T) {
			seq, err := s.Deserialize(body[:cut], meta)
			require.NoError(t, err)
			_, err = seq.Collect()
			require.Error(t, err)
		})
	}

	// A part holding more records than the header counts.
	short := *meta
	short.Count = 2
	seq, err := s.Deserialize(body, &short)
	require.NoError(t, err)
	var last error
	for _, err := range seq.All() {
		last = err
	}
	require.True(t, errors.Is(last, ErrCorruption), "%v", last)
}

func TestTickExchangeZone(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	tick := message.Tick{
		TradeID: 1, Price: dec("10"), Volume: dec("1"), Side: message.Buy,
		ServerTime: time.Date(2024, 3, 15, 10, 0, 0, 0, msk),
	}
	// Wall clock formats present readings in the fallback offset.
	s := NewTickSerializer(testSec, WithLocalOffset(3*time.Hour))
	got := roundTrip(t, s, Version47, []message.Tick{tick})
	require.True(t, tick.ServerTime.Equal(got[0].ServerTime))
	_, off := got[0].ServerTime.Zone()
	require.Equal(t, 3*60*60, off)

	// UTC formats present instants in the header's server offset.
	got = roundTrip(t, s, Version48, []message.Tick{tick})
	require.True(t, tick.ServerTime.Equal(got[0].ServerTime))
	_, off = got[0].ServerTime.Zone()
	require.Equal(t, 3*60*60, off)
}
