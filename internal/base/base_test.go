// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestTicks(t *testing.T) {
	require.Zero(t, Ticks(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, unixEpochSeconds*TicksPerSecond, Ticks(time.Unix(0, 0)))

	for _, tm := range []time.Time{
		time.Date(1, 1, 1, 0, 0, 0, 100, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 999_999_900, time.UTC),
		time.Date(2024, 3, 15, 10, 0, 0, 123_456_700, time.UTC),
		time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	} {
		require.True(t, tm.Equal(FromTicks(Ticks(tm))), "%s", tm)
	}

	// Ticks is an absolute instant, WallTicks a clock reading.
	msk := time.FixedZone("MSK", 3*3600)
	tm := time.Date(2024, 3, 15, 10, 0, 0, 0, msk)
	require.Equal(t, Ticks(tm)+3*TicksPerHour, WallTicks(tm))
	require.True(t, tm.Equal(FromWallTicks(WallTicks(tm), msk)))
	require.Equal(t, "10:00:00", FromWallTicks(WallTicks(tm), msk).Format(time.TimeOnly))
	require.Equal(t, time.UTC, FromWallTicks(WallTicks(tm), nil).Location())
}

func TestDurationTicks(t *testing.T) {
	require.Equal(t, TicksPerHour, DurationTicks(time.Hour))
	require.Equal(t, int64(1), DurationTicks(199*time.Nanosecond))
	require.Equal(t, -90*time.Minute, TicksDuration(DurationTicks(-90*time.Minute)))
}

func TestTruncateTicks(t *testing.T) {
	tm := time.Date(2024, 3, 15, 10, 0, 0, 123_456_789, time.UTC)
	require.Equal(t, 123_000_000, TruncateTicks(tm, false).Nanosecond())
	require.Equal(t, 123_456_700, TruncateTicks(tm, true).Nanosecond())
}

func TestZone(t *testing.T) {
	require.Equal(t, time.UTC, Zone(0))
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, Zone(-5*time.Hour)).Zone()
	require.Equal(t, -5*3600, offset)
}

func TestErrorMarks(t *testing.T) {
	for _, c := range []struct {
		err  error
		mark error
	}{
		{PrecisionLossf("x"), ErrPrecisionLoss},
		{RangeOverflowf("x"), ErrRangeOverflow},
		{UnsupportedVersionf("x"), ErrUnsupportedVersion},
		{InvalidPricef("x"), ErrInvalidPrice},
		{UnsupportedValuef("x"), ErrUnsupportedValue},
		{InvalidDomainStatef("x"), ErrInvalidDomainState},
		{UnknownFieldf("x"), ErrUnknownField},
		{CorruptionErrorf("x"), ErrCorruption},
	} {
		wrapped := errors.Wrap(c.err, "context")
		require.True(t, errors.Is(wrapped, c.mark), "%v", wrapped)
		require.Equal(t, "context: x", wrapped.Error())
	}

	err := EndOfStreamf("reading %d bits", 3)
	require.True(t, errors.Is(err, ErrEndOfStream))
	require.True(t, errors.Is(err, ErrCorruption))
	require.False(t, errors.Is(UnsupportedValuef("x"), ErrCorruption))

	marked := MarkCorruptionError(err)
	require.Equal(t, err, marked)
}

func TestInMemLogger(t *testing.T) {
	var l InMemLogger
	l.Infof("appended %d", 3)
	l.Errorf("failed: %s", "boom")
	require.Equal(t, []string{"appended 3", "error: failed: boom"}, l.Lines())
	require.Panics(t, func() { l.Fatalf("fatal") })
	require.Panics(t, func() { NoopLogger{}.Fatalf("fatal") })
}
