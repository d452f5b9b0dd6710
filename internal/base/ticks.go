// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "time"

// Tick units.
const (
	TicksPerMillisecond int64 = 10_000
	TicksPerSecond            = 1000 * TicksPerMillisecond
	TicksPerMinute            = 60 * TicksPerSecond
	TicksPerHour              = 60 * TicksPerMinute
	TicksPerDay               = 24 * TicksPerHour
)

// unixEpochSeconds is the number of seconds between 0001-01-01 and
// 1970-01-01.
const unixEpochSeconds int64 = 62135596800

// Ticks returns the absolute instant t as ticks since 0001-01-01 UTC.
func Ticks(t time.Time) int64 {
	return (t.Unix()+unixEpochSeconds)*TicksPerSecond + int64(t.Nanosecond()/100)
}

// WallTicks returns the wall clock reading of t, in t's own location, as
// ticks since 0001-01-01.
func WallTicks(t time.Time) int64 {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Ticks(time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC))
}

// FromTicks converts ticks since 0001-01-01 UTC to a UTC time.
func FromTicks(ticks int64) time.Time {
	secs := ticks / TicksPerSecond
	rem := ticks % TicksPerSecond
	if rem < 0 {
		secs--
		rem += TicksPerSecond
	}
	return time.Unix(secs-unixEpochSeconds, rem*100).UTC()
}

// FromWallTicks interprets ticks as a wall clock reading in loc.
func FromWallTicks(ticks int64, loc *time.Location) time.Time {
	t := FromTicks(ticks)
	if loc == nil || loc == time.UTC {
		return t
	}
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), loc)
}

// DurationTicks converts a duration to ticks, truncating sub-tick precision.
func DurationTicks(d time.Duration) int64 {
	return int64(d / 100)
}

// TicksDuration converts ticks to a duration.
func TicksDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * 100
}

// TruncateTicks drops the sub-millisecond part of t unless tickPrecision is
// set, in which case only the sub-tick part is dropped.
func TruncateTicks(t time.Time, tickPrecision bool) time.Time {
	if tickPrecision {
		return t.Add(-time.Duration(t.Nanosecond() % 100))
	}
	return t.Add(-time.Duration(t.Nanosecond() % int(time.Millisecond)))
}

// Zone returns the location used to present instants persisted with the given
// UTC offset.
func Zone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", int(offset/time.Second))
}
