// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
)

// shortHours is the exclusive bound of the 5-bit hour field used for
// non-ordered deltas.
const shortHours = 32

// TimeOptions selects the time layout of a format version.
type TimeOptions struct {
	// NonOrdered allows times to move backwards relative to the anchor: a
	// sign bit precedes every delta.
	NonOrdered bool
	// BigRange allows non-ordered deltas spanning several days.
	BigRange bool
	// TickPrecision keeps the sub-millisecond part of times.
	TickPrecision bool
	// UTC stores absolute instants; otherwise wall clock readings are stored.
	UTC bool
	// DiffOffsets stores the UTC offset of every time, as a change against
	// the previous one.
	DiffOffsets bool
	// Location is the zone wall clock readings are taken in, and the zone
	// decoded UTC instants are presented in when offsets are not stored. Nil
	// means UTC.
	Location *time.Location
}

func (o TimeOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// TimeAnchor holds the running state of a time field.
type TimeAnchor struct {
	// Ticks is the last stored reading.
	Ticks int64
	// Offset is the last stored UTC offset.
	Offset time.Duration
}

// StoredTicks returns the reading of t that a stream with options o stores.
func StoredTicks(t time.Time, o TimeOptions) int64 {
	t = base.TruncateTicks(t, o.TickPrecision)
	switch {
	case o.UTC:
		return base.Ticks(t)
	case o.DiffOffsets:
		return base.WallTicks(t)
	default:
		return base.WallTicks(t.In(o.location()))
	}
}

// WriteTime writes t as a delta from the anchor.
//
// Deltas under a minute are written as a flag and a second count. Longer
// deltas of non-ordered streams are written as hours, minutes and seconds.
// The hours take 5 bits when under 32; otherwise they are the hour of the day
// followed by a day flag and the number of days, which only big-range streams
// may store. Longer deltas of ordered streams are written as
// the time of day of t, which must fall on the anchor's day. The millisecond
// remainder and, with tick precision, the sub-millisecond remainder follow.
func WriteTime(
	w *bitstream.Writer, t time.Time, a TimeAnchor, o TimeOptions,
) (TimeAnchor, error) {
	if o.DiffOffsets {
		_, sec := t.Zone()
		a.Offset = WriteOffset(w, time.Duration(sec)*time.Second, a.Offset)
	}
	ticks := StoredTicks(t, o)
	diff := ticks - a.Ticks
	if o.NonOrdered {
		w.WriteBit(diff >= 0)
		if diff < 0 {
			diff = -diff
		}
	} else if diff < 0 {
		return a, base.InvalidDomainStatef("time %s precedes anchor %s",
			base.FromTicks(ticks), base.FromTicks(a.Ticks))
	}

	var rem int64
	switch {
	case diff < base.TicksPerMinute:
		w.WriteBit(false)
		w.WriteInt32(int32(diff / base.TicksPerSecond))
		rem = diff % base.TicksPerSecond

	case o.NonOrdered:
		w.WriteBit(true)
		hours := diff / base.TicksPerHour
		if hours < shortHours {
			w.WriteBit(true)
			w.WriteBits(uint64(hours), 5)
		} else {
			days := hours / 24
			if days > 0 && !o.BigRange {
				return a, base.RangeOverflowf("time %s is %d hours from anchor %s",
					base.FromTicks(ticks), errors.Safe(hours), base.FromTicks(a.Ticks))
			}
			if days > math.MaxInt32 {
				return a, base.RangeOverflowf("time %s is %d days from anchor %s",
					base.FromTicks(ticks), errors.Safe(days), base.FromTicks(a.Ticks))
			}
			w.WriteBit(false)
			w.WriteInt32(int32(hours % 24))
			w.WriteBit(days > 0)
			if days > 0 {
				w.WriteInt32(int32(days))
			}
		}
		w.WriteBits(uint64(diff/base.TicksPerMinute%60), 6)
		w.WriteBits(uint64(diff/base.TicksPerSecond%60), 6)
		rem = diff % base.TicksPerSecond

	default:
		if ticks/base.TicksPerDay != a.Ticks/base.TicksPerDay {
			return a, base.RangeOverflowf("time %s is not on the day of anchor %s",
				base.FromTicks(ticks), base.FromTicks(a.Ticks))
		}
		w.WriteBit(true)
		tod := ticks % base.TicksPerDay
		w.WriteBits(uint64(tod/base.TicksPerHour), 5)
		w.WriteBits(uint64(tod/base.TicksPerMinute%60), 6)
		w.WriteBits(uint64(tod/base.TicksPerSecond%60), 6)
		rem = ticks % base.TicksPerSecond
	}

	w.WriteInt32(int32(rem / base.TicksPerMillisecond))
	if o.TickPrecision {
		w.WriteInt32(int32(rem % base.TicksPerMillisecond))
	}
	a.Ticks = ticks
	return a, nil
}

// ReadTime reads a time written by WriteTime.
func ReadTime(
	r *bitstream.Reader, a TimeAnchor, o TimeOptions,
) (time.Time, TimeAnchor, error) {
	var err error
	if o.DiffOffsets {
		if a.Offset, err = ReadOffset(r, a.Offset); err != nil {
			return time.Time{}, a, err
		}
	}
	neg := false
	if o.NonOrdered {
		pos, err := r.ReadBit()
		if err != nil {
			return time.Time{}, a, err
		}
		neg = !pos
	}
	large, err := r.ReadBit()
	if err != nil {
		return time.Time{}, a, err
	}

	var ticks int64
	switch {
	case !large:
		secs, err := r.ReadInt32()
		if err != nil {
			return time.Time{}, a, err
		}
		if secs < 0 || secs >= 60 {
			return time.Time{}, a, base.CorruptionErrorf("short time delta of %d seconds", errors.Safe(secs))
		}
		rem, err := readRemainder(r, o)
		if err != nil {
			return time.Time{}, a, err
		}
		ticks = applyDelta(a.Ticks, int64(secs)*base.TicksPerSecond+rem, neg)

	case o.NonOrdered:
		short, err := r.ReadBit()
		if err != nil {
			return time.Time{}, a, err
		}
		var hours int64
		if short {
			h, err := r.ReadBits(5)
			if err != nil {
				return time.Time{}, a, err
			}
			hours = int64(h)
		} else {
			h, err := r.ReadInt32()
			if err != nil {
				return time.Time{}, a, err
			}
			if h < 0 || h >= 24 {
				return time.Time{}, a, base.CorruptionErrorf("time delta of %d hours", errors.Safe(h))
			}
			hours = int64(h)
			hasDays, err := r.ReadBit()
			if err != nil {
				return time.Time{}, a, err
			}
			if hasDays {
				if !o.BigRange {
					return time.Time{}, a, base.CorruptionErrorf("multi-day time delta in a short range stream")
				}
				days, err := r.ReadInt32()
				if err != nil {
					return time.Time{}, a, err
				}
				if days <= 0 {
					return time.Time{}, a, base.CorruptionErrorf("time delta of %d days", errors.Safe(days))
				}
				hours += int64(days) * 24
			}
		}
		clock, err := readClock(r, 0)
		if err != nil {
			return time.Time{}, a, err
		}
		rem, err := readRemainder(r, o)
		if err != nil {
			return time.Time{}, a, err
		}
		ticks = applyDelta(a.Ticks, hours*base.TicksPerHour+clock+rem, neg)

	default:
		tod, err := readClock(r, 5)
		if err != nil {
			return time.Time{}, a, err
		}
		rem, err := readRemainder(r, o)
		if err != nil {
			return time.Time{}, a, err
		}
		ticks = a.Ticks - a.Ticks%base.TicksPerDay + tod + rem
	}
	a.Ticks = ticks
	return PresentTicks(ticks, a.Offset, o), a, nil
}

// PresentTicks converts a stored reading back to a time.
func PresentTicks(ticks int64, offset time.Duration, o TimeOptions) time.Time {
	switch {
	case o.DiffOffsets && o.UTC:
		return base.FromTicks(ticks).In(base.Zone(offset))
	case o.DiffOffsets:
		return base.FromWallTicks(ticks, base.Zone(offset))
	case o.UTC:
		return base.FromTicks(ticks).In(o.location())
	default:
		return base.FromWallTicks(ticks, o.location())
	}
}

func applyDelta(anchor, diff int64, neg bool) int64 {
	if neg {
		return anchor - diff
	}
	return anchor + diff
}

// readClock reads an optional hour field of hourBits bits followed by 6-bit
// minutes and seconds, returning the total in ticks.
func readClock(r *bitstream.Reader, hourBits int) (int64, error) {
	var h uint64
	var err error
	if hourBits > 0 {
		if h, err = r.ReadBits(hourBits); err != nil {
			return 0, err
		}
		if h >= 24 {
			return 0, base.CorruptionErrorf("hour of day %d", errors.Safe(h))
		}
	}
	m, err := r.ReadBits(6)
	if err != nil {
		return 0, err
	}
	s, err := r.ReadBits(6)
	if err != nil {
		return 0, err
	}
	if m >= 60 || s >= 60 {
		return 0, base.CorruptionErrorf("clock field %d:%d", errors.Safe(m), errors.Safe(s))
	}
	return int64(h)*base.TicksPerHour + int64(m)*base.TicksPerMinute + int64(s)*base.TicksPerSecond, nil
}

func readRemainder(r *bitstream.Reader, o TimeOptions) (int64, error) {
	ms, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if ms < 0 || ms >= 1000 {
		return 0, base.CorruptionErrorf("millisecond remainder %d", errors.Safe(ms))
	}
	rem := int64(ms) * base.TicksPerMillisecond
	if o.TickPrecision {
		sub, err := r.ReadInt32()
		if err != nil {
			return 0, err
		}
		if sub < 0 || int64(sub) >= base.TicksPerMillisecond {
			return 0, base.CorruptionErrorf("tick remainder %d", errors.Safe(sub))
		}
		rem += int64(sub)
	}
	return rem, nil
}

// WriteOffset writes a UTC offset as a changed bit followed, when it changed,
// by its hour and minute parts.
func WriteOffset(w *bitstream.Writer, offset, prev time.Duration) time.Duration {
	offset = offset.Truncate(time.Minute)
	if offset == prev {
		w.WriteBit(false)
		return prev
	}
	w.WriteBit(true)
	w.WriteInt32(int32(offset / time.Hour))
	w.WriteInt32(int32(offset % time.Hour / time.Minute))
	return offset
}

// ReadOffset reads an offset written by WriteOffset.
func ReadOffset(r *bitstream.Reader, prev time.Duration) (time.Duration, error) {
	changed, err := r.ReadBit()
	if err != nil || !changed {
		return prev, err
	}
	h, err := r.ReadInt32()
	if err != nil {
		return prev, err
	}
	m, err := r.ReadInt32()
	if err != nil {
		return prev, err
	}
	if h < -24 || h > 24 || m <= -60 || m >= 60 {
		return prev, base.CorruptionErrorf("offset %d:%d", errors.Safe(h), errors.Safe(m))
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
