// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types shared by the codec packages: the
// error taxonomy, the logger interface and the 100ns tick clock used by every
// persisted timestamp.
//
// # Errors
//
// Every failure raised while encoding or decoding a day blob is marked with one
// of the sentinel errors below so that callers can classify it with errors.Is
// regardless of how many layers of context were wrapped around it. The message
// carries the offending value and, where one exists, the anchor it was encoded
// against.
//
// # Ticks
//
// Timestamps are persisted as the number of 100ns intervals elapsed since
// 0001-01-01T00:00:00 UTC. Durations (time zone offsets) use the same unit.
// Converting through ticks avoids the int64 nanosecond overflow that
// time.Time.Sub and time.Time.UnixNano suffer for dates far from 1970.
package base
