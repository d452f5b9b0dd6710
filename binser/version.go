// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/redact"
)

// Version is a day blob format version: the major number in the high byte and
// the minor number in the low byte. Versions order numerically.
type Version uint16

// Format versions. Every optional field of every header and record layout is
// gated by one of these markers. New markers are only ever appended, and a
// marker must be greater than every existing one.
const (
	Version31 Version = 3<<8 | 1
	Version33 Version = 3<<8 | 3
	Version34 Version = 3<<8 | 4
	Version35 Version = 3<<8 | 5
	Version36 Version = 3<<8 | 6
	Version40 Version = 4<<8 | 0
	Version41 Version = 4<<8 | 1
	Version42 Version = 4<<8 | 2
	Version43 Version = 4<<8 | 3
	Version44 Version = 4<<8 | 4
	Version45 Version = 4<<8 | 5
	Version46 Version = 4<<8 | 6
	Version47 Version = 4<<8 | 7
	Version48 Version = 4<<8 | 8
	Version49 Version = 4<<8 | 9
	Version50 Version = 5<<8 | 0
	Version51 Version = 5<<8 | 1
	Version52 Version = 5<<8 | 2
	Version53 Version = 5<<8 | 3
	Version54 Version = 5<<8 | 4
	Version55 Version = 5<<8 | 5
	Version56 Version = 5<<8 | 6
	Version57 Version = 5<<8 | 7
	Version58 Version = 5<<8 | 8
	Version59 Version = 5<<8 | 9
	Version60 Version = 6<<8 | 0
	Version61 Version = 6<<8 | 1
	Version62 Version = 6<<8 | 2
	Version63 Version = 6<<8 | 3
	Version64 Version = 6<<8 | 4
	Version65 Version = 6<<8 | 5
	Version66 Version = 6<<8 | 6
	Version67 Version = 6<<8 | 7
	Version68 Version = 6<<8 | 8
	Version69 Version = 6<<8 | 9
)

// KnownVersions lists every format version in ascending order.
var KnownVersions = []Version{
	Version31,
	Version33,
	Version34,
	Version35,
	Version36,
	Version40,
	Version41,
	Version42,
	Version43,
	Version44,
	Version45,
	Version46,
	Version47,
	Version48,
	Version49,
	Version50,
	Version51,
	Version52,
	Version53,
	Version54,
	Version55,
	Version56,
	Version57,
	Version58,
	Version59,
	Version60,
	Version61,
	Version62,
	Version63,
	Version64,
	Version65,
	Version66,
	Version67,
	Version68,
	Version69,
}

// MakeVersion returns the version with the given major and minor numbers.
func MakeVersion(major, minor uint8) Version {
	return Version(major)<<8 | Version(minor)
}

// Major returns the major version number.
func (v Version) Major() uint8 { return uint8(v >> 8) }

// Minor returns the minor version number.
func (v Version) Minor() uint8 { return uint8(v) }

// Known returns true if v is one of KnownVersions.
func (v Version) Known() bool {
	_, ok := slices.BinarySearch(KnownVersions, v)
	return ok
}

// String implements fmt.Stringer.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// SafeFormat implements redact.SafeFormatter.
func (v Version) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%d.%d", redact.SafeUint(v.Major()), redact.SafeUint(v.Minor()))
}
