// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package message defines the market-data records persisted in day blobs.
//
// Optional fields are modeled with pointers, decimal.NullDecimal, empty
// strings, zero times or the zero value of an enum. Every record implements
// fmt.Stringer with a stable rendering of all of its present fields, which is
// what the tooling prints and what tests compare.
package message
