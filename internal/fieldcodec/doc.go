// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package fieldcodec implements the field encodings record streams are built
// from: decimal diffs, step-quantized prices, volumes, time deltas, id
// deltas, nullable wrappers, interned strings and enum tags.
//
// Every encoder takes the value and the anchor it is encoded against and
// returns the anchor the next value must be encoded against. Decoders mirror
// this: they take the anchor in and return the decoded value together with
// the next anchor. Callers own the anchors and thread them forward; no
// function here retains state between calls.
package fieldcodec
