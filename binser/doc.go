// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package binser encodes market data records into versioned, bit-packed day
// blobs.
//
// Every entity has a Serializer built by its New*Serializer constructor. A
// day blob consists of a header, marshaled with MarshalMetaInfo, and a body
// grown by successive Serialize calls. Both the header and the records are
// described by layouts: ordered lists of gates, each naming the format
// version a field was introduced in. The same layout drives encoding and
// decoding, so a field is always read in the position it was written in.
//
// Numeric fields are written as deltas against anchors (the previous price,
// time, id and so on). The header persists the first and last value of every
// anchor: writers continue from the last values when appending, readers
// replay the body from the first values.
package binser
