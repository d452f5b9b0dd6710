// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bitstream implements the bit-level cursor that record streams are
// packed into.
//
// Bits are laid out least significant first: bit i of the stream is bit i%8 of
// byte i/8, and a multi-bit field written with WriteBits occupies consecutive
// stream bits starting with its least significant bit. There is no implicit
// padding. AlignToByte is the only operation that skips bits, and it is used
// at the sub-block boundaries of a record stream.
//
// Integers written with WriteInt32 and WriteInt64 use a compact
// sign-magnitude layout:
//
//	0                      value is zero
//	1 s ccc m...           s is the sign, ccc selects the width of the
//	                       magnitude m from {4, 8, 12, 16, 24, 32, 48, 64}
//
// Raw decimals use a sign bit, a 5-bit scale, a 7-bit magnitude length and
// then the magnitude itself; see WriteDecimal.
package bitstream
