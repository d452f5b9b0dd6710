// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import "time"

// BoardState records a trading session transition on a board.
type BoardState struct {
	BoardCode  string
	State      SessionState
	ServerTime time.Time
	LocalTime  time.Time
}

// String implements fmt.Stringer.
func (b BoardState) String() string {
	f := newFormatter("board")
	f.str("code", b.BoardCode)
	f.str("state", b.State.String())
	f.instant("t", b.ServerTime)
	f.instant("local", b.LocalTime)
	return f.String()
}
