// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Kind identifies the entity a day blob holds. The numeric values are part of
// the store's key encoding and must never change.
type Kind uint8

// Kind values.
const (
	KindTicks Kind = iota + 1
	KindCandles
	KindLevel1
	KindOrderLog
	KindQuotes
	KindPositions
	KindTransactions
	KindNews
	KindBoardStates
	numKinds
)

// kindNames are the names of the serializers of every kind.
var kindNames = [numKinds]string{
	KindTicks:        "tick",
	KindCandles:      "candle",
	KindLevel1:       "level1",
	KindOrderLog:     "orderlog",
	KindQuotes:       "quote",
	KindPositions:    "position",
	KindTransactions: "transaction",
	KindNews:         "news",
	KindBoardStates:  "boardstate",
}

// Kinds lists every kind in key order.
var Kinds = []Kind{
	KindTicks, KindCandles, KindLevel1, KindOrderLog, KindQuotes,
	KindPositions, KindTransactions, KindNews, KindBoardStates,
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k > 0 && k < numKinds {
		return kindNames[k]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (k Kind) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(k.String()))
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown data kind %q", s)
}
