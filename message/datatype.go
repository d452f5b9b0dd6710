// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DataTypeKind enumerates the closed set of sources a derived record (a
// candle or a position change) can be built from.
type DataTypeKind uint8

// DataTypeKind values. DataTypeExtension is the open case carrying an
// arbitrary type identifier and arguments.
const (
	DataTypeTicks DataTypeKind = iota + 1
	DataTypeLevel1
	DataTypeMarketDepth
	DataTypeOrderLog
	DataTypeTransactions
	DataTypeNews
	DataTypeBoardState
	DataTypePositionChanges

	DataTypeExtension DataTypeKind = 15
)

var dataTypeNames = map[DataTypeKind]string{
	DataTypeTicks:           "ticks",
	DataTypeLevel1:          "level1",
	DataTypeMarketDepth:     "depth",
	DataTypeOrderLog:        "orderlog",
	DataTypeTransactions:    "transactions",
	DataTypeNews:            "news",
	DataTypeBoardState:      "boardstate",
	DataTypePositionChanges: "positions",
}

// Valid returns true if k is a known kind.
func (k DataTypeKind) Valid() bool {
	_, ok := dataTypeNames[k]
	return ok || k == DataTypeExtension
}

// DataType describes the source of a derived record. The argument fields are
// only meaningful for DataTypeExtension.
type DataType struct {
	Kind   DataTypeKind
	TypeID int32
	Arg1   int64
	Arg2   decimal.NullDecimal
	Arg3   int32
}

// String implements fmt.Stringer.
func (d DataType) String() string {
	if d.Kind != DataTypeExtension {
		if n, ok := dataTypeNames[d.Kind]; ok {
			return n
		}
		return fmt.Sprintf("kind(%d)", d.Kind)
	}
	arg2 := "-"
	if d.Arg2.Valid {
		arg2 = d.Arg2.Decimal.String()
	}
	return fmt.Sprintf("ext(%d,%d,%s,%d)", d.TypeID, d.Arg1, arg2, d.Arg3)
}
