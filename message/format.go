// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout renders instants with full tick precision and their UTC offset.
const TimeLayout = "2006-01-02T15:04:05.0000000Z07:00"

// FormatTime renders t with TimeLayout, or "-" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(TimeLayout)
}

// recordFormatter accumulates "name=value" pairs, skipping absent values.
type recordFormatter struct {
	b strings.Builder
}

func newFormatter(kind string) *recordFormatter {
	f := &recordFormatter{}
	f.b.WriteString(kind)
	return f
}

func (f *recordFormatter) str(name, v string) {
	if v == "" {
		return
	}
	fmt.Fprintf(&f.b, " %s=%s", name, v)
}

func (f *recordFormatter) instant(name string, t time.Time) {
	if t.IsZero() {
		return
	}
	f.str(name, t.Format(TimeLayout))
}

func (f *recordFormatter) dec(name string, d decimal.Decimal) {
	f.str(name, d.String())
}

func (f *recordFormatter) nullDec(name string, d decimal.NullDecimal) {
	if d.Valid {
		f.dec(name, d.Decimal)
	}
}

func (f *recordFormatter) integer(name string, v int64) {
	if v != 0 {
		fmt.Fprintf(&f.b, " %s=%d", name, v)
	}
}

func (f *recordFormatter) value(name string, v any) {
	switch v := v.(type) {
	case nil:
	case *int32:
		if v != nil {
			fmt.Fprintf(&f.b, " %s=%d", name, *v)
		}
	case *int64:
		if v != nil {
			fmt.Fprintf(&f.b, " %s=%d", name, *v)
		}
	case *bool:
		if v != nil {
			fmt.Fprintf(&f.b, " %s=%t", name, *v)
		}
	case *time.Time:
		if v != nil {
			f.instant(name, *v)
		}
	case *time.Duration:
		if v != nil {
			fmt.Fprintf(&f.b, " %s=%s", name, *v)
		}
	case *DataType:
		if v != nil {
			f.str(name, v.String())
		}
	case decimal.Decimal:
		f.dec(name, v)
	case time.Time:
		f.str(name, FormatTime(v))
	default:
		fmt.Fprintf(&f.b, " %s=%v", name, v)
	}
}

func (f *recordFormatter) String() string {
	return f.b.String()
}

// Int32 returns a pointer to v.
func Int32(v int32) *int32 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Dec returns a valid NullDecimal parsed from s. It panics on malformed input
// and is meant for literals.
func Dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
