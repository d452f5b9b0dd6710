// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
)

// LargeDecimalThreshold is the magnitude above which extended prices and
// volumes are stored as absolute raw decimals instead of deltas.
var LargeDecimalThreshold = decimal.RequireFromString("792281625142643375935439503.35")

// maxStepSearch is the number of candidate steps (1, 0.1, ... 1e-19) tried
// when deriving the step of a non-adjusted price.
const maxStepSearch = 20

var (
	minInt32 = decimal.NewFromInt(math.MinInt32)
	maxInt32 = decimal.NewFromInt(math.MaxInt32)
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// PriceAnchor holds the running state of a price field.
type PriceAnchor struct {
	// Step is the instrument price step.
	Step decimal.Decimal
	// Last is the last step-aligned price.
	Last decimal.Decimal
	// Fraction is the last price written through the fractional path of an
	// extended price.
	Fraction decimal.Decimal
	// NonAdjustedStep is the step derived for the last non-adjusted price;
	// zero until the first one is written.
	NonAdjustedStep decimal.Decimal
	// NonAdjustedLast is the last non-adjusted price.
	NonAdjustedLast decimal.Decimal
}

// PriceOptions selects the price layout of a format version.
type PriceOptions struct {
	// UseLong writes step counts as 64-bit values.
	UseLong bool
	// NonAdjusted allows prices that are not a multiple of the price step.
	NonAdjusted bool
}

// Aligned returns true if price is a multiple of the price step.
func (a PriceAnchor) Aligned(price decimal.Decimal) bool {
	return a.Step.IsPositive() && price.Mod(a.Step).IsZero()
}

// WritePrice writes a step-quantized price.
//
// An aligned price is written as the signed number of steps from a.Last. With
// o.NonAdjusted a leading bit distinguishes aligned prices from non-adjusted
// ones, which are written as a step-changed bit, the raw step when it
// changed, and the 64-bit number of those steps from a.NonAdjustedLast.
func WritePrice(
	w *bitstream.Writer, price decimal.Decimal, a PriceAnchor, o PriceOptions,
) (PriceAnchor, error) {
	if !a.Step.IsPositive() {
		return a, base.InvalidDomainStatef("price step %s is not positive", a.Step)
	}
	if !price.Mod(a.Step).IsZero() {
		if !o.NonAdjusted {
			return a, base.InvalidPricef("price %s is not a multiple of price step %s", price, a.Step)
		}
		w.WriteBit(false)
		changed := !a.NonAdjustedStep.IsPositive() || !price.Mod(a.NonAdjustedStep).IsZero()
		w.WriteBit(changed)
		if changed {
			step, err := deriveStep(price)
			if err != nil {
				return a, err
			}
			if err := w.WriteDecimal(step); err != nil {
				return a, err
			}
			a.NonAdjustedStep = step
		}
		n, err := stepCount(price, a.NonAdjustedLast, a.NonAdjustedStep, true)
		if err != nil {
			return a, err
		}
		w.WriteInt64(n)
		a.NonAdjustedLast = price
		return a, nil
	}
	if o.NonAdjusted {
		w.WriteBit(true)
	}
	n, err := stepCount(price, a.Last, a.Step, o.UseLong)
	if err != nil {
		return a, err
	}
	if o.UseLong {
		w.WriteInt64(n)
	} else {
		w.WriteInt32(int32(n))
	}
	a.Last = price
	return a, nil
}

// ReadPrice reads a price written by WritePrice.
func ReadPrice(
	r *bitstream.Reader, a PriceAnchor, o PriceOptions,
) (decimal.Decimal, PriceAnchor, error) {
	if o.NonAdjusted {
		aligned, err := r.ReadBit()
		if err != nil {
			return decimal.Decimal{}, a, err
		}
		if !aligned {
			changed, err := r.ReadBit()
			if err != nil {
				return decimal.Decimal{}, a, err
			}
			if changed {
				if a.NonAdjustedStep, err = r.ReadDecimal(); err != nil {
					return decimal.Decimal{}, a, err
				}
			}
			if !a.NonAdjustedStep.IsPositive() {
				return decimal.Decimal{}, a, base.CorruptionErrorf("non-adjusted price without a step")
			}
			n, err := r.ReadInt64()
			if err != nil {
				return decimal.Decimal{}, a, err
			}
			a.NonAdjustedLast = a.NonAdjustedLast.Add(decimal.NewFromInt(n).Mul(a.NonAdjustedStep))
			return a.NonAdjustedLast, a, nil
		}
	}
	var n int64
	if o.UseLong {
		v, err := r.ReadInt64()
		if err != nil {
			return decimal.Decimal{}, a, err
		}
		n = v
	} else {
		v, err := r.ReadInt32()
		if err != nil {
			return decimal.Decimal{}, a, err
		}
		n = int64(v)
	}
	a.Last = a.Last.Add(decimal.NewFromInt(n).Mul(a.Step))
	return a.Last, a, nil
}

// WritePriceEx writes a price with the extended layout: a large-decimal escape
// bit, then either the raw price or an aligned bit selecting the
// step-quantized path or a decimal diff from a.Fraction.
func WritePriceEx(
	w *bitstream.Writer, price decimal.Decimal, a PriceAnchor, o PriceOptions,
) (PriceAnchor, error) {
	if price.Abs().GreaterThan(LargeDecimalThreshold) {
		w.WriteBit(true)
		return a, w.WriteDecimal(price)
	}
	w.WriteBit(false)
	aligned := a.Aligned(price)
	w.WriteBit(aligned)
	if aligned {
		return WritePrice(w, price, a, PriceOptions{UseLong: o.UseLong})
	}
	var err error
	a.Fraction, err = WriteDecimalDiff(w, price, a.Fraction)
	return a, err
}

// ReadPriceEx reads a price written by WritePriceEx.
func ReadPriceEx(
	r *bitstream.Reader, a PriceAnchor, o PriceOptions,
) (decimal.Decimal, PriceAnchor, error) {
	large, err := r.ReadBit()
	if err != nil {
		return decimal.Decimal{}, a, err
	}
	if large {
		d, err := r.ReadDecimal()
		return d, a, err
	}
	aligned, err := r.ReadBit()
	if err != nil {
		return decimal.Decimal{}, a, err
	}
	if aligned {
		return ReadPrice(r, a, PriceOptions{UseLong: o.UseLong})
	}
	a.Fraction, err = ReadDecimalDiff(r, a.Fraction)
	return a.Fraction, a, err
}

// stepCount returns (price-anchor)/step, failing when the quotient is not
// integral or does not fit the selected width.
func stepCount(price, anchor, step decimal.Decimal, useLong bool) (int64, error) {
	diff := price.Sub(anchor)
	q := diff.Div(step)
	if !q.IsInteger() || !q.Mul(step).Equal(diff) {
		return 0, base.InvalidPricef("price %s is not a whole number of steps %s from anchor %s", price, step, anchor)
	}
	lo, hi := minInt32, maxInt32
	if useLong {
		lo, hi = minInt64, maxInt64
	}
	if q.LessThan(lo) || q.GreaterThan(hi) {
		return 0, errors.Wrapf(base.RangeOverflowf("%s steps of %s from anchor %s", q, step, anchor),
			"price %s", price)
	}
	return q.IntPart(), nil
}

// deriveStep returns the first of 1, 0.1, 0.01 ... 1e-19 that divides price.
func deriveStep(price decimal.Decimal) (decimal.Decimal, error) {
	for i := 0; i < maxStepSearch; i++ {
		step := decimal.New(1, -int32(i))
		if price.Mod(step).IsZero() {
			return step, nil
		}
	}
	return decimal.Decimal{}, base.InvalidPricef("no step of at least 1e-%d divides price %s", maxStepSearch-1, price)
}
