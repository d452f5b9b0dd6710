// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
)

// VolumeAnchor holds the running state of a volume field.
type VolumeAnchor struct {
	// Step is the instrument volume step. A non-positive step sends every
	// volume through the fractional path.
	Step decimal.Decimal
	// Fraction is the last volume written through the fractional path.
	Fraction decimal.Decimal
}

// VolumeOptions selects the volume layout of a format version.
type VolumeOptions struct {
	// Fractional enables the step-aligned, fractional and large-decimal
	// paths. Without it only whole volumes can be written.
	Fractional bool
}

// WriteVolume writes a volume.
func WriteVolume(
	w *bitstream.Writer, volume decimal.Decimal, a VolumeAnchor, o VolumeOptions,
) (VolumeAnchor, error) {
	if !o.Fractional {
		if !volume.IsInteger() {
			return a, base.UnsupportedValuef("fractional volume %s", volume)
		}
		n, err := wholeCount(volume, decimal.NewFromInt(1))
		if err != nil {
			return a, err
		}
		w.WriteBit(true)
		w.WriteInt64(n)
		return a, nil
	}
	if volume.Abs().GreaterThan(LargeDecimalThreshold) {
		w.WriteBit(true)
		return a, w.WriteDecimal(volume)
	}
	w.WriteBit(false)
	aligned := a.Step.IsPositive() && volume.Mod(a.Step).IsZero()
	w.WriteBit(aligned)
	if aligned {
		n, err := wholeCount(volume, a.Step)
		if err != nil {
			return a, err
		}
		w.WriteInt64(n)
		return a, nil
	}
	var err error
	a.Fraction, err = WriteDecimalDiff(w, volume, a.Fraction)
	return a, err
}

// ReadVolume reads a volume written by WriteVolume.
func ReadVolume(
	r *bitstream.Reader, a VolumeAnchor, o VolumeOptions,
) (decimal.Decimal, VolumeAnchor, error) {
	if !o.Fractional {
		whole, err := r.ReadBit()
		if err != nil {
			return decimal.Decimal{}, a, err
		}
		if !whole {
			return decimal.Decimal{}, a, base.CorruptionErrorf("fractional volume marker in integer-only stream")
		}
		n, err := r.ReadInt64()
		return decimal.NewFromInt(n), a, err
	}
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
		n, err := r.ReadInt64()
		return decimal.NewFromInt(n).Mul(a.Step), a, err
	}
	a.Fraction, err = ReadDecimalDiff(r, a.Fraction)
	return a.Fraction, a, err
}

func wholeCount(v, step decimal.Decimal) (int64, error) {
	q := v.Div(step)
	if q.LessThan(minInt64) || q.GreaterThan(maxInt64) {
		return 0, base.RangeOverflowf("volume %s is %s steps of %s", v, q, step)
	}
	return q.IntPart(), nil
}
