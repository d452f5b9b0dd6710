// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
)

// WriteDecimalDiff writes value as a raw decimal difference from prev and
// returns value as the next anchor.
func WriteDecimalDiff(w *bitstream.Writer, value, prev decimal.Decimal) (decimal.Decimal, error) {
	diff := value.Sub(prev)
	if !prev.Add(diff).Equal(value) {
		return prev, base.PrecisionLossf("decimal %s cannot be restored from anchor %s", value, prev)
	}
	if err := w.WriteDecimal(diff); err != nil {
		return prev, errors.Wrapf(err, "decimal %s from anchor %s", value, prev)
	}
	return value, nil
}

// ReadDecimalDiff reads a difference written by WriteDecimalDiff and applies
// it to prev.
func ReadDecimalDiff(r *bitstream.Reader, prev decimal.Decimal) (decimal.Decimal, error) {
	diff, err := r.ReadDecimal()
	if err != nil {
		return prev, err
	}
	return prev.Add(diff), nil
}
