// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/exchange"
	"github.com/tidemark/mdpack/internal/base"
)

// Options holds the configuration of a serializer.
type Options struct {
	// Version is the format version new day blobs are created with. Zero
	// selects the newest version the codec supports.
	Version Version
	// PriceStep is the instrument's minimum price increment. Defaults to
	// 0.01.
	PriceStep decimal.Decimal
	// VolumeStep is the instrument's minimum volume increment. Defaults to 1.
	VolumeStep decimal.Decimal
	// LocalOffset is the UTC offset wall clock readings are taken in when
	// the board of the security is unknown to Exchange.
	LocalOffset time.Duration
	// Exchange resolves the time zone of the security's board. May be nil.
	Exchange exchange.Provider
	// Logger is used for diagnostics about refused day blobs.
	Logger base.Logger
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if !o.PriceStep.IsPositive() {
		o.PriceStep = decimal.New(1, -2)
	}
	if !o.VolumeStep.IsPositive() {
		o.VolumeStep = decimal.New(1, 0)
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	return o
}

// Option configures a serializer.
type Option func(*Options)

// WithVersion creates day blobs in format version v.
func WithVersion(v Version) Option {
	return func(o *Options) { o.Version = v }
}

// WithPriceStep sets the instrument price step.
func WithPriceStep(step decimal.Decimal) Option {
	return func(o *Options) { o.PriceStep = step }
}

// WithVolumeStep sets the instrument volume step.
func WithVolumeStep(step decimal.Decimal) Option {
	return func(o *Options) { o.VolumeStep = step }
}

// WithLocalOffset sets the fallback offset of wall clock readings.
func WithLocalOffset(offset time.Duration) Option {
	return func(o *Options) { o.LocalOffset = offset }
}

// WithExchangeProvider sets the board time zone provider.
func WithExchangeProvider(p exchange.Provider) Option {
	return func(o *Options) { o.Exchange = p }
}

// WithLogger sets the logger.
func WithLogger(l base.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOptions copies every field of opts.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}
