// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"time"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/exchange"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/compression"
)

// Options holds the optional parameters for configuring a Store.
type Options struct {
	// FS is the file system the store's database lives in. Defaults to the
	// OS file system.
	FS vfs.FS

	// Compression is the algorithm day blobs are compressed with. Blobs
	// written with another algorithm stay readable.
	Compression compression.Algorithm

	// Logger is used to write log messages.
	Logger base.Logger

	// WriteBytesPerSecond limits the rate at which appends write blob bytes.
	// Zero disables the limit.
	WriteBytesPerSecond int64

	// Registerer receives the store's metrics. May be nil.
	Registerer prometheus.Registerer

	// Exchange resolves the time zones of boards for blobs verified by
	// VerifyAll. May be nil.
	Exchange exchange.Provider

	// VerifyConcurrency is the number of day blobs VerifyAll decodes at a
	// time. Defaults to 4.
	VerifyConcurrency int

	// Sync makes every append durable before it returns.
	Sync bool

	// now is used in tests to stub out the clock of the rate limiter.
	now func() time.Time
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	if o.VerifyConcurrency <= 0 {
		o.VerifyConcurrency = 4
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// serializerOptions returns the options of the serializers the store creates
// on its own.
func (o *Options) serializerOptions() []binser.Option {
	return []binser.Option{
		binser.WithExchangeProvider(o.Exchange),
		binser.WithLogger(o.Logger),
	}
}
