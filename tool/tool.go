// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the commands of mdtool, which inspects, verifies
// and benchmarks day blob stores.
package tool

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tidemark/mdpack"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/exchange"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/compression"
)

// T is the container for all of the tools.
type T struct {
	Commands []*cobra.Command

	storeDir    string
	boardsFile  string
	compression string
	verbose     bool

	blob  *blobT
	bench *benchT
}

// New creates a new set of tools.
func New() *T {
	t := &T{}
	t.blob = newBlob(t)
	t.bench = newBench(t)
	t.Commands = []*cobra.Command{
		t.blob.List,
		t.blob.Header,
		t.blob.Dump,
		t.blob.Verify,
		t.blob.Diff,
		t.blob.Plot,
		t.bench.Gen,
		t.bench.Bench,
	}
	for _, cmd := range t.Commands {
		cmd.Flags().StringVar(&t.storeDir, "store", ".", "directory of the day blob store")
		cmd.Flags().StringVar(&t.boardsFile, "boards", "", "YAML file describing boards and their time zones")
		cmd.Flags().StringVar(&t.compression, "compression", "snappy",
			"compression of written blobs: none, snappy, zstd or minlz")
		cmd.Flags().BoolVarP(&t.verbose, "verbose", "v", false, "log store operations")
	}
	return t
}

func (t *T) logger() base.Logger {
	if t.verbose {
		return base.DefaultLogger
	}
	return base.NoopLogger{}
}

func (t *T) exchange() (exchange.Provider, error) {
	if t.boardsFile == "" {
		return nil, nil
	}
	p, err := exchange.LoadYAMLFile(t.boardsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "loading boards")
	}
	return p, nil
}

// serializerOptions returns the options serializers are created with.
func (t *T) serializerOptions() ([]binser.Option, error) {
	p, err := t.exchange()
	if err != nil {
		return nil, err
	}
	opts := []binser.Option{binser.WithLogger(t.logger())}
	if p != nil {
		opts = append(opts, binser.WithExchangeProvider(p))
	}
	return opts, nil
}

func (t *T) openStore() (*mdpack.Store, error) {
	alg, err := compression.ParseAlgorithm(t.compression)
	if err != nil {
		return nil, err
	}
	opts := &mdpack.Options{Compression: alg, Logger: t.logger()}
	p, err := t.exchange()
	if err != nil {
		return nil, err
	}
	if p != nil {
		opts.Exchange = p
	}
	return mdpack.Open(t.storeDir, opts)
}
