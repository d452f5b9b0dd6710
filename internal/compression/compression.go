// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression compresses stored day blobs.
package compression

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/tidemark/mdpack/internal/base"
)

// Algorithm identifies a compression algorithm. The numeric values are
// persisted and must never change.
type Algorithm uint8

const (
	NoCompression Algorithm = iota
	Snappy
	Zstd
	MinLZ
	nAlgorithms
)

var algorithmNames = [nAlgorithms]string{
	NoCompression: "none",
	Snappy:        "snappy",
	Zstd:          "zstd",
	MinLZ:         "minlz",
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	if a < nAlgorithms {
		return algorithmNames[a]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if strings.EqualFold(s, name) {
			return Algorithm(a), nil
		}
	}
	return 0, errors.Newf("unknown compression algorithm %q", s)
}

// Compressor compresses a payload.
type Compressor interface {
	// Compress appends the compressed form of src to dst[:0], reusing its
	// capacity when possible.
	Compress(dst, src []byte) []byte
	// Close must be called when the Compressor is no longer needed.
	Close()
}

// Decompressor decompresses payloads produced by the Compressor of the same
// algorithm.
type Decompressor interface {
	// DecompressInto decompresses src into dst, which must have the length
	// returned by DecompressedLen.
	DecompressInto(dst, src []byte) error
	// DecompressedLen returns the length of the decompressed form of b.
	DecompressedLen(b []byte) (int, error)
	// Close must be called when the Decompressor is no longer needed.
	Close()
}

// defaultZstdLevel is the zstd level used for day blobs.
const defaultZstdLevel = 3

// GetCompressor returns a compressor for a.
func GetCompressor(a Algorithm) Compressor {
	switch a {
	case NoCompression:
		return noopCompressor{}
	case Snappy:
		return snappyCompressor{}
	case Zstd:
		return getZstdCompressor(defaultZstdLevel)
	case MinLZ:
		return minlzCompressorFastest
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", errors.Safe(uint8(a))))
	}
}

// GetDecompressor returns a decompressor for a.
func GetDecompressor(a Algorithm) (Decompressor, error) {
	switch a {
	case NoCompression:
		return noopDecompressor{}, nil
	case Snappy:
		return snappyDecompressor{}, nil
	case Zstd:
		return getZstdDecompressor(), nil
	case MinLZ:
		return minlzDecompressor{}, nil
	default:
		return nil, base.CorruptionErrorf("unknown compression algorithm %d", errors.Safe(uint8(a)))
	}
}

// Compress appends the compressed form of src to dst[:0].
func Compress(a Algorithm, dst, src []byte) []byte {
	c := GetCompressor(a)
	defer c.Close()
	return c.Compress(dst, src)
}

// Decompress returns the decompressed form of src.
func Decompress(a Algorithm, src []byte) ([]byte, error) {
	d, err := GetDecompressor(a)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	n, err := d.DecompressedLen(src)
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	dst := make([]byte, n)
	if err := d.DecompressInto(dst, src); err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	return dst, nil
}
