// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package compression

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/tidemark/mdpack/internal/base"
)

type zstdCompressor struct {
	enc *zstd.Encoder
}

var _ Compressor = (*zstdCompressor)(nil)

func getZstdCompressor(level int) *zstdCompressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		panic(errors.Wrap(err, "zstd encoder"))
	}
	return &zstdCompressor{enc: enc}
}

// UseStandardZstdLib indicates whether the zstd implementation is a port of
// the official one in the facebook/zstd repository. Compressed bytes differ
// between implementations.
const UseStandardZstdLib = false

// Compress prefixes the payload with the uvarint length of src.
func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	dst = binary.AppendUvarint(dst[:0], uint64(len(src)))
	return z.enc.EncodeAll(src, dst)
}

func (z *zstdCompressor) Close() {
	if err := z.enc.Close(); err != nil {
		panic(err)
	}
}

type zstdDecompressor struct{}

var _ Decompressor = zstdDecompressor{}

func (zstdDecompressor) DecompressInto(dst, src []byte) error {
	_, prefixLen := binary.Uvarint(src)
	src = src[prefixLen:]
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer decoder.Close()
	result, err := decoder.DecodeAll(src, dst[:0])
	if err != nil {
		return err
	}
	if len(result) != len(dst) || (len(result) > 0 && &result[0] != &dst[0]) {
		return base.CorruptionErrorf("zstd: decompressed into unexpected buffer: %p != %p",
			errors.Safe(result), errors.Safe(dst))
	}
	return nil
}

func (zstdDecompressor) DecompressedLen(b []byte) (int, error) {
	n, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("zstd: payload has an invalid length prefix")
	}
	return int(n), nil
}

func (zstdDecompressor) Close() {}

func getZstdDecompressor() zstdDecompressor {
	return zstdDecompressor{}
}
