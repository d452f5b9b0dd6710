// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package compression

import (
	"encoding/binary"
	"sync"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
)

type zstdCompressor struct {
	level int
	ctx   zstd.Ctx
}

var _ Compressor = (*zstdCompressor)(nil)

var zstdCompressorPool = sync.Pool{
	New: func() any {
		return &zstdCompressor{ctx: zstd.NewCtx()}
	},
}

// UseStandardZstdLib indicates whether the zstd implementation is a port of
// the official one in the facebook/zstd repository. Compressed bytes differ
// between implementations.
const UseStandardZstdLib = true

// Compress prefixes the payload with the uvarint length of src.
func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	bound := zstd.CompressBound(len(src))
	if cap(dst) < binary.MaxVarintLen64+bound {
		dst = make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+bound)
	}
	dst = dst[:binary.MaxVarintLen64]
	varIntLen := binary.PutUvarint(dst, uint64(len(src)))
	out := dst[varIntLen : varIntLen+bound]
	result, err := z.ctx.CompressLevel(out, src, z.level)
	if err != nil {
		panic(errors.Wrap(err, "zstd compression"))
	}
	if len(result) > 0 && &result[0] != &out[0] {
		panic(errors.AssertionFailedf("zstd allocated a new buffer despite CompressBound"))
	}
	return dst[:varIntLen+len(result)]
}

func (z *zstdCompressor) Close() {
	zstdCompressorPool.Put(z)
}

func getZstdCompressor(level int) *zstdCompressor {
	z := zstdCompressorPool.Get().(*zstdCompressor)
	z.level = level
	return z
}

type zstdDecompressor struct {
	ctx zstd.Ctx
}

var _ Decompressor = (*zstdDecompressor)(nil)

func (z *zstdDecompressor) DecompressInto(dst, src []byte) error {
	_, prefixLen := binary.Uvarint(src)
	src = src[prefixLen:]
	if len(dst) == 0 {
		return nil
	}
	if len(src) == 0 {
		return errors.Errorf("zstd: empty payload")
	}
	_, err := z.ctx.DecompressInto(dst, src)
	return err
}

func (*zstdDecompressor) DecompressedLen(b []byte) (int, error) {
	n, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("zstd: payload has an invalid length prefix")
	}
	return int(n), nil
}

func (z *zstdDecompressor) Close() {
	zstdDecompressorPool.Put(z)
}

var zstdDecompressorPool = sync.Pool{
	New: func() any {
		return &zstdDecompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdDecompressor() *zstdDecompressor {
	return zstdDecompressorPool.Get().(*zstdDecompressor)
}
