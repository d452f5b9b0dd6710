// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/message"
)

// blobOps are the kind-specific operations on the raw header and body of a
// day blob.
type blobOps struct {
	// spans decodes the header and describes the bytes of each field.
	spans func(sec message.SecurityID, opts []binser.Option, hdr []byte) ([]binser.FieldSpan, *binser.MetaInfo, error)
	// records decodes up to limit records (all when limit <= 0).
	records func(sec message.SecurityID, opts []binser.Option, hdr, body []byte, limit int) ([]string, error)
	// scan decodes every record, reporting the time each one took.
	scan func(sec message.SecurityID, opts []binser.Option, hdr, body []byte, observe func(time.Duration)) (int, error)
}

func opsFor[T fmt.Stringer, M binser.Meta](
	newSerializer func(message.SecurityID, ...binser.Option) *binser.Serializer[T, M],
) blobOps {
	open := func(sec message.SecurityID, opts []binser.Option, hdr, body []byte) (*binser.Sequence[T, M], error) {
		s := newSerializer(sec, opts...)
		meta, err := s.UnmarshalMetaInfo(hdr)
		if err != nil {
			return nil, err
		}
		return s.Deserialize(body, meta)
	}
	return blobOps{
		spans: func(sec message.SecurityID, opts []binser.Option, hdr []byte) ([]binser.FieldSpan, *binser.MetaInfo, error) {
			s := newSerializer(sec, opts...)
			spans, err := s.HeaderSpans(hdr)
			if err != nil {
				return spans, nil, err
			}
			meta, err := s.UnmarshalMetaInfo(hdr)
			if err != nil {
				return spans, nil, err
			}
			return spans, meta.Info(), nil
		},
		records: func(sec message.SecurityID, opts []binser.Option, hdr, body []byte, limit int) ([]string, error) {
			seq, err := open(sec, opts, hdr, body)
			if err != nil {
				return nil, err
			}
			var lines []string
			for rec, err := range seq.All() {
				if err != nil {
					return lines, err
				}
				lines = append(lines, rec.String())
				if limit > 0 && len(lines) == limit {
					break
				}
			}
			return lines, nil
		},
		scan: func(sec message.SecurityID, opts []binser.Option, hdr, body []byte, observe func(time.Duration)) (int, error) {
			seq, err := open(sec, opts, hdr, body)
			if err != nil {
				return 0, err
			}
			e := seq.Enumerator()
			n := 0
			for {
				start := time.Now()
				ok := e.MoveNext()
				if !ok {
					break
				}
				observe(time.Since(start))
				n++
			}
			return n, e.Err()
		},
	}
}

var kindOps = map[mdpack.Kind]blobOps{
	mdpack.KindTicks:        opsFor(binser.NewTickSerializer),
	mdpack.KindCandles:      opsFor(binser.NewCandleSerializer),
	mdpack.KindLevel1:       opsFor(binser.NewLevel1Serializer),
	mdpack.KindOrderLog:     opsFor(binser.NewOrderLogSerializer),
	mdpack.KindQuotes:       opsFor(binser.NewQuoteSerializer),
	mdpack.KindPositions:    opsFor(binser.NewPositionSerializer),
	mdpack.KindTransactions: opsFor(binser.NewTransactionSerializer),
	mdpack.KindNews:         opsFor(binser.NewNewsSerializer),
	mdpack.KindBoardStates:  opsFor(binser.NewBoardStateSerializer),
}

func opsOf(k mdpack.Kind) (blobOps, error) {
	ops, ok := kindOps[k]
	if !ok {
		return blobOps{}, errors.Newf("no codec for kind %s", k)
	}
	return ops, nil
}
