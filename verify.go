// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/message"
	"golang.org/x/sync/errgroup"
)

// verifyFunc decodes every record of a blob and returns the record count.
type verifyFunc func(sec message.SecurityID, opts []binser.Option, hdr, body []byte) (int, error)

func verifier[T any, M binser.Meta](
	newSerializer func(message.SecurityID, ...binser.Option) *binser.Serializer[T, M],
) verifyFunc {
	return func(sec message.SecurityID, opts []binser.Option, hdr, body []byte) (int, error) {
		s := newSerializer(sec, opts...)
		meta, err := s.UnmarshalMetaInfo(hdr)
		if err != nil {
			return 0, err
		}
		seq, err := s.Deserialize(body, meta)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, err := range seq.All() {
			if err != nil {
				return n, err
			}
			n++
		}
		if n != seq.Len() {
			return n, base.CorruptionErrorf("decoded %d of %d records", errors.Safe(n), errors.Safe(seq.Len()))
		}
		return n, nil
	}
}

var verifiers = [numKinds]verifyFunc{
	KindTicks:        verifier(binser.NewTickSerializer),
	KindCandles:      verifier(binser.NewCandleSerializer),
	KindLevel1:       verifier(binser.NewLevel1Serializer),
	KindOrderLog:     verifier(binser.NewOrderLogSerializer),
	KindQuotes:       verifier(binser.NewQuoteSerializer),
	KindPositions:    verifier(binser.NewPositionSerializer),
	KindTransactions: verifier(binser.NewTransactionSerializer),
	KindNews:         verifier(binser.NewNewsSerializer),
	KindBoardStates:  verifier(binser.NewBoardStateSerializer),
}

// VerifyResult is the outcome of verifying one blob.
type VerifyResult struct {
	BlobInfo
	Records int
	Err     error
}

// VerifyAll decodes every blob matching the filter of List. Blobs are decoded
// concurrently, each by its own enumerator. Failures of individual blobs are
// reported in their results; the returned error is only set when the store
// itself could not be read or ctx was canceled.
func (s *Store) VerifyAll(
	ctx context.Context, kind Kind, sec message.SecurityID,
) ([]VerifyResult, error) {
	infos, err := s.List(ctx, kind, sec)
	if err != nil {
		return nil, err
	}
	results := make([]VerifyResult, len(infos))
	var failed struct {
		sync.Mutex
		n int
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.VerifyConcurrency)
	for i := range infos {
		g.Go(func() error {
			r := &results[i]
			r.BlobInfo = infos[i]
			hdr, body, err := s.Blob(ctx, infos[i].BlobKey)
			if err == nil {
				r.Records, err = verifiers[r.Kind](r.Security, s.opts.serializerOptions(), hdr, body)
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.Err = err
				s.metrics.recordError(r.Kind, err)
				failed.Lock()
				failed.n++
				failed.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failed.n > 0 {
		s.opts.Logger.Errorf("verified %d blobs, %d failed", len(infos), failed.n)
	} else {
		s.opts.Logger.Infof("verified %d blobs", len(infos))
	}
	return results, nil
}
