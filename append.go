// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/binser"
)

// kindOf returns the kind of the blobs s encodes.
func kindOf[T any, M binser.Meta](s *binser.Serializer[T, M]) (Kind, error) {
	k, err := ParseKind(s.Name())
	if err != nil {
		return 0, errors.AssertionFailedf("serializer %q has no store kind", errors.Safe(s.Name()))
	}
	return k, nil
}

// Append appends recs to the day blob of s's security, creating the blob if
// necessary. recs become one part of the blob: they are either all stored or,
// on error, none are.
func Append[T any, M binser.Meta](
	ctx context.Context, st *Store, s *binser.Serializer[T, M], day time.Time, recs []T,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := st.checkOpen(); err != nil {
		return err
	}
	kind, err := kindOf(s)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	k := BlobKey{Kind: kind, Security: s.SecurityID(), Day: DayOf(day)}
	if err := appendLocked(ctx, st, s, k, recs); err != nil {
		st.metrics.recordError(kind, err)
		st.opts.Logger.Errorf("appending %d records to %s: %v", len(recs), k, err)
		return err
	}
	st.metrics.RecordsAppended.WithLabelValues(kind.String()).Add(float64(len(recs)))
	return nil
}

func appendLocked[T any, M binser.Meta](
	ctx context.Context, st *Store, s *binser.Serializer[T, M], k BlobKey, recs []T,
) error {
	st.appendMu.Lock()
	defer st.appendMu.Unlock()

	hdr, body, err := st.get(k)
	var meta M
	switch {
	case errors.Is(err, ErrNotFound):
		meta = s.CreateMetaInfo(k.Day)
	case err != nil:
		return err
	default:
		if meta, err = s.UnmarshalMetaInfo(hdr); err != nil {
			return errors.Wrapf(err, "%s", k)
		}
	}
	if body, err = s.Serialize(body, recs, meta); err != nil {
		return err
	}
	if hdr, err = s.MarshalMetaInfo(meta); err != nil {
		return err
	}
	n, err := st.put(ctx, k, hdr, body)
	if err != nil {
		return err
	}
	st.metrics.BytesWritten.WithLabelValues(k.Kind.String()).Add(float64(n))
	st.opts.Logger.Infof("appended %d records to %s (%d records, %d bytes)",
		len(recs), k, meta.Info().Count, n)
	return nil
}

// Load returns the records of the day blob of s's security. The records are
// decoded lazily by the returned sequence.
func Load[T any, M binser.Meta](
	ctx context.Context, st *Store, s *binser.Serializer[T, M], day time.Time,
) (*binser.Sequence[T, M], error) {
	kind, err := kindOf(s)
	if err != nil {
		return nil, err
	}
	hdr, body, err := st.Blob(ctx, BlobKey{Kind: kind, Security: s.SecurityID(), Day: DayOf(day)})
	if err != nil {
		return nil, err
	}
	meta, err := s.UnmarshalMetaInfo(hdr)
	if err != nil {
		st.metrics.recordError(kind, err)
		return nil, err
	}
	return s.Deserialize(body, meta)
}
