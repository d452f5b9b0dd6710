// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/tokenbucket"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/compression"
	"github.com/tidemark/mdpack/message"
)

// ErrNotFound is returned when a requested day blob does not exist.
var ErrNotFound = errors.New("mdpack: not found")

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("mdpack: closed")

// envelopeMagic starts every stored value.
var envelopeMagic = [4]byte{'m', 'd', 'p', 'k'}

// envelopeHeaderLen is the length of the magic, the algorithm byte and the
// checksum of the payload.
const envelopeHeaderLen = len(envelopeMagic) + 1 + 8

// Store keeps day blobs keyed by data kind, security and trading day in a
// pebble database. Each value holds the header and the body of one blob,
// compressed and checksummed.
//
// A Store is safe for concurrent use. Appends are serialized.
type Store struct {
	opts    *Options
	db      *pebble.DB
	metrics *Metrics

	// appendMu serializes read-modify-write cycles of Append.
	appendMu sync.Mutex
	limiter  *tokenbucket.TokenBucket

	mu struct {
		sync.Mutex
		closed bool
	}
}

// Open opens the store in dirname, creating it if necessary.
func Open(dirname string, opts *Options) (*Store, error) {
	opts = opts.EnsureDefaults()
	db, err := pebble.Open(dirname, &pebble.Options{FS: opts.FS})
	if err != nil {
		return nil, errors.Wrapf(err, "opening store %s", dirname)
	}
	s := &Store{opts: opts, db: db, metrics: newMetrics()}
	if opts.Registerer != nil {
		if err := s.metrics.register(opts.Registerer); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if r := opts.WriteBytesPerSecond; r > 0 {
		s.limiter = &tokenbucket.TokenBucket{}
		s.limiter.InitWithNowFn(tokenbucket.TokensPerSecond(r), tokenbucket.Tokens(r), opts.now)
	}
	opts.Logger.Infof("opened store %s (compression %s)", dirname, opts.Compression)
	return s, nil
}

// Metrics returns the store's counters.
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.closed {
		return ErrClosed
	}
	s.mu.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.closed {
		return ErrClosed
	}
	return nil
}

// BlobKey identifies a day blob.
type BlobKey struct {
	Kind     Kind
	Security message.SecurityID
	Day      time.Time
}

// String implements fmt.Stringer.
func (k BlobKey) String() string {
	return k.Kind.String() + "/" + k.Security.String() + "/" + k.Day.Format(time.DateOnly)
}

// DayOf returns the UTC midnight of the calendar day of t in t's location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// encode returns the database key of k: the kind, the security, a zero
// separator and the big-endian number of days since the Unix epoch.
func (k BlobKey) encode() []byte {
	key := k.prefix()
	days := uint32(DayOf(k.Day).Unix() / 86400)
	return binary.BigEndian.AppendUint32(key, days)
}

func (k BlobKey) prefix() []byte {
	sec := k.Security.String()
	key := make([]byte, 0, 2+len(sec)+4)
	key = append(key, byte(k.Kind))
	key = append(key, sec...)
	return append(key, 0)
}

func decodeKey(key []byte) (BlobKey, error) {
	i := bytes.IndexByte(key, 0)
	if len(key) < 2 || i < 1 || len(key) != i+5 {
		return BlobKey{}, base.CorruptionErrorf("malformed store key %x", key)
	}
	k := BlobKey{Kind: Kind(key[0])}
	if k.Kind == 0 || k.Kind >= numKinds {
		return BlobKey{}, base.CorruptionErrorf("store key has unknown kind %d", errors.Safe(key[0]))
	}
	sec, err := message.ParseSecurityID(string(key[1:i]))
	if err != nil {
		return BlobKey{}, base.MarkCorruptionError(err)
	}
	k.Security = sec
	days := binary.BigEndian.Uint32(key[i+1:])
	k.Day = time.Unix(int64(days)*86400, 0).UTC()
	return k, nil
}

// sealBlob returns the stored form of a header and body.
func sealBlob(a compression.Algorithm, hdr, body []byte) []byte {
	raw := make([]byte, 0, binary.MaxVarintLen64+len(hdr)+len(body))
	raw = binary.AppendUvarint(raw, uint64(len(hdr)))
	raw = append(raw, hdr...)
	raw = append(raw, body...)
	payload := compression.Compress(a, nil, raw)

	v := make([]byte, envelopeHeaderLen, envelopeHeaderLen+len(payload))
	copy(v, envelopeMagic[:])
	v[len(envelopeMagic)] = byte(a)
	binary.LittleEndian.PutUint64(v[len(envelopeMagic)+1:], xxhash.Sum64(payload))
	return append(v, payload...)
}

// openBlob verifies a stored value and returns its header and body.
func openBlob(v []byte) (hdr, body []byte, err error) {
	if len(v) < envelopeHeaderLen || !bytes.Equal(v[:len(envelopeMagic)], envelopeMagic[:]) {
		return nil, nil, base.CorruptionErrorf("stored blob has no envelope")
	}
	a := compression.Algorithm(v[len(envelopeMagic)])
	sum := binary.LittleEndian.Uint64(v[len(envelopeMagic)+1:])
	payload := v[envelopeHeaderLen:]
	if got := xxhash.Sum64(payload); got != sum {
		return nil, nil, base.CorruptionErrorf("stored blob checksum mismatch: %016x != %016x",
			errors.Safe(got), errors.Safe(sum))
	}
	raw, err := compression.Decompress(a, payload)
	if err != nil {
		return nil, nil, err
	}
	n, l := binary.Uvarint(raw)
	if l <= 0 || n > uint64(len(raw)-l) {
		return nil, nil, base.CorruptionErrorf("stored blob has a bad header length")
	}
	raw = raw[l:]
	return raw[:n:n], raw[n:], nil
}

// Blob returns the header and the body of the blob at k.
func (s *Store) Blob(ctx context.Context, k BlobKey) (hdr, body []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}
	hdr, body, err = s.get(k)
	if err != nil {
		s.metrics.recordError(k.Kind, err)
		return nil, nil, err
	}
	s.metrics.BlobsRead.WithLabelValues(k.Kind.String()).Inc()
	return hdr, body, nil
}

func (s *Store) get(k BlobKey) (hdr, body []byte, err error) {
	v, closer, err := s.db.Get(k.encode())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil, errors.Mark(errors.Newf("%s: blob does not exist", k), ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()
	hdr, body, err = openBlob(v)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", k)
	}
	// The value is only valid until closer is closed.
	return slices.Clone(hdr), slices.Clone(body), nil
}

// put stores a blob, waiting for the rate limiter first.
func (s *Store) put(ctx context.Context, k BlobKey, hdr, body []byte) (int, error) {
	v := sealBlob(s.opts.Compression, hdr, body)
	if err := s.pace(ctx, len(v)); err != nil {
		return 0, err
	}
	wo := pebble.NoSync
	if s.opts.Sync {
		wo = pebble.Sync
	}
	if err := s.db.Set(k.encode(), v, wo); err != nil {
		return 0, errors.Wrapf(err, "storing %s", k)
	}
	return len(v), nil
}

func (s *Store) pace(ctx context.Context, n int) error {
	if s.limiter == nil {
		return nil
	}
	for {
		ok, d := s.limiter.TryToFulfill(tokenbucket.Tokens(n))
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

// Delete removes the blob at k. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, k BlobKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	if err := s.db.Delete(k.encode(), pebble.Sync); err != nil {
		return errors.Wrapf(err, "deleting %s", k)
	}
	s.opts.Logger.Infof("deleted %s", k)
	return nil
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	BlobKey
	// Size is the stored size of the blob, after compression.
	Size int
}

// List returns the blobs whose key matches the filter, in key order: by
// kind, then security, then day. A zero Kind or Security matches every
// value.
func (s *Store) List(ctx context.Context, kind Kind, sec message.SecurityID) ([]BlobInfo, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	o := &pebble.IterOptions{}
	switch {
	case kind != 0 && sec != (message.SecurityID{}):
		o.LowerBound = BlobKey{Kind: kind, Security: sec}.prefix()
		o.UpperBound = append(slices.Clone(o.LowerBound[:len(o.LowerBound)-1]), 1)
	case kind != 0:
		o.LowerBound = []byte{byte(kind)}
		o.UpperBound = []byte{byte(kind) + 1}
	}
	iter, err := s.db.NewIter(o)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var infos []BlobInfo
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k, err := decodeKey(iter.Key())
		if err != nil {
			return nil, err
		}
		if sec != (message.SecurityID{}) && k.Security != sec {
			continue
		}
		infos = append(infos, BlobInfo{BlobKey: k, Size: len(iter.Value())})
	}
	return infos, iter.Error()
}

// Days returns the trading days stored for a kind and security, in
// ascending order.
func (s *Store) Days(ctx context.Context, kind Kind, sec message.SecurityID) ([]time.Time, error) {
	infos, err := s.List(ctx, kind, sec)
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, len(infos))
	for i := range infos {
		days[i] = infos[i].Day
	}
	return days, nil
}
