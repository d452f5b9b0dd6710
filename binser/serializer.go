// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"bytes"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/internal/invariants"
	"github.com/tidemark/mdpack/message"
)

// state is the per-stream state handed to record gates: the shared field
// helpers, the working header and the record being encoded or decoded.
type state[T any, M Meta] struct {
	recordIO
	meta M
	// rec is the record being written or read into.
	rec *T
	// prev is the previous record of the stream, nil for the first one.
	prev *T
	// ext holds codec specific per-stream state.
	ext any
}

// seedTimes seeds the server and local time anchors of an empty blob.
func (st *state[T, M]) seedTimes(server, local time.Time) {
	m := st.m
	if !server.IsZero() {
		m.seedServerOffset(server)
		_, sec := server.Zone()
		m.FirstOffset = (time.Duration(sec) * time.Second).Truncate(time.Minute)
		m.LastOffset = m.FirstOffset
	}
	if !local.IsZero() {
		_, sec := local.Zone()
		m.FirstLocalOffset = (time.Duration(sec) * time.Second).Truncate(time.Minute)
		m.LastLocalOffset = m.FirstLocalOffset
		ticks := fieldcodec.StoredTicks(local, st.locals)
		m.FirstLocalTime, m.LastLocalTime = ticks, ticks
	}
}

// codec describes one entity codec.
type codec[T any, M Meta] struct {
	name     string
	min, max Version
	newMeta  func() M
	// layout is the record field order.
	layout Layout[*state[T, M]]
	// times returns the server time layout at v. The location is filled in
	// by the serializer.
	times func(v Version) fieldcodec.TimeOptions
	// serverOffset is the version from which UTC instants are presented in
	// the header's server offset rather than the board's zone.
	serverOffset Version
	// seed initializes the anchors of an empty blob from its first batch.
	seed func(st *state[T, M], recs []T)
	// validate checks a record before any of the batch is written.
	validate func(v Version, rec *T) error
	// start, if set, initializes st.ext for a new stream.
	start func(st *state[T, M])
	// resume, if set, restores st.ext of a writer appending to the records
	// of prior.
	resume func(st *state[T, M], prior *Sequence[T, M]) error
}

func (c *codec[T, M]) checkVersion(v Version) error {
	if !v.Known() || v < c.min || v > c.max {
		return base.UnsupportedVersionf("%s codec supports versions %s to %s, got %s",
			errors.Safe(c.name), c.min, c.max, v)
	}
	return nil
}

func (c *codec[T, M]) clone(meta M) M {
	m := c.newMeta()
	m.copyFrom(meta)
	return m
}

// Serializer encodes and decodes the day blobs of one security and entity.
//
// A day blob is a byte-aligned header (see MarshalMetaInfo) and a body made
// of parts. Every call to Serialize appends one part: a record count
// followed by the bit-packed records, padded to a byte boundary. Field
// deltas continue across parts through the anchors kept in the header.
//
// A Serializer holds no mutable state and may be used concurrently; the
// header values passed to it may not.
type Serializer[T any, M Meta] struct {
	c    *codec[T, M]
	sec  message.SecurityID
	opts Options
}

func newSerializer[T any, M Meta](c *codec[T, M], sec message.SecurityID, opts []Option) *Serializer[T, M] {
	s := &Serializer[T, M]{c: c, sec: sec}
	for _, o := range opts {
		o(&s.opts)
	}
	s.opts.EnsureDefaults()
	return s
}

// Name returns the name of the entity.
func (s *Serializer[T, M]) Name() string {
	return s.c.name
}

// Versions returns the oldest and newest format versions s reads and writes.
func (s *Serializer[T, M]) Versions() (oldest, newest Version) {
	return s.c.min, s.c.max
}

// SecurityID returns the security s was created for.
func (s *Serializer[T, M]) SecurityID() message.SecurityID {
	return s.sec
}

// CreateMetaInfo returns the header of an empty day blob for date.
func (s *Serializer[T, M]) CreateMetaInfo(date time.Time) M {
	meta := s.c.newMeta()
	m := meta.Info()
	m.Version = s.c.max
	if s.opts.Version != 0 {
		m.Version = s.opts.Version
	}
	y, mo, d := date.Date()
	m.Date = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	m.PriceStep = s.opts.PriceStep
	m.VolumeStep = s.opts.VolumeStep
	m.LocalOffset = s.opts.LocalOffset
	return meta
}

func (s *Serializer[T, M]) location(m *MetaInfo) *time.Location {
	if s.opts.Exchange != nil {
		if b, ok := s.opts.Exchange.TryGetExchangeBoard(s.sec.BoardCode); ok && b.TimeZone != nil {
			return b.TimeZone
		}
	}
	return base.Zone(m.LocalOffset)
}

func (s *Serializer[T, M]) newState(meta M) *state[T, M] {
	st := &state[T, M]{meta: meta}
	st.m = meta.Info()
	st.v = st.m.Version
	if s.c.start != nil {
		s.c.start(st)
	}
	return st
}

// configure derives the time layouts of st from its header.
func (s *Serializer[T, M]) configure(st *state[T, M]) {
	o := s.c.times(st.v)
	o.Location = s.location(st.m)
	if o.UTC && s.c.serverOffset != 0 && st.v >= s.c.serverOffset {
		o.Location = base.Zone(st.m.ServerOffset)
	}
	st.times = o
	o.NonOrdered, o.BigRange = true, true
	st.locals = o
}

// beginPart zeroes the anchors that the header does not persist at the
// stream's version, so that writer and reader start every part from the same
// state.
func (s *Serializer[T, M]) beginPart(st *state[T, M]) {
	st.meta.headerLayout().ResetInactive(st.v)
}

// Serialize encodes recs as a new part appended to body and advances meta.
// On failure neither body nor meta are modified.
func (s *Serializer[T, M]) Serialize(body []byte, recs []T, meta M) ([]byte, error) {
	v := meta.Info().Version
	if err := s.c.checkVersion(v); err != nil {
		s.opts.Logger.Errorf("refusing to write %s day blob: %v", s.c.name, err)
		return body, err
	}
	for i := range recs {
		if err := s.c.validate(v, &recs[i]); err != nil {
			return body, errors.Wrapf(err, "%s record %d", errors.Safe(s.c.name), errors.Safe(i))
		}
	}
	if len(recs) == 0 {
		return body, nil
	}
	if len(recs) > math.MaxInt32 || meta.Info().Count > math.MaxInt32-len(recs) {
		return body, base.RangeOverflowf("%d records in a day blob", errors.Safe(meta.Info().Count+len(recs)))
	}

	work := s.c.clone(meta)
	st := s.newState(work)
	st.w = bitstream.NewWriter()
	s.configure(st)
	fresh := st.m.Count == 0
	if fresh {
		s.c.seed(st, recs)
		s.configure(st)
	} else if s.c.resume != nil {
		prior := &Sequence[T, M]{s: s, body: body, meta: s.c.clone(meta)}
		if err := s.c.resume(st, prior); err != nil {
			return body, errors.Wrapf(err, "%s resuming day blob", errors.Safe(s.c.name))
		}
	}
	s.beginPart(st)

	n := int32(len(recs))
	st.i32(&n)
	for i := range recs {
		st.rec = &recs[i]
		if err := s.c.layout.Write(v, st); err != nil {
			return body, errors.Wrapf(err, "%s record %d", errors.Safe(s.c.name), errors.Safe(i))
		}
		st.prev = st.rec
	}
	st.w.AlignToByte()
	st.m.Count += len(recs)

	if invariants.Enabled && (fresh || invariants.Sometimes(25)) {
		full := append(body[:len(body):len(body)], st.w.Bytes()...)
		if err := s.verify(full, work, st.m.Count); err != nil {
			panic(err)
		}
	}
	meta.copyFrom(work)
	return append(body, st.w.Bytes()...), nil
}

// verify decodes a written blob of n records and checks that the reader
// arrives at the anchors the writer left in meta.
func (s *Serializer[T, M]) verify(body []byte, meta M, n int) error {
	seq, err := s.Deserialize(body, meta)
	if err != nil {
		return err
	}
	e := seq.Enumerator()
	count := 0
	for e.MoveNext() {
		count++
	}
	if e.Err() != nil {
		return errors.AssertionFailedf("%s: decoding written records: %v", errors.Safe(s.c.name), e.Err())
	}
	if count != n {
		return errors.AssertionFailedf("%s: wrote %d records, read %d", errors.Safe(s.c.name), n, count)
	}
	want, err := s.MarshalMetaInfo(meta)
	if err != nil {
		return err
	}
	got, err := s.MarshalMetaInfo(e.MetaInfo())
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return errors.AssertionFailedf("%s: reader anchors diverged from writer anchors", errors.Safe(s.c.name))
	}
	return nil
}

// Deserialize returns the lazy sequence of the records in body. The header is
// not modified; each enumeration decodes from a private copy.
func (s *Serializer[T, M]) Deserialize(body []byte, meta M) (*Sequence[T, M], error) {
	if err := s.c.checkVersion(meta.Info().Version); err != nil {
		s.opts.Logger.Errorf("refusing to read %s day blob: %v", s.c.name, err)
		return nil, err
	}
	return &Sequence[T, M]{s: s, body: body, meta: s.c.clone(meta)}, nil
}

// MarshalMetaInfo encodes the header of a day blob.
func (s *Serializer[T, M]) MarshalMetaInfo(meta M) ([]byte, error) {
	m := meta.Info()
	if err := s.c.checkVersion(m.Version); err != nil {
		return nil, err
	}
	h := newHeaderWriter()
	major, minor := m.Version.Major(), m.Version.Minor()
	h.u8(&major)
	h.u8(&minor)
	if err := meta.headerLayout().Write(m.Version, h); err != nil {
		return nil, errors.Wrapf(err, "%s header", errors.Safe(s.c.name))
	}
	return h.buf, nil
}

// UnmarshalMetaInfo decodes a header written by MarshalMetaInfo. Headers of
// versions outside the codec's range fail with ErrUnsupportedVersion before
// any field is read.
func (s *Serializer[T, M]) UnmarshalMetaInfo(data []byte) (M, error) {
	meta := s.c.newMeta()
	h := newHeaderReader(data)
	var major, minor uint8
	h.u8(&major)
	h.u8(&minor)
	if h.err != nil {
		return meta, errors.Wrapf(h.err, "%s header", errors.Safe(s.c.name))
	}
	m := meta.Info()
	m.Version = MakeVersion(major, minor)
	if err := s.c.checkVersion(m.Version); err != nil {
		s.opts.Logger.Errorf("refusing %s header: %v", s.c.name, err)
		return meta, err
	}
	if err := meta.headerLayout().Read(m.Version, h); err != nil {
		return meta, errors.Wrapf(err, "%s header", errors.Safe(s.c.name))
	}
	if h.off != len(data) {
		return meta, base.CorruptionErrorf("%s header has %d trailing bytes",
			errors.Safe(s.c.name), errors.Safe(len(data)-h.off))
	}
	if m.Version < Version40 {
		m.LocalOffset = s.opts.LocalOffset
	}
	if m.Count > 0 {
		y, mo, d := base.FromTicks(m.FirstTime).Date()
		m.Date = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	}
	return meta, nil
}

// HeaderFields returns the names of the header fields present at v, in
// order.
func (s *Serializer[T, M]) HeaderFields(v Version) []string {
	return s.c.newMeta().headerLayout().Names(v)
}

// RecordFields returns the names of the record fields present at v, in
// order.
func (s *Serializer[T, M]) RecordFields(v Version) []string {
	return s.c.layout.Names(v)
}
