// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"iter"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/internal/invariants"
)

// Sequence is the lazy, restartable sequence of the records of a day blob.
type Sequence[T any, M Meta] struct {
	s    *Serializer[T, M]
	body []byte
	meta M

	// memo caches a value computed from all the records.
	memo struct {
		once sync.Once
		v    any
		err  error
	}
}

// memoize returns the result of the first call of f on q.
func (q *Sequence[T, M]) memoize(f func() (any, error)) (any, error) {
	q.memo.once.Do(func() {
		q.memo.v, q.memo.err = f()
	})
	return q.memo.v, q.memo.err
}

// Len returns the number of records in the sequence.
func (q *Sequence[T, M]) Len() int {
	return q.meta.Info().Count
}

// Enumerator returns a new cursor positioned before the first record.
func (q *Sequence[T, M]) Enumerator() *Enumerator[T, M] {
	return &Enumerator[T, M]{q: q}
}

// All returns an iterator over the records. Iteration stops after the first
// error, which is yielded with a zero record.
func (q *Sequence[T, M]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		e := q.Enumerator()
		for e.MoveNext() {
			if !yield(e.Current(), nil) {
				return
			}
		}
		if err := e.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect decodes every record.
func (q *Sequence[T, M]) Collect() ([]T, error) {
	recs := make([]T, 0, q.Len())
	e := q.Enumerator()
	for e.MoveNext() {
		recs = append(recs, e.Current())
	}
	return recs, e.Err()
}

// EnumeratorState is the position of an Enumerator.
type EnumeratorState int8

// EnumeratorState values.
const (
	BeforeFirst EnumeratorState = iota
	InProgress
	Exhausted
)

// String implements fmt.Stringer.
func (s EnumeratorState) String() string {
	switch s {
	case BeforeFirst:
		return "before-first"
	case InProgress:
		return "in-progress"
	default:
		return "exhausted"
	}
}

// Enumerator is a forward-only cursor over a Sequence. The first MoveNext
// clones the header and every step decodes one record against the clone's
// anchors. An Enumerator must not be used concurrently.
type Enumerator[T any, M Meta] struct {
	q     *Sequence[T, M]
	state EnumeratorState
	st    *state[T, M]
	r     *bitstream.Reader
	// index is the number of records decoded.
	index int
	// partLeft is the number of records left in the current part.
	partLeft int
	cur      T
	prev     T
	err      error
}

// State returns the position of the enumerator.
func (e *Enumerator[T, M]) State() EnumeratorState {
	return e.state
}

// MoveNext decodes the next record. It returns false once the records are
// exhausted or decoding failed; Err distinguishes the two.
func (e *Enumerator[T, M]) MoveNext() bool {
	switch e.state {
	case Exhausted:
		return false
	case BeforeFirst:
		e.start()
	}
	count := e.st.m.Count
	if e.index == count {
		e.state = Exhausted
		return false
	}
	if e.partLeft == 0 {
		if err := e.beginPart(count); err != nil {
			return e.fail(err)
		}
	}

	var rec T
	e.st.rec = &rec
	e.st.prev = nil
	if e.index > 0 {
		e.prev = e.cur
		e.st.prev = &e.prev
	}
	if err := e.q.s.c.layout.Read(e.st.v, e.st); err != nil {
		return e.fail(errors.Wrapf(err, "%s record %d", errors.Safe(e.q.s.c.name), errors.Safe(e.index)))
	}
	e.cur = rec
	e.index++
	e.partLeft--
	return true
}

func (e *Enumerator[T, M]) start() {
	s := e.q.s
	meta := s.c.clone(e.q.meta)
	meta.rewind()
	e.st = s.newState(meta)
	e.r = bitstream.NewReader(e.q.body)
	e.st.r = e.r
	s.configure(e.st)
	e.state = InProgress
}

// beginPart reads the size of the next part.
func (e *Enumerator[T, M]) beginPart(count int) error {
	e.r.AlignToByte()
	var n int32
	e.st.i32(&n)
	if err := e.st.Err(); err != nil {
		return errors.Wrapf(err, "reading part size at record %d", errors.Safe(e.index))
	}
	left := invariants.SafeSub(count, e.index)
	if n <= 0 || int(n) > left {
		return base.CorruptionErrorf("part of %d records at record %d of %d",
			errors.Safe(n), errors.Safe(e.index), errors.Safe(count))
	}
	e.partLeft = int(n)
	e.q.s.beginPart(e.st)
	return nil
}

func (e *Enumerator[T, M]) fail(err error) bool {
	e.err = err
	e.state = Exhausted
	return false
}

// Current returns the last decoded record.
func (e *Enumerator[T, M]) Current() T {
	return e.cur
}

// Previous returns the record decoded before Current, if any.
func (e *Enumerator[T, M]) Previous() (T, bool) {
	return e.prev, e.index > 1
}

// Index returns the position of Current in the sequence, or -1 before the
// first record.
func (e *Enumerator[T, M]) Index() int {
	return e.index - 1
}

// MetaInfo returns the enumerator's working header, whose anchors reflect the
// records decoded so far. It is nil before the first MoveNext.
func (e *Enumerator[T, M]) MetaInfo() M {
	if e.st == nil {
		var zero M
		return zero
	}
	return e.st.meta
}

// Err returns the error that stopped the enumeration, if any.
func (e *Enumerator[T, M]) Err() error {
	return e.err
}

// Reset rewinds the enumerator to before the first record.
func (e *Enumerator[T, M]) Reset() {
	*e = Enumerator[T, M]{q: e.q}
}
