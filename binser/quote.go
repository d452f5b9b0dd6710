// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
	"github.com/tidemark/mdpack/orderbook"
)

// maxQuoteLevels bounds the number of levels on one side of a book.
const maxQuoteLevels = 1 << 16

// QuoteMeta is the header of an order book day blob.
type QuoteMeta struct {
	MetaInfo
	// HasSnapshot is set once the records of the day assemble into a full
	// book. It never reverts.
	HasSnapshot bool
}

var _ Meta = (*QuoteMeta)(nil)

func (m *QuoteMeta) copyFrom(other Meta) {
	*m = *other.(*QuoteMeta)
}

func (m *QuoteMeta) rewind() {
	m.rewindBase()
}

func (m *QuoteMeta) headerLayout() Layout[*headerIO] {
	hasSnapshot := field("has snapshot", Version53, func(h *headerIO) { h.boolean(&m.HasSnapshot) })
	return append(m.baseLayout(),
		m.pricesGate(Version40),
		m.fractionalVolumesGate(Version44),
		m.fractionalPricesGate(Version47),
		m.serverOffsetGate(Version49),
		m.offsetsGate(Version51),
		hasSnapshot,
		m.localTimesGate(Version54),
		m.seqNumsGate(Version55),
	)
}

type quoteState = state[message.QuoteChange, *QuoteMeta]

var quoteCodec = &codec[message.QuoteChange, *QuoteMeta]{
	name:    "quote",
	min:     Version40,
	max:     Version55,
	newMeta: func() *QuoteMeta { return &QuoteMeta{} },
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    v >= Version46,
			UTC:           v >= Version49,
			DiffOffsets:   v >= Version51,
			TickPrecision: v >= Version52,
			BigRange:      v >= Version52,
		}
	},
	serverOffset: Version49,
	seed: func(st *quoteState, recs []message.QuoteChange) {
		r := &recs[0]
		for _, side := range [][]message.Quote{r.Bids, r.Asks} {
			if len(side) > 0 {
				st.m.seedPrice(side[0].Price, Version47)
				break
			}
		}
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
	},
	validate: validateQuote,
	start: func(st *quoteState) {
		st.ext = &orderbook.IncrementBuilder{}
	},
	resume: resumeQuotes,
	layout: Layout[*quoteState]{
		field("server time", Version40, func(st *quoteState) { st.serverTime(&st.rec.ServerTime) }),
		field("local time", Version54, func(st *quoteState) { st.localTime(&st.rec.LocalTime) }),
		field("state", Version53, func(st *quoteState) { enum(&st.recordIO, &st.rec.State, 3) }),
		field("levels", Version40, quoteBook),
		field("sequence number", Version55, func(st *quoteState) { st.seqNum(&st.rec.SeqNum) }),
	},
}

// quoteBook persists the levels of a record. A full book following another
// full book may be written as the delta between the two.
func quoteBook(st *quoteState) {
	r := st.rec
	full := func(q *message.QuoteChange) bool { return q.State == message.QuoteStateNone }
	canDiff := st.prev != nil && full(st.prev) && full(r)
	if !st.flag(canDiff) {
		quoteLevels(st, &r.Bids)
		quoteLevels(st, &r.Asks)
		trackSnapshot(st)
		return
	}
	if st.reading() {
		if st.prev == nil || !full(st.prev) {
			st.fail(base.CorruptionErrorf("book delta without a preceding full book"))
			return
		}
		var d message.QuoteChange
		quoteLevels(st, &d.Bids)
		quoteLevels(st, &d.Asks)
		if st.Err() == nil {
			book := orderbook.AddDelta(*st.prev, d)
			r.Bids, r.Asks = book.Bids, book.Asks
		}
	} else {
		d := orderbook.GetDelta(*st.prev, *r)
		quoteLevels(st, &d.Bids)
		quoteLevels(st, &d.Asks)
	}
	trackSnapshot(st)
}

// trackSnapshot feeds a record to the book builder of the stream. Writers
// record in the header whether the records so far assemble into a full book.
func trackSnapshot(st *quoteState) {
	if st.Err() != nil {
		return
	}
	b := st.ext.(*orderbook.IncrementBuilder)
	if _, ok := b.TryApply(*st.rec); ok && !st.reading() && st.at(Version53) {
		st.meta.HasSnapshot = true
	}
}

// resumeQuotes replays the records already in a blob into the writer's book
// builder, so that a snapshot split across appends completes. Once the day
// has a snapshot the flag cannot change and nothing is replayed.
func resumeQuotes(st *quoteState, prior *Sequence[message.QuoteChange, *QuoteMeta]) error {
	if st.meta.HasSnapshot || !st.at(Version53) {
		return nil
	}
	b := st.ext.(*orderbook.IncrementBuilder)
	for rec, err := range prior.All() {
		if err != nil {
			return err
		}
		b.TryApply(rec)
	}
	return nil
}

// QuoteBook returns the full book assembled from the records e has decoded so
// far: the last full snapshot with every later increment applied.
func QuoteBook(e *Enumerator[message.QuoteChange, *QuoteMeta]) (message.QuoteChange, bool) {
	if e.st == nil {
		return message.QuoteChange{}, false
	}
	return e.st.ext.(*orderbook.IncrementBuilder).Book()
}

// QuoteSnapshot returns the full book at the end of the records of q. It is
// synthesized once per sequence and false if the records never assemble into
// a full book.
func QuoteSnapshot(q *Sequence[message.QuoteChange, *QuoteMeta]) (message.QuoteChange, bool, error) {
	v, err := q.memoize(func() (any, error) {
		e := q.Enumerator()
		for e.MoveNext() {
		}
		if err := e.Err(); err != nil {
			return nil, err
		}
		if book, ok := QuoteBook(e); ok {
			return book, nil
		}
		return nil, nil
	})
	if err != nil || v == nil {
		return message.QuoteChange{}, false, err
	}
	return v.(message.QuoteChange).Clone(), true, nil
}

func quoteLevels(st *quoteState, qs *[]message.Quote) {
	n := len(*qs)
	st.count(&n, maxQuoteLevels)
	if st.Err() != nil {
		return
	}
	if st.reading() {
		*qs = make([]message.Quote, n)
	}
	for i := range *qs {
		q := &(*qs)[i]
		st.price(&q.Price, st.at(Version47), fieldcodec.PriceOptions{})
		st.volume(&q.Volume, st.at(Version44))
		if st.at(Version50) {
			st.nullI32(&q.OrdersCount)
		}
	}
}

func validateQuote(v Version, q *message.QuoteChange) error {
	if v < Version53 && q.State != message.QuoteStateNone {
		return base.UnsupportedValuef("book state %s in format %s", q.State, v)
	}
	if q.State < message.QuoteStateNone || q.State > message.Increment {
		return base.UnsupportedValuef("book state %d", errors.Safe(q.State))
	}
	for _, side := range []struct {
		qs   []message.Quote
		bids bool
	}{{q.Bids, true}, {q.Asks, false}} {
		if len(side.qs) > maxQuoteLevels {
			return base.RangeOverflowf("book at %s has %d levels", q.ServerTime, errors.Safe(len(side.qs)))
		}
		if !orderbook.IsSorted(side.qs, side.bids) {
			return base.InvalidDomainStatef("book at %s has unordered levels", q.ServerTime)
		}
		for _, l := range side.qs {
			if l.Volume.IsNegative() {
				return base.InvalidDomainStatef("book at %s has level %s with negative volume", q.ServerTime, l)
			}
			if v < Version44 && !l.Volume.IsInteger() {
				return base.UnsupportedValuef("book at %s has fractional volume %s", q.ServerTime, l.Volume)
			}
		}
	}
	return nil
}

// NewQuoteSerializer returns the serializer of the order books of sec.
func NewQuoteSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.QuoteChange, *QuoteMeta] {
	return newSerializer(quoteCodec, sec, opts)
}
