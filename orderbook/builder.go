// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package orderbook

import "github.com/tidemark/mdpack/message"

// IncrementBuilder assembles full books from a stream of snapshot parts and
// increments.
type IncrementBuilder struct {
	// building is the snapshot being collected, valid while collecting.
	building   message.QuoteChange
	collecting bool
	book       message.QuoteChange
	hasBook    bool
}

// HasBook reports whether a full book has been assembled.
func (b *IncrementBuilder) HasBook() bool {
	return b.hasBook
}

// Book returns the last assembled book.
func (b *IncrementBuilder) Book() (message.QuoteChange, bool) {
	return b.book.Clone(), b.hasBook
}

// TryApply feeds change to the builder and returns the full book it results
// in, if any. Snapshot parts are collected until the snapshot completes;
// increments patch the current book and are ignored until one exists.
func (b *IncrementBuilder) TryApply(change message.QuoteChange) (message.QuoteChange, bool) {
	switch change.State {
	case message.QuoteStateNone:
		b.collecting = false
		b.setBook(change.Clone())

	case message.SnapshotStarted:
		b.building = change.Clone()
		b.building.Bids = mergeSide(nil, change.Bids, true)
		b.building.Asks = mergeSide(nil, change.Asks, false)
		b.collecting = true
		return message.QuoteChange{}, false

	case message.SnapshotBuilding, message.SnapshotComplete:
		if !b.collecting {
			return message.QuoteChange{}, false
		}
		b.building.Bids = mergeSide(b.building.Bids, change.Bids, true)
		b.building.Asks = mergeSide(b.building.Asks, change.Asks, false)
		b.building.ServerTime = change.ServerTime
		b.building.LocalTime = change.LocalTime
		b.building.SeqNum = change.SeqNum
		if change.State == message.SnapshotBuilding {
			return message.QuoteChange{}, false
		}
		b.collecting = false
		b.setBook(b.building)

	case message.Increment:
		if !b.hasBook {
			return message.QuoteChange{}, false
		}
		b.setBook(AddDelta(b.book, change))

	default:
		return message.QuoteChange{}, false
	}
	return b.book.Clone(), true
}

func (b *IncrementBuilder) setBook(book message.QuoteChange) {
	book.State = message.QuoteStateNone
	b.book = book
	b.hasBook = true
}

func mergeSide(into, part []message.Quote, bids bool) []message.Quote {
	out := append([]message.Quote(nil), into...)
	for _, q := range part {
		if i := find(out, q.Price); i >= 0 {
			out[i] = q
		} else {
			out = append(out, q)
		}
	}
	Sort(out, bids)
	return out
}
