// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// BoardStateMeta is the header of a board state day blob.
type BoardStateMeta struct {
	MetaInfo
	Boards *fieldcodec.StringTable
}

var _ Meta = (*BoardStateMeta)(nil)

func (m *BoardStateMeta) copyFrom(other Meta) {
	o := other.(*BoardStateMeta)
	*m = *o
	m.Boards = o.Boards.Clone()
}

func (m *BoardStateMeta) rewind() {
	m.rewindBase()
}

func (m *BoardStateMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		tableGate("boards", Version40, &m.Boards),
		m.serverOffsetGate(Version40),
		m.localTimesGate(Version41),
	)
}

type boardStateState = state[message.BoardState, *BoardStateMeta]

var boardStateCodec = &codec[message.BoardState, *BoardStateMeta]{
	name:    "boardstate",
	min:     Version40,
	max:     Version41,
	newMeta: func() *BoardStateMeta { return &BoardStateMeta{Boards: fieldcodec.NewStringTable()} },
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    true,
			UTC:           true,
			BigRange:      true,
			TickPrecision: v >= Version41,
		}
	},
	serverOffset: Version40,
	seed: func(st *boardStateState, recs []message.BoardState) {
		r := &recs[0]
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
	},
	validate: func(_ Version, b *message.BoardState) error {
		if b.BoardCode == "" {
			return base.InvalidDomainStatef("board state without a board")
		}
		if b.State < message.SessionNone || b.State > message.SessionEnded {
			return base.UnsupportedValuef("session state %d", errors.Safe(b.State))
		}
		return nil
	},
	layout: Layout[*boardStateState]{
		field("board", Version40, func(st *boardStateState) {
			st.interned(&st.rec.BoardCode, st.meta.Boards)
		}),
		field("state", Version40, func(st *boardStateState) { enum(&st.recordIO, &st.rec.State, 3) }),
		field("server time", Version40, func(st *boardStateState) { st.serverTime(&st.rec.ServerTime) }),
		field("local time", Version41, func(st *boardStateState) { st.localTime(&st.rec.LocalTime) }),
	},
}

// NewBoardStateSerializer returns the serializer of board session states.
func NewBoardStateSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.BoardState, *BoardStateMeta] {
	return newSerializer(boardStateCodec, sec, opts)
}
