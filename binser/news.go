// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// NewsMeta is the header of a news day blob.
type NewsMeta struct {
	MetaInfo
}

var _ Meta = (*NewsMeta)(nil)

func (m *NewsMeta) copyFrom(other Meta) {
	*m = *other.(*NewsMeta)
}

func (m *NewsMeta) rewind() {
	m.rewindBase()
}

func (m *NewsMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		m.serverOffsetGate(Version40),
		m.offsetsGate(Version43),
		m.localTimesGate(Version44),
		m.seqNumsGate(Version44),
	)
}

type newsState = state[message.News, *NewsMeta]

var newsCodec = &codec[message.News, *NewsMeta]{
	name:    "news",
	min:     Version40,
	max:     Version44,
	newMeta: func() *NewsMeta { return &NewsMeta{} },
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    true,
			UTC:           true,
			BigRange:      true,
			DiffOffsets:   v >= Version43,
			TickPrecision: v >= Version44,
		}
	},
	serverOffset: Version40,
	seed: func(st *newsState, recs []message.News) {
		r := &recs[0]
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
	},
	validate: func(_ Version, n *message.News) error {
		if n.Headline == "" {
			return base.InvalidDomainStatef("news %q has no headline", n.ID)
		}
		if n.ExpiryDate != nil && n.ExpiryDate.IsZero() {
			return base.UnsupportedValuef("news %q has a zero expiry date", n.ID)
		}
		return nil
	},
	layout: Layout[*newsState]{
		field("id", Version40, func(st *newsState) { st.str(&st.rec.ID) }),
		field("server time", Version40, func(st *newsState) { st.serverTime(&st.rec.ServerTime) }),
		field("source", Version40, func(st *newsState) { st.str(&st.rec.Source) }),
		field("headline", Version40, func(st *newsState) { st.str(&st.rec.Headline) }),
		field("security", Version40, func(st *newsState) {
			st.str(&st.rec.BoardCode)
			st.str(&st.rec.SecurityCode)
		}),
		field("story and url", Version41, func(st *newsState) {
			st.str(&st.rec.Story)
			st.str(&st.rec.URL)
		}),
		field("priority and language", Version42, func(st *newsState) {
			st.nullI32(&st.rec.Priority)
			st.str(&st.rec.Language)
		}),
		field("expiry", Version43, func(st *newsState) {
			nullable(&st.recordIO, &st.rec.ExpiryDate, st.rawTime)
		}),
		field("local time and sequence number", Version44, func(st *newsState) {
			st.localTime(&st.rec.LocalTime)
			st.seqNum(&st.rec.SeqNum)
		}),
	},
}

// NewNewsSerializer returns the serializer of news. News not bound to a
// security are stored under a placeholder security.
func NewNewsSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.News, *NewsMeta] {
	return newSerializer(newsCodec, sec, opts)
}
