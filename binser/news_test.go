// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/message"
)

func testNews() [][]message.News {
	expiry := time.Date(2024, 3, 16, 0, 0, 0, 0, time.FixedZone("", 3*3600))
	return [][]message.News{
		{
			{
				ID: "n-1", ServerTime: at("10:00:00"), LocalTime: at("10:00:00.25"),
				Source: "wire", Headline: "Dividends approved", Story: "The board approved...",
				URL: "https://example.com/n-1", BoardCode: "TQBR", SecurityCode: "SBER",
				Priority: message.Int32(2), Language: "en", ExpiryDate: &expiry, SeqNum: 7,
			},
			{
				// Not bound to a security.
				ServerTime: at("09:30:00"), Headline: "Market opens late", SeqNum: 8,
			},
		},
		{
			{
				ID: "n-3", ServerTime: at("18:00:00.125"), LocalTime: at("18:00:01"),
				Source: "wire", Headline: "Close", Language: "ru", SeqNum: 10,
			},
		},
	}
}

func expectNews(v Version, n message.News) message.News {
	if v < Version41 {
		n.Story, n.URL = "", ""
	}
	if v < Version42 {
		n.Priority, n.Language = nil, ""
	}
	if v < Version43 {
		n.ExpiryDate = nil
	}
	if v < Version44 {
		n.LocalTime, n.SeqNum = time.Time{}, 0
	}
	return n
}

func TestNewsRoundTrip(t *testing.T) {
	s := NewNewsSerializer(testSec)
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			var want []message.News
			for _, b := range testNews() {
				for _, n := range b {
					want = append(want, expectNews(v, n))
				}
			}
			requireRecords(t, want, roundTrip(t, s, v, testNews()...))
		})
	}
}

func TestNewsExpiryOffset(t *testing.T) {
	s := NewNewsSerializer(testSec)
	got := roundTrip(t, s, Version44, testNews()[0][:1])
	_, offset := got[0].ExpiryDate.Zone()
	require.Equal(t, 3*3600, offset)
	require.True(t, testNews()[0][0].ExpiryDate.Equal(*got[0].ExpiryDate))
}

func TestNewsValidation(t *testing.T) {
	s := NewNewsSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	var zero time.Time
	for _, c := range []struct {
		n    message.News
		want error
	}{
		{message.News{ID: "x", ServerTime: at("10:00:00")}, ErrInvalidDomainState},
		{message.News{ID: "x", ServerTime: at("10:00:00"), Headline: "h", ExpiryDate: &zero}, ErrUnsupportedValue},
	} {
		_, err := s.Serialize(nil, []message.News{c.n}, meta)
		require.True(t, errors.Is(err, c.want), "%v", err)
	}
	require.Zero(t, meta.Count)
}

func testBoardStates() []message.BoardState {
	return []message.BoardState{
		{BoardCode: "TQBR", State: message.SessionAssigned, ServerTime: at("06:50:00"), LocalTime: at("06:50:00.001")},
		{BoardCode: "TQBR", State: message.SessionActive, ServerTime: at("07:00:00")},
		{BoardCode: "SMAL", State: message.SessionPaused, ServerTime: at("06:59:00"), LocalTime: at("07:00:00.5")},
		{BoardCode: "TQBR", State: message.SessionEnded, ServerTime: at("15:50:00")},
	}
}

func TestBoardStateRoundTrip(t *testing.T) {
	s := NewBoardStateSerializer(testSec)
	for _, v := range versionsOf(s) {
		t.Run(v.String(), func(t *testing.T) {
			recs := testBoardStates()
			want := testBoardStates()
			if v < Version41 {
				for i := range want {
					want[i].LocalTime = time.Time{}
				}
			}
			requireRecords(t, want, roundTrip(t, s, v, recs[:2], recs[2:]))
		})
	}
}

func TestBoardStateTable(t *testing.T) {
	s := NewBoardStateSerializer(testSec)
	_, meta := encode(t, s, Version41, testBoardStates())
	require.Equal(t, []string{"TQBR", "SMAL"}, meta.Boards.Values())
	require.Equal(t, 4, meta.Count)
}

func TestBoardStateValidation(t *testing.T) {
	s := NewBoardStateSerializer(testSec)
	meta := s.CreateMetaInfo(testDay)
	for _, c := range []struct {
		b    message.BoardState
		want error
	}{
		{message.BoardState{State: message.SessionActive, ServerTime: at("10:00:00")}, ErrInvalidDomainState},
		{message.BoardState{BoardCode: "TQBR", State: 6, ServerTime: at("10:00:00")}, ErrUnsupportedValue},
		{message.BoardState{BoardCode: "TQBR", State: -1, ServerTime: at("10:00:00")}, ErrUnsupportedValue},
	} {
		_, err := s.Serialize(nil, []message.BoardState{c.b}, meta)
		require.True(t, errors.Is(err, c.want), "%v", err)
	}
}
