// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/kr/pretty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/compression"
	"github.com/tidemark/mdpack/message"
)

var (
	sber = message.SecurityID{SecurityCode: "SBER", BoardCode: "TQBR"}
	gazp = message.SecurityID{SecurityCode: "GAZP", BoardCode: "TQBR"}
	day  = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
)

func openTestStore(t *testing.T, opts *Options) *Store {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.FS == nil {
		opts.FS = vfs.NewMem()
	}
	opts.Logger = base.NoopLogger{}
	s, err := Open("", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ticks(start time.Time, n int, firstID int64) []message.Tick {
	out := make([]message.Tick, n)
	for i := range out {
		out[i] = message.Tick{
			TradeID:    firstID + int64(i),
			Price:      decimal.New(int64(10000+i%7), -2),
			Volume:     decimal.New(int64(1+i%3), 0),
			Side:       message.Side(1 + i%2),
			ServerTime: start.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func TestStoreAppendLoad(t *testing.T) {
	for _, a := range []compression.Algorithm{compression.NoCompression, compression.Snappy, compression.Zstd, compression.MinLZ} {
		t.Run(a.String(), func(t *testing.T) {
			ctx := context.Background()
			st := openTestStore(t, &Options{Compression: a})
			s := binser.NewTickSerializer(sber)

			first := ticks(day.Add(10*time.Hour), 100, 1)
			second := ticks(day.Add(11*time.Hour), 50, 101)
			require.NoError(t, Append(ctx, st, s, day.Add(10*time.Hour), first))
			require.NoError(t, Append(ctx, st, s, day, second))

			seq, err := Load(ctx, st, s, day.Add(23*time.Hour))
			require.NoError(t, err)
			require.Equal(t, 150, seq.Len())
			got, err := seq.Collect()
			require.NoError(t, err)
			for i, want := range append(first, second...) {
				require.Equal(t, want.String(), got[i].String())
			}
		})
	}
}

func TestStoreAppendAtomic(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, nil)
	s := binser.NewTickSerializer(sber)
	require.NoError(t, Append(ctx, st, s, day, ticks(day, 3, 1)))
	hdr, body, err := st.Blob(ctx, BlobKey{Kind: KindTicks, Security: sber, Day: day})
	require.NoError(t, err)

	bad := ticks(day.Add(time.Hour), 3, 4)
	bad[2].Volume = decimal.New(-1, 0)
	err = Append(ctx, st, s, day, bad)
	require.True(t, errors.Is(err, binser.ErrInvalidDomainState), "%v", err)

	hdr2, body2, err := st.Blob(ctx, BlobKey{Kind: KindTicks, Security: sber, Day: day})
	require.NoError(t, err)
	require.Equal(t, hdr, hdr2)
	require.Equal(t, body, body2)
	require.Equal(t, 1.0, testutil.ToFloat64(st.Metrics().Errors.WithLabelValues("tick", "invalid_domain_state")))
	require.Equal(t, 3.0, testutil.ToFloat64(st.Metrics().RecordsAppended.WithLabelValues("tick")))
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, nil)
	_, err := Load(ctx, st, binser.NewTickSerializer(sber), day)
	require.True(t, errors.Is(err, ErrNotFound), "%v", err)
	require.NoError(t, st.Delete(ctx, BlobKey{Kind: KindTicks, Security: sber, Day: day}))
}

func TestStoreListDays(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, nil)
	for i := 2; i >= 0; i-- {
		d := day.AddDate(0, 0, i)
		require.NoError(t, Append(ctx, st, binser.NewTickSerializer(sber), d, ticks(d, 2, 1)))
	}
	require.NoError(t, Append(ctx, st, binser.NewTickSerializer(gazp), day, ticks(day, 2, 1)))
	require.NoError(t, Append(ctx, st, binser.NewBoardStateSerializer(sber), day, []message.BoardState{
		{BoardCode: "TQBR", State: message.SessionActive, ServerTime: day.Add(7 * time.Hour)},
	}))

	days, err := st.Days(ctx, KindTicks, sber)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)}, days)

	all, err := st.List(ctx, 0, message.SecurityID{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Keys order by kind, then security, then day.
	require.Equal(t, "tick/GAZP@TQBR/2024-03-15", all[0].String())
	require.Equal(t, "boardstate/SBER@TQBR/2024-03-15", all[4].String())
	for _, info := range all {
		require.Positive(t, info.Size)
	}

	sberAll, err := st.List(ctx, 0, sber)
	require.NoError(t, err)
	require.Len(t, sberAll, 4)

	require.NoError(t, st.Delete(ctx, BlobKey{Kind: KindTicks, Security: sber, Day: day.AddDate(0, 0, 1)}))
	days, err = st.Days(ctx, KindTicks, sber)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day, day.AddDate(0, 0, 2)}, days)
}

func TestStoreVerifyAll(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, &Options{Compression: compression.Snappy, VerifyConcurrency: 2})
	for i := 0; i < 4; i++ {
		d := day.AddDate(0, 0, i)
		require.NoError(t, Append(ctx, st, binser.NewTickSerializer(sber), d, ticks(d, 10+i, 1)))
	}
	// Corrupt the last day behind the store's back.
	k := BlobKey{Kind: KindTicks, Security: sber, Day: day.AddDate(0, 0, 3)}
	hdr, body, err := st.Blob(ctx, k)
	require.NoError(t, err)
	body[len(body)/2] ^= 0xff
	body = body[:len(body)/2+1]
	_, err = st.put(ctx, k, hdr, body)
	require.NoError(t, err)

	results, err := st.VerifyAll(ctx, KindTicks, message.SecurityID{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results[:3] {
		require.NoError(t, r.Err)
		require.Equal(t, 10+i, r.Records)
	}
	require.Error(t, results[3].Err)
}

func TestEnvelopeCorruption(t *testing.T) {
	v := sealBlob(compression.Snappy, []byte("header"), []byte("body"))
	hdr, body, err := openBlob(v)
	require.NoError(t, err)
	require.Equal(t, "header", string(hdr))
	require.Equal(t, "body", string(body))

	flipped := append([]byte(nil), v...)
	flipped[len(flipped)-1] ^= 1
	_, _, err = openBlob(flipped)
	require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)

	_, _, err = openBlob(v[:3])
	require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)
}

func TestKeyEncoding(t *testing.T) {
	k := BlobKey{Kind: KindQuotes, Security: sber, Day: time.Date(2024, 3, 15, 23, 0, 0, 0, time.FixedZone("", -5*3600))}
	got, err := decodeKey(k.encode())
	require.NoError(t, err)
	require.Equal(t, KindQuotes, got.Kind)
	require.Equal(t, sber, got.Security)
	require.Equal(t, day, got.Day)

	for _, k := range []BlobKey{
		{Kind: KindTicks, Security: sber, Day: day},
		{Kind: KindBoardStates, Security: message.SecurityID{SecurityCode: "Si-6.24", BoardCode: "SPBFUT"}, Day: day.AddDate(10, 0, 0)},
		{Kind: KindNews, Security: gazp, Day: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
	} {
		got, err := decodeKey(k.encode())
		require.NoError(t, err)
		if diff := pretty.Diff(k, got); diff != nil {
			t.Fatalf("%s: %s", k, strings.Join(diff, "\n"))
		}
	}

	for _, bad := range [][]byte{nil, {1}, {0, 'a', 0, 0, 0, 0, 1}, {1, 'a', '@', 'b', 0, 0}, {42, 'a', '@', 'b', 0, 0, 0, 0, 1}} {
		_, err := decodeKey(bad)
		require.True(t, errors.Is(err, base.ErrCorruption), "%x: %v", bad, err)
	}
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
		require.NotNil(t, verifiers[k])
	}
	_, err := ParseKind("bogus")
	require.Error(t, err)
}

func TestStoreRateLimit(t *testing.T) {
	now := day
	st := openTestStore(t, &Options{WriteBytesPerSecond: 64, now: func() time.Time { return now }})
	ctx, cancel := context.WithCancel(context.Background())
	// The first write drains the burst; the clock never advances, so the
	// second one waits until canceled.
	require.NoError(t, st.pace(ctx, 64))
	cancel()
	require.ErrorIs(t, st.pace(ctx, 64), context.Canceled)
}

func TestStoreMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	openTestStore(t, &Options{Registerer: reg})
	_, err := Open("", &Options{FS: vfs.NewMem(), Registerer: reg, Logger: base.NoopLogger{}})
	require.Error(t, err)
}

func TestStoreClosed(t *testing.T) {
	st := openTestStore(t, nil)
	require.NoError(t, st.Close())
	require.ErrorIs(t, st.Close(), ErrClosed)
	err := Append(context.Background(), st, binser.NewTickSerializer(sber), day, ticks(day, 1, 1))
	require.ErrorIs(t, err, ErrClosed)
}
