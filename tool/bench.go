// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/tidemark/mdpack"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/message"
	"golang.org/x/exp/rand"
)

// benchT implements the synthetic data and decoding benchmark tools.
type benchT struct {
	Gen   *cobra.Command
	Bench *cobra.Command

	t *T

	count      int
	batch      int
	seed       uint64
	iterations int
}

func newBench(t *T) *benchT {
	b := &benchT{t: t}
	b.Gen = &cobra.Command{
		Use:   "gen <tick|candle> <security> <day>",
		Short: "append synthetic records to a blob",
		Long: `
Append randomly generated trades or one-minute candles to a day blob. The
records are appended in batches of --batch records, each batch becoming
one part of the blob.
`,
		Args: cobra.ExactArgs(3),
		Run:  b.runGen,
	}
	b.Bench = &cobra.Command{
		Use:   "bench <kind> <security> <day>",
		Short: "benchmark decoding a blob",
		Long: `
Decode every record of a day blob --iterations times and report the
distribution of the time taken to decode one record.
`,
		Args: cobra.ExactArgs(3),
		Run:  b.runBench,
	}

	b.Gen.Flags().IntVar(&b.count, "count", 1000, "number of records to generate")
	b.Gen.Flags().IntVar(&b.batch, "batch", 100, "number of records appended at once")
	b.Gen.Flags().Uint64Var(&b.seed, "seed", 1, "random seed")
	b.Bench.Flags().IntVar(&b.iterations, "iterations", 10, "number of passes over the blob")
	return b
}

func (b *benchT) runGen(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a, err := parseBlobArgs(args)
	if err != nil {
		fail(stderr, err)
		return
	}
	if b.count <= 0 || b.batch <= 0 {
		fail(stderr, errors.Newf("--count and --batch must be positive"))
		return
	}
	opts, err := b.t.serializerOptions()
	if err != nil {
		fail(stderr, err)
		return
	}
	st, err := b.t.openStore()
	if err != nil {
		fail(stderr, err)
		return
	}
	defer st.Close()

	rng := rand.New(rand.NewSource(b.seed))
	ctx := context.Background()
	switch a.kind {
	case mdpack.KindTicks:
		s := binser.NewTickSerializer(a.sec, opts...)
		err = appendBatches(ctx, st, s, a.day, genTicks(rng, a.day, b.count), b.batch)
	case mdpack.KindCandles:
		s := binser.NewCandleSerializer(a.sec, opts...)
		err = appendBatches(ctx, st, s, a.day, genCandles(rng, a.day, b.count), b.batch)
	default:
		err = errors.Newf("cannot generate %s", a.kind)
	}
	if err != nil {
		fail(stderr, err)
		return
	}
	fmt.Fprintf(stdout, "appended %d records to %s\n", b.count, a.key())
}

func appendBatches[T any, M binser.Meta](
	ctx context.Context, st *mdpack.Store, s *binser.Serializer[T, M], day time.Time, recs []T, batch int,
) error {
	for len(recs) > 0 {
		n := min(batch, len(recs))
		if err := mdpack.Append(ctx, st, s, day, recs[:n]); err != nil {
			return err
		}
		recs = recs[n:]
	}
	return nil
}

// walk advances a price in cents by a small random number of steps, never
// letting it drop below one step.
func walk(rng *rand.Rand, cents int64) int64 {
	cents += int64(rng.Intn(7)) - 3
	return max(cents, 1)
}

func genTicks(rng *rand.Rand, day time.Time, n int) []message.Tick {
	ticks := make([]message.Tick, n)
	t := day.Add(7 * time.Hour)
	cents := int64(10000)
	for i := range ticks {
		t = t.Add(time.Duration(rng.Int63n(int64(2 * time.Second))))
		cents = walk(rng, cents)
		side := message.Buy
		if rng.Intn(2) == 0 {
			side = message.Sell
		}
		ticks[i] = message.Tick{
			TradeID:    int64(i + 1),
			Price:      decimal.New(cents, -2),
			Volume:     decimal.New(1+rng.Int63n(100), 0),
			Side:       side,
			ServerTime: t,
			LocalTime:  t.Add(time.Duration(rng.Int63n(int64(5 * time.Millisecond)))),
			SeqNum:     int64(i + 1),
		}
	}
	return ticks
}

func genCandles(rng *rand.Rand, day time.Time, n int) []message.Candle {
	candles := make([]message.Candle, n)
	open := day.Add(7 * time.Hour)
	cents := int64(10000)
	for i := range candles {
		c := &candles[i]
		c.OpenTime = open
		c.CloseTime = open.Add(time.Minute - time.Millisecond)
		c.OpenPrice = decimal.New(cents, -2)
		hi, lo := cents, cents
		for j := 0; j < 10; j++ {
			cents = walk(rng, cents)
			hi, lo = max(hi, cents), min(lo, cents)
		}
		c.HighPrice = decimal.New(hi, -2)
		c.LowPrice = decimal.New(lo, -2)
		c.ClosePrice = decimal.New(cents, -2)
		c.HighTime = open.Add(time.Duration(rng.Int63n(int64(time.Minute))))
		c.LowTime = open.Add(time.Duration(rng.Int63n(int64(time.Minute))))
		c.TotalVolume = decimal.New(10+rng.Int63n(1000), 0)
		c.State = message.CandleFinished
		c.SeqNum = int64(i + 1)
		open = open.Add(time.Minute)
	}
	return candles
}

func (b *benchT) runBench(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a, err := parseBlobArgs(args)
	if err != nil {
		fail(stderr, err)
		return
	}
	ops, err := opsOf(a.kind)
	if err != nil {
		fail(stderr, err)
		return
	}
	opts, err := b.t.serializerOptions()
	if err != nil {
		fail(stderr, err)
		return
	}
	st, err := b.t.openStore()
	if err != nil {
		fail(stderr, err)
		return
	}
	hdr, body, err := st.Blob(context.Background(), a.key())
	st.Close()
	if err != nil {
		fail(stderr, err)
		return
	}

	h := hdrhistogram.New(0, int64(time.Second), 3)
	observe := func(d time.Duration) {
		_ = h.RecordValue(d.Nanoseconds())
	}
	var records int
	start := time.Now()
	for i := 0; i < max(b.iterations, 1); i++ {
		if records, err = ops.scan(a.sec, opts, hdr, body, observe); err != nil {
			fail(stderr, err)
			return
		}
	}
	elapsed := time.Since(start)

	tw := newTable(stdout, "RECORDS", "PASSES", "REC/SEC", "MEAN", "P50", "P99", "MAX")
	tw.Append([]string{
		strconv.Itoa(records),
		strconv.Itoa(max(b.iterations, 1)),
		fmt.Sprintf("%.0f", float64(h.TotalCount())/elapsed.Seconds()),
		time.Duration(h.Mean()).String(),
		time.Duration(h.ValueAtQuantile(50)).String(),
		time.Duration(h.ValueAtQuantile(99)).String(),
		time.Duration(h.Max()).String(),
	})
	tw.Render()
}
