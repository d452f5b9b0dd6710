// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/guptarohit/asciigraph"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"github.com/tidemark/mdpack"
	"github.com/tidemark/mdpack/binser"
	"github.com/tidemark/mdpack/internal/binfmt"
)

// blobT implements day blob tools, including both configuration state and
// the commands themselves.
type blobT struct {
	List   *cobra.Command
	Header *cobra.Command
	Dump   *cobra.Command
	Verify *cobra.Command
	Diff   *cobra.Command
	Plot   *cobra.Command

	t *T

	kind     string
	security string
	body     bool
	limit    int
	height   int
	width    int
}

func newBlob(t *T) *blobT {
	b := &blobT{t: t}
	b.List = &cobra.Command{
		Use:   "list",
		Short: "list the blobs of the store",
		Args:  cobra.NoArgs,
		Run:   b.runList,
	}
	b.Header = &cobra.Command{
		Use:   "header <kind> <security> <day>",
		Short: "print the header of a blob",
		Long: `
Print the header fields of a day blob, annotating the bytes each field
occupies. With --body the body is hex dumped as well.
`,
		Args: cobra.ExactArgs(3),
		Run:  b.runHeader,
	}
	b.Dump = &cobra.Command{
		Use:   "dump <kind> <security> <day>",
		Short: "print the records of a blob",
		Args:  cobra.ExactArgs(3),
		Run:   b.runDump,
	}
	b.Verify = &cobra.Command{
		Use:   "verify",
		Short: "decode every blob of the store",
		Long: `
Decode every record of every blob matching --kind and --security, and
report the blobs that fail to decode. Exits with status 1 if any does.
`,
		Args: cobra.NoArgs,
		Run:  b.runVerify,
	}
	b.Diff = &cobra.Command{
		Use:   "diff <kind> <security> <day> <other-security> <other-day>",
		Short: "compare the records of two blobs",
		Args:  cobra.ExactArgs(5),
		Run:   b.runDiff,
	}
	b.Plot = &cobra.Command{
		Use:   "plot <tick|candle> <security> <day>",
		Short: "plot the prices of a blob",
		Long: `
Plot trade prices of a tick blob, or close prices of a candle blob.
`,
		Args: cobra.ExactArgs(3),
		Run:  b.runPlot,
	}

	for _, cmd := range []*cobra.Command{b.List, b.Verify} {
		cmd.Flags().StringVar(&b.kind, "kind", "", "only blobs of this kind")
		cmd.Flags().StringVar(&b.security, "security", "", "only blobs of this security (CODE@BOARD)")
	}
	b.Header.Flags().BoolVar(&b.body, "body", false, "hex dump the body")
	b.Dump.Flags().IntVar(&b.limit, "limit", 0, "maximum number of records to print")
	b.Plot.Flags().IntVar(&b.height, "height", 15, "height of the plot")
	b.Plot.Flags().IntVar(&b.width, "width", 0, "width of the plot; 0 plots every record")
	return b
}

func (b *blobT) runList(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	kind, sec, err := parseFilter(b.kind, b.security)
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

	infos, err := st.List(context.Background(), kind, sec)
	if err != nil {
		fail(stderr, err)
		return
	}
	tw := newTable(stdout, "KIND", "SECURITY", "DAY", "SIZE")
	for _, info := range infos {
		tw.Append([]string{
			info.Kind.String(),
			info.Security.String(),
			info.Day.Format("2006-01-02"),
			strconv.Itoa(info.Size),
		})
	}
	tw.Render()
}

// blob reads the blob named by args.
func (b *blobT) blob(args []string) (blobArgs, []byte, []byte, error) {
	a, err := parseBlobArgs(args)
	if err != nil {
		return a, nil, nil, err
	}
	st, err := b.t.openStore()
	if err != nil {
		return a, nil, nil, err
	}
	defer st.Close()
	hdr, body, err := st.Blob(context.Background(), a.key())
	return a, hdr, body, err
}

func (b *blobT) runHeader(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a, hdr, body, err := b.blob(args)
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

	fmt.Fprintf(stdout, "%s\n", a.key())
	spans, info, err := ops.spans(a.sec, opts, hdr)
	f := binfmt.New(hdr).LineWidth(32)
	for _, sp := range spans {
		f.HexBytesln(sp.End-sp.Start, "%s", sp.Name)
	}
	if err != nil {
		if f.More() {
			f.HexBytesln(f.Remaining(), "undecodable")
		}
		fmt.Fprint(stdout, f.String())
		fail(stderr, err)
		return
	}
	if f.More() {
		f.HexBytesln(f.Remaining(), "trailing")
	}
	fmt.Fprint(stdout, f.String())
	fmt.Fprintf(stdout, "version %s, %d records, price step %s, volume step %s, %d body bytes\n",
		info.Version, info.Count, info.PriceStep, info.VolumeStep, len(body))
	if b.body {
		fmt.Fprint(stdout, binfmt.HexDump(body, 16, true))
	}
}

func (b *blobT) runDump(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	lines, err := b.records(args, b.limit)
	for _, l := range lines {
		fmt.Fprintln(stdout, l)
	}
	if err != nil {
		fail(stderr, err)
	}
}

// records decodes the records of the blob named by args.
func (b *blobT) records(args []string, limit int) ([]string, error) {
	a, hdr, body, err := b.blob(args)
	if err != nil {
		return nil, err
	}
	ops, err := opsOf(a.kind)
	if err != nil {
		return nil, err
	}
	opts, err := b.t.serializerOptions()
	if err != nil {
		return nil, err
	}
	lines, err := ops.records(a.sec, opts, hdr, body, limit)
	return lines, errors.Wrapf(err, "%s", a.key())
}

func (b *blobT) runVerify(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	kind, sec, err := parseFilter(b.kind, b.security)
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

	results, err := st.VerifyAll(context.Background(), kind, sec)
	if err != nil {
		fail(stderr, err)
		return
	}
	failed := 0
	tw := newTable(stdout, "KIND", "SECURITY", "DAY", "RECORDS", "STATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		tw.Append([]string{
			r.Kind.String(),
			r.Security.String(),
			r.Day.Format("2006-01-02"),
			strconv.Itoa(r.Records),
			status,
		})
	}
	tw.Render()
	if failed > 0 {
		fail(stderr, errors.Newf("%d of %d blobs failed verification", failed, len(results)))
	}
}

func (b *blobT) runDiff(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	other := []string{args[0], args[3], args[4]}
	a, err := b.records(args[:3], 0)
	if err != nil {
		fail(stderr, err)
		return
	}
	o, err := b.records(other, 0)
	if err != nil {
		fail(stderr, err)
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(joinLines(a)),
		B:        difflib.SplitLines(joinLines(o)),
		FromFile: strings.Join(args[:3], " "),
		ToFile:   strings.Join(other, " "),
		Context:  1,
	})
	if err != nil {
		fail(stderr, err)
		return
	}
	if diff == "" {
		fmt.Fprintln(stdout, "no differences")
		return
	}
	fmt.Fprint(stdout, diff)
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (b *blobT) runPlot(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a, err := parseBlobArgs(args)
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
	defer st.Close()

	ctx := context.Background()
	var prices []float64
	switch a.kind {
	case mdpack.KindTicks:
		seq, err := mdpack.Load(ctx, st, binser.NewTickSerializer(a.sec, opts...), a.day)
		if err != nil {
			fail(stderr, err)
			return
		}
		for t, err := range seq.All() {
			if err != nil {
				fail(stderr, err)
				return
			}
			prices = append(prices, t.Price.InexactFloat64())
		}
	case mdpack.KindCandles:
		seq, err := mdpack.Load(ctx, st, binser.NewCandleSerializer(a.sec, opts...), a.day)
		if err != nil {
			fail(stderr, err)
			return
		}
		for c, err := range seq.All() {
			if err != nil {
				fail(stderr, err)
				return
			}
			prices = append(prices, c.ClosePrice.InexactFloat64())
		}
	default:
		fail(stderr, errors.Newf("cannot plot %s", a.kind))
		return
	}
	if len(prices) == 0 {
		fmt.Fprintln(stdout, "no records")
		return
	}
	plotOpts := []asciigraph.Option{
		asciigraph.Height(b.height),
		asciigraph.Caption(fmt.Sprintf("%s (%d records)", a.key(), len(prices))),
	}
	if b.width > 0 {
		plotOpts = append(plotOpts, asciigraph.Width(b.width))
	}
	fmt.Fprintln(stdout, asciigraph.Plot(prices, plotOpts...))
}
