// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout, stderr string
	code           int
}

// run executes one mdtool command against the store in dir.
func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var r result
	defer func(prev func(int)) { osExit = prev }(osExit)
	osExit = func(code int) { r.code = code }

	var stdout, stderr bytes.Buffer
	root := &cobra.Command{Use: "mdtool", SilenceUsage: true}
	root.AddCommand(New().Commands...)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--store", dir))
	require.NoError(t, root.Execute())
	r.stdout, r.stderr = stdout.String(), stderr.String()
	return r
}

func requireOK(t *testing.T, r result) {
	t.Helper()
	require.Zero(t, r.code, "stderr: %s", r.stderr)
	require.Empty(t, r.stderr)
}

func TestGenListDump(t *testing.T) {
	dir := t.TempDir()
	r := run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "50", "--batch", "20")
	requireOK(t, r)
	require.Equal(t, "appended 50 records to tick/SBER@TQBR/2024-03-15\n", r.stdout)

	r = run(t, dir, "gen", "candle", "GAZP@TQBR", "2024-03-15", "--count", "30", "--compression", "zstd")
	requireOK(t, r)

	r = run(t, dir, "list")
	requireOK(t, r)
	require.Contains(t, r.stdout, "KIND")
	require.Contains(t, r.stdout, "SBER@TQBR")
	require.Contains(t, r.stdout, "GAZP@TQBR")

	r = run(t, dir, "list", "--kind", "candle")
	requireOK(t, r)
	require.NotContains(t, r.stdout, "SBER@TQBR")
	require.Contains(t, r.stdout, "GAZP@TQBR")

	r = run(t, dir, "dump", "tick", "SBER@TQBR", "2024-03-15", "--limit", "3")
	requireOK(t, r)
	lines := strings.Split(strings.TrimSuffix(r.stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	for i, l := range lines {
		require.True(t, strings.HasPrefix(l, "tick"), "%s", l)
		require.Contains(t, l, fmt.Sprintf("seq=%d", i+1))
	}

	r = run(t, dir, "dump", "tick", "SBER@TQBR", "2024-03-15")
	requireOK(t, r)
	require.Equal(t, 50, strings.Count(r.stdout, "\n"))
}

func TestGenDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "20", "--seed", "7"))
	}
	ra := run(t, a, "dump", "tick", "SBER@TQBR", "2024-03-15")
	rb := run(t, b, "dump", "tick", "SBER@TQBR", "2024-03-15")
	requireOK(t, ra)
	require.Equal(t, ra.stdout, rb.stdout)
}

func TestHeader(t *testing.T) {
	dir := t.TempDir()
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "10"))

	r := run(t, dir, "header", "tick", "SBER@TQBR", "2024-03-15", "--body")
	requireOK(t, r)
	require.True(t, strings.HasPrefix(r.stdout, "tick/SBER@TQBR/2024-03-15\n"), "%s", r.stdout)
	require.Contains(t, r.stdout, "# version")
	require.Contains(t, r.stdout, "# count")
	require.Contains(t, r.stdout, "version 5.4, 10 records")
	require.NotContains(t, r.stdout, "trailing")
	// The body dump starts at offset zero.
	require.Contains(t, r.stdout, "\n00: ")
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "40"))
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-18", "--count", "40", "--compression", "minlz"))
	requireOK(t, run(t, dir, "gen", "candle", "SBER@TQBR", "2024-03-15", "--count", "15"))

	r := run(t, dir, "verify")
	requireOK(t, r)
	require.Equal(t, 3, strings.Count(r.stdout, " ok"))
	require.Contains(t, r.stdout, "2024-03-18")

	r = run(t, dir, "verify", "--kind", "candle", "--security", "SBER@TQBR")
	requireOK(t, r)
	require.Equal(t, 1, strings.Count(r.stdout, " ok"))

	r = run(t, dir, "verify", "--kind", "bogus")
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, `unknown data kind "bogus"`)

	r = run(t, dir, "verify", "--security", "SBER")
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "invalid security id")
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "10", "--seed", "1"))
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-18", "--count", "10", "--seed", "2"))

	r := run(t, dir, "diff", "tick", "SBER@TQBR", "2024-03-15", "SBER@TQBR", "2024-03-15")
	requireOK(t, r)
	require.Equal(t, "no differences\n", r.stdout)

	r = run(t, dir, "diff", "tick", "SBER@TQBR", "2024-03-15", "SBER@TQBR", "2024-03-18")
	requireOK(t, r)
	require.Contains(t, r.stdout, "--- tick SBER@TQBR 2024-03-15")
	require.Contains(t, r.stdout, "+++ tick SBER@TQBR 2024-03-18")
	require.Contains(t, r.stdout, "@@")
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	requireOK(t, run(t, dir, "gen", "candle", "SBER@TQBR", "2024-03-15", "--count", "30"))
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "30"))

	r := run(t, dir, "plot", "candle", "SBER@TQBR", "2024-03-15", "--height", "5")
	requireOK(t, r)
	require.Contains(t, r.stdout, "candle/SBER@TQBR/2024-03-15 (30 records)")

	r = run(t, dir, "plot", "tick", "SBER@TQBR", "2024-03-15", "--width", "20")
	requireOK(t, r)
	require.Contains(t, r.stdout, "(30 records)")

	r = run(t, dir, "plot", "news", "SBER@TQBR", "2024-03-15")
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "cannot plot news")
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "25"))

	r := run(t, dir, "bench", "tick", "SBER@TQBR", "2024-03-15", "--iterations", "3")
	requireOK(t, r)
	require.Contains(t, r.stdout, "RECORDS")
	require.Contains(t, r.stdout, "25")
}

func TestBoards(t *testing.T) {
	dir := t.TempDir()
	boards := filepath.Join(t.TempDir(), "boards.yaml")
	require.NoError(t, os.WriteFile(boards, []byte(`boards:
  - code: TQBR
    exchange: MOEX
    timezone: UTC
`), 0o644))

	requireOK(t, run(t, dir, "gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "5", "--boards", boards))
	requireOK(t, run(t, dir, "dump", "tick", "SBER@TQBR", "2024-03-15", "--boards", boards))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("boards:\n  - exchange: MOEX\n"), 0o644))
	r := run(t, dir, "dump", "tick", "SBER@TQBR", "2024-03-15", "--boards", bad)
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "has no code")
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []struct {
		args []string
		want string
	}{
		{[]string{"dump", "tick", "SBER@TQBR", "2024-03-15"}, "blob does not exist"},
		{[]string{"header", "tick", "SBER@TQBR", "15.03.2024"}, "invalid day"},
		{[]string{"gen", "news", "SBER@TQBR", "2024-03-15"}, "cannot generate news"},
		{[]string{"gen", "tick", "SBER@TQBR", "2024-03-15", "--count", "0"}, "must be positive"},
		{[]string{"list", "--compression", "lz4"}, "lz4"},
	} {
		t.Run(c.args[0], func(t *testing.T) {
			r := run(t, dir, c.args...)
			require.Equal(t, 1, r.code)
			require.Contains(t, r.stderr, c.want)
		})
	}
}
