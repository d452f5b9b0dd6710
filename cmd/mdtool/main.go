// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidemark/mdpack/tool"
)

var rootCmd = &cobra.Command{
	Use:   "mdtool [command] (flags)",
	Short: "market data day blob introspection tool",
	Long: `
Inspect, verify and benchmark a store of bit-packed market data day blobs.
Blobs are named by their data kind, security (CODE@BOARD) and trading day
(YYYY-MM-DD).
`,
	SilenceUsage: true,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	t := tool.New()
	rootCmd.AddCommand(t.Commands...)
	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
