// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/tidemark/mdpack"
	"github.com/tidemark/mdpack/message"
)

var osExit = os.Exit

// blobArgs are the <kind> <security> <day> arguments naming a day blob.
type blobArgs struct {
	kind mdpack.Kind
	sec  message.SecurityID
	day  time.Time
}

func (a blobArgs) key() mdpack.BlobKey {
	return mdpack.BlobKey{Kind: a.kind, Security: a.sec, Day: a.day}
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid day %q", s)
	}
	return d, nil
}

func parseBlobArgs(args []string) (blobArgs, error) {
	if len(args) != 3 {
		return blobArgs{}, errors.Newf("expected <kind> <security> <day>, got %d arguments", len(args))
	}
	var a blobArgs
	var err error
	if a.kind, err = mdpack.ParseKind(args[0]); err != nil {
		return blobArgs{}, err
	}
	if a.sec, err = message.ParseSecurityID(args[1]); err != nil {
		return blobArgs{}, err
	}
	if a.day, err = parseDay(args[2]); err != nil {
		return blobArgs{}, err
	}
	return a, nil
}

// parseFilter parses the optional --kind and --security filters.
func parseFilter(kind, sec string) (mdpack.Kind, message.SecurityID, error) {
	var k mdpack.Kind
	var s message.SecurityID
	var err error
	if kind != "" {
		if k, err = mdpack.ParseKind(kind); err != nil {
			return 0, s, err
		}
	}
	if sec != "" {
		if s, err = message.ParseSecurityID(sec); err != nil {
			return 0, s, err
		}
	}
	return k, s, nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(false)
	tw.SetColumnSeparator("")
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return tw
}

// fail prints err and exits with a non-zero status.
func fail(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", err)
	osExit(1)
}
