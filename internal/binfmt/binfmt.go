// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package binfmt exposes utilities for formatting binary data with descriptive
// comments.
package binfmt

import (
	"bytes"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/crlib/crstrings"
)

// New constructs a new binary formatter.
func New(data []byte) *Formatter {
	offsetWidth := 1
	if len(data) > 1 {
		offsetWidth = max(int(math.Log10(float64(len(data)-1)))+1, 1)
	}
	w := strconv.Itoa(offsetWidth)
	return &Formatter{
		data:            data,
		lineWidth:       40,
		offsetFormatStr: "%0" + w + "d-%0" + w + "d: ",
	}
}

// Formatter is a utility for formatting binary data with descriptive comments.
type Formatter struct {
	buf   bytes.Buffer
	lines [][2]string // (binary data, comment) tuples
	data  []byte
	off   int

	// config
	lineWidth       int
	linePrefix      string
	offsetFormatStr string
}

// SetLinePrefix sets a prefix for each line of formatted output.
func (f *Formatter) SetLinePrefix(prefix string) {
	f.linePrefix = prefix
}

// LineWidth sets the Formatter's maximum line width for binary data.
func (f *Formatter) LineWidth(width int) *Formatter {
	f.lineWidth = width
	return f
}

// More returns true if there is more data in the byte slice that can be formatted.
func (f *Formatter) More() bool {
	return f.off < len(f.data)
}

// Remaining returns the number of unformatted bytes remaining in the byte slice.
func (f *Formatter) Remaining() int {
	return len(f.data) - f.off
}

// Offset returns the current offset within the original data slice.
func (f *Formatter) Offset() int {
	return f.off
}

// HexBytesln formats the next n bytes in hexadecimal format, appending the
// formatted comment string to each line and ending on a newline.
func (f *Formatter) HexBytesln(n int, format string, args ...interface{}) int {
	commentLine := strings.TrimSpace(fmt.Sprintf(format, args...))
	total := n
	for first := true; first || n > 0; first = false {
		bytesInLine := min(f.lineWidth/2, n)
		f.printOffsets(bytesInLine)
		f.printf("x %0"+strconv.Itoa(bytesInLine*2)+"x", f.data[f.off:f.off+bytesInLine])
		f.newline(f.buf.String(), commentLine)
		f.off += bytesInLine
		n -= bytesInLine
		commentLine = "(continued...)"
	}
	return total
}

// HexTextln formats the next n bytes in hexadecimal format, appending a comment
// to each line showing the ASCII equivalent characters for each byte for bytes
// that are human-readable.
func (f *Formatter) HexTextln(n int) int {
	total := n
	for first := true; first || n > 0; first = false {
		bytesInLine := min(f.lineWidth/2, n)
		f.printOffsets(bytesInLine)
		f.printf("x %0"+strconv.Itoa(bytesInLine*2)+"x", f.data[f.off:f.off+bytesInLine])
		f.newline(f.buf.String(), asciiChars(f.data[f.off:f.off+bytesInLine]))
		f.off += bytesInLine
		n -= bytesInLine
	}
	return total
}

// Comment adds a line without binary data.
func (f *Formatter) Comment(format string, args ...interface{}) {
	f.newline("", fmt.Sprintf(format, args...))
}

// String returns the current formatted output.
func (f *Formatter) String() string {
	f.buf.Reset()
	// Comments are aligned to the right of the widest binary data.
	binaryLineWidth := 0
	for _, lineData := range f.lines {
		binaryLineWidth = max(binaryLineWidth, len(lineData[0]))
	}
	for _, lineData := range f.lines {
		fmt.Fprint(&f.buf, f.linePrefix)
		fmt.Fprint(&f.buf, lineData[0])
		if len(lineData[1]) > 0 {
			if len(lineData[0]) == 0 {
				fmt.Fprint(&f.buf, "# ")
			} else {
				fmt.Fprint(&f.buf, strings.Repeat(" ", binaryLineWidth-len(lineData[0])))
				fmt.Fprint(&f.buf, " # ")
			}
			fmt.Fprint(&f.buf, lineData[1])
		}
		fmt.Fprintln(&f.buf)
	}
	return f.buf.String()
}

// Lines returns the formatted output line by line and resets it. The
// position within the data is kept.
func (f *Formatter) Lines() iter.Seq[string] {
	s := f.String()
	f.buf.Reset()
	f.lines = f.lines[:0]
	return slices.Values(crstrings.Lines(s))
}

func (f *Formatter) newline(binaryData, comment string) {
	f.lines = append(f.lines, [2]string{binaryData, comment})
	f.buf.Reset()
}

func (f *Formatter) printOffsets(n int) {
	f.printf(f.offsetFormatStr, f.off, f.off+n)
}

func (f *Formatter) printf(format string, args ...interface{}) {
	fmt.Fprintf(&f.buf, format, args...)
}

func asciiChars(b []byte) string {
	s := make([]byte, len(b))
	for i := range b {
		if b[i] >= 32 && b[i] <= 126 {
			s[i] = b[i]
		} else {
			s[i] = '.'
		}
	}
	return string(s)
}
