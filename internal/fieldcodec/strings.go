// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
)

// StringTable is an append-only list of strings. The position of a string is
// its wire value and never changes once assigned.
type StringTable struct {
	values []string
	index  *swiss.Map[string, int32]
}

// NewStringTable returns a table holding values in order.
func NewStringTable(values ...string) *StringTable {
	t := &StringTable{index: swiss.New[string, int32](len(values))}
	for _, v := range values {
		t.Intern(v)
	}
	return t
}

// Len returns the number of strings in the table.
func (t *StringTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.values)
}

// Values returns the strings in index order. The slice must not be modified.
func (t *StringTable) Values() []string {
	if t == nil {
		return nil
	}
	return t.values
}

// Intern returns the index of s, appending it if it is not yet present.
func (t *StringTable) Intern(s string) int32 {
	if t.index == nil {
		t.index = swiss.New[string, int32](8)
	}
	if i, ok := t.index.Get(s); ok {
		return i
	}
	i := int32(len(t.values))
	t.values = append(t.values, s)
	t.index.Put(s, i)
	return i
}

// Lookup returns the string at index i.
func (t *StringTable) Lookup(i int32) (string, error) {
	if i < 0 || int(i) >= t.Len() {
		return "", base.CorruptionErrorf("string index %d out of range [0,%d)", errors.Safe(i), errors.Safe(t.Len()))
	}
	return t.values[i], nil
}

// Clone returns an independent copy of t.
func (t *StringTable) Clone() *StringTable {
	if t == nil {
		return NewStringTable()
	}
	return NewStringTable(t.values...)
}

// WriteInterned writes a presence bit and, for a non-empty s, its index in t,
// interning it first if needed.
func WriteInterned(w *bitstream.Writer, s string, t *StringTable) {
	w.WriteBit(s != "")
	if s != "" {
		w.WriteInt32(t.Intern(s))
	}
}

// ReadInterned reads a string written by WriteInterned.
func ReadInterned(r *bitstream.Reader, t *StringTable) (string, error) {
	present, err := r.ReadBit()
	if err != nil || !present {
		return "", err
	}
	i, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	return t.Lookup(i)
}
