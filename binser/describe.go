// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import "github.com/cockroachdb/errors"

// FieldSpan is the byte range a header field occupies.
type FieldSpan struct {
	Name       string
	Start, End int
}

// HeaderSpans returns the byte range of every field of an encoded header, in
// order, starting with the version. On failure the spans decoded so far are
// returned with the error.
func (s *Serializer[T, M]) HeaderSpans(data []byte) ([]FieldSpan, error) {
	h := newHeaderReader(data)
	var major, minor uint8
	h.u8(&major)
	h.u8(&minor)
	if h.err != nil {
		return nil, h.err
	}
	v := MakeVersion(major, minor)
	if err := s.c.checkVersion(v); err != nil {
		return nil, err
	}
	spans := []FieldSpan{{Name: "version", End: h.off}}
	for _, g := range s.c.newMeta().headerLayout() {
		if !g.Active(v) {
			continue
		}
		start := h.off
		if err := g.Read(h); err != nil {
			return spans, errors.Wrapf(err, "reading %s", errors.Safe(g.Name))
		}
		spans = append(spans, FieldSpan{Name: g.Name, Start: start, End: h.off})
	}
	return spans, nil
}
