// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"github.com/cockroachdb/errors"
)

// A Gate is one entry of a layout: a field (or group of fields) present in
// every format version in [Since, Until). A zero Until means the field is
// present in every version from Since on.
//
// Write and Read must consume exactly the same bits for the same record.
// Reset, if set, is invoked for gates that are inactive at a version; header
// gates use it to zero the anchors they would otherwise have persisted.
type Gate[S any] struct {
	Name  string
	Since Version
	Until Version
	Write func(S) error
	Read  func(S) error
	Reset func()
}

// Active returns true if the gate's field is present at version v.
func (g Gate[S]) Active(v Version) bool {
	return v >= g.Since && (g.Until == 0 || v < g.Until)
}

// A Layout is an ordered list of gates. Both directions walk the same list so
// that a field can never be read in a different position or under a different
// version condition than it was written.
type Layout[S any] []Gate[S]

// Write invokes the Write function of every gate active at v.
func (l Layout[S]) Write(v Version, s S) error {
	for i := range l {
		if !l[i].Active(v) {
			continue
		}
		if err := l[i].Write(s); err != nil {
			return errors.Wrapf(err, "writing %s", errors.Safe(l[i].Name))
		}
	}
	return nil
}

// Read invokes the Read function of every gate active at v.
func (l Layout[S]) Read(v Version, s S) error {
	for i := range l {
		if !l[i].Active(v) {
			continue
		}
		if err := l[i].Read(s); err != nil {
			return errors.Wrapf(err, "reading %s", errors.Safe(l[i].Name))
		}
	}
	return nil
}

// ResetInactive invokes the Reset function of every gate inactive at v.
func (l Layout[S]) ResetInactive(v Version) {
	for i := range l {
		if l[i].Reset != nil && !l[i].Active(v) {
			l[i].Reset()
		}
	}
}

// Names returns the names of the gates active at v, in order.
func (l Layout[S]) Names(v Version) []string {
	var names []string
	for i := range l {
		if l[i].Active(v) {
			names = append(names, l[i].Name)
		}
	}
	return names
}

// Validate checks that every gate refers to known versions no newer than
// maxVersion, that its range is non-empty and that it has both directions.
func (l Layout[S]) Validate(maxVersion Version) error {
	for i, g := range l {
		switch {
		case g.Name == "":
			return errors.AssertionFailedf("gate %d has no name", errors.Safe(i))
		case g.Write == nil || g.Read == nil:
			return errors.AssertionFailedf("gate %q lacks a direction", errors.Safe(g.Name))
		case !g.Since.Known():
			return errors.AssertionFailedf("gate %q: unknown version %s", errors.Safe(g.Name), g.Since)
		case g.Since > maxVersion:
			return errors.AssertionFailedf("gate %q: version %s is newer than %s", errors.Safe(g.Name), g.Since, maxVersion)
		case g.Until != 0 && (!g.Until.Known() || g.Until <= g.Since):
			return errors.AssertionFailedf("gate %q: invalid range [%s, %s)", errors.Safe(g.Name), g.Since, g.Until)
		}
	}
	return nil
}

// ValidateAppendOnly checks that gates never precede a gate introduced by an
// older version, which is what keeps fixed header offsets stable.
func (l Layout[S]) ValidateAppendOnly() error {
	for i := 1; i < len(l); i++ {
		if l[i].Since < l[i-1].Since {
			return errors.AssertionFailedf("gate %q (%s) follows %q (%s)",
				errors.Safe(l[i].Name), l[i].Since, errors.Safe(l[i-1].Name), l[i-1].Since)
		}
	}
	return nil
}

// errHolder is implemented by the codec states handed to gate functions.
// Their helpers record the first failure and turn into no-ops afterwards.
type errHolder interface {
	Err() error
}

// field returns a gate whose read and write directions share fn. The state
// passed to fn knows its direction.
func field[S errHolder](name string, since Version, fn func(S)) Gate[S] {
	return fieldUntil(name, since, 0, fn)
}

// fieldUntil is like field for a field retired at until.
func fieldUntil[S errHolder](name string, since, until Version, fn func(S)) Gate[S] {
	run := func(s S) error {
		fn(s)
		return s.Err()
	}
	return Gate[S]{Name: name, Since: since, Until: until, Write: run, Read: run}
}
