// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

var (
	// ErrPrecisionLoss is raised when a decimal cannot be reproduced exactly
	// from its encoded form.
	ErrPrecisionLoss = errors.New("mdpack: precision loss")
	// ErrRangeOverflow is raised when a delta does not fit the width chosen
	// for the active format version.
	ErrRangeOverflow = errors.New("mdpack: range overflow")
	// ErrUnsupportedVersion is raised when a blob was written by a newer (or
	// older) format than the codec understands.
	ErrUnsupportedVersion = errors.New("mdpack: unsupported version")
	// ErrInvalidPrice is raised for a price that is not a multiple of the
	// price step when non-adjusted prices are not allowed.
	ErrInvalidPrice = errors.New("mdpack: invalid price")
	// ErrUnsupportedValue is raised for a value the active version cannot
	// represent, e.g. a fractional volume before fractional volumes existed.
	ErrUnsupportedValue = errors.New("mdpack: unsupported value")
	// ErrInvalidDomainState is raised when a record violates a domain rule.
	ErrInvalidDomainState = errors.New("mdpack: invalid domain state")
	// ErrUnknownField is raised when a field identifier has no wire mapping.
	ErrUnknownField = errors.New("mdpack: unknown field")
	// ErrEndOfStream is raised when a read runs past the end of the record
	// stream.
	ErrEndOfStream = errors.New("mdpack: end of stream")
	// ErrCorruption is a marker to indicate that data in a blob is corrupted.
	ErrCorruption = errors.New("mdpack: corruption")
)

// MarkCorruptionError marks given error as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// CorruptionErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a corruption error.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// PrecisionLossf returns an error marked with ErrPrecisionLoss.
func PrecisionLossf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrPrecisionLoss)
}

// RangeOverflowf returns an error marked with ErrRangeOverflow.
func RangeOverflowf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrRangeOverflow)
}

// UnsupportedVersionf returns an error marked with ErrUnsupportedVersion.
func UnsupportedVersionf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupportedVersion)
}

// InvalidPricef returns an error marked with ErrInvalidPrice.
func InvalidPricef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidPrice)
}

// UnsupportedValuef returns an error marked with ErrUnsupportedValue.
func UnsupportedValuef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupportedValue)
}

// InvalidDomainStatef returns an error marked with ErrInvalidDomainState.
func InvalidDomainStatef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidDomainState)
}

// UnknownFieldf returns an error marked with ErrUnknownField.
func UnknownFieldf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnknownField)
}

// EndOfStreamf returns an error marked with both ErrEndOfStream and
// ErrCorruption: a truncated stream is never recoverable.
func EndOfStreamf(format string, args ...interface{}) error {
	return MarkCorruptionError(errors.Mark(errors.Newf(format, args...), ErrEndOfStream))
}
