// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import "github.com/tidemark/mdpack/internal/base"

// Errors returned by serializers. Test for them with errors.Is.
var (
	ErrPrecisionLoss      = base.ErrPrecisionLoss
	ErrRangeOverflow      = base.ErrRangeOverflow
	ErrUnsupportedVersion = base.ErrUnsupportedVersion
	ErrInvalidPrice       = base.ErrInvalidPrice
	ErrUnsupportedValue   = base.ErrUnsupportedValue
	ErrInvalidDomainState = base.ErrInvalidDomainState
	ErrUnknownField       = base.ErrUnknownField
	ErrEndOfStream        = base.ErrEndOfStream
	ErrCorruption         = base.ErrCorruption
)
