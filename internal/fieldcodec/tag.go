// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fieldcodec

import (
	"github.com/cockroachdb/errors"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/bitstream"
	"github.com/tidemark/mdpack/message"
)

// dataTypeBits is the width of the data type discriminator.
const dataTypeBits = 4

// WriteDataType writes a data type tag: the 4-bit kind, followed for the
// extension kind by its type id and arguments.
func WriteDataType(w *bitstream.Writer, dt message.DataType) error {
	if !dt.Kind.Valid() {
		return base.UnsupportedValuef("data type kind %d", errors.Safe(dt.Kind))
	}
	w.WriteBits(uint64(dt.Kind), dataTypeBits)
	if dt.Kind != message.DataTypeExtension {
		return nil
	}
	w.WriteInt32(dt.TypeID)
	w.WriteInt64(dt.Arg1)
	if err := WriteNullableDecimal(w, dt.Arg2); err != nil {
		return err
	}
	w.WriteInt32(dt.Arg3)
	return nil
}

// ReadDataType reads a tag written by WriteDataType.
func ReadDataType(r *bitstream.Reader) (message.DataType, error) {
	k, err := r.ReadBits(dataTypeBits)
	if err != nil {
		return message.DataType{}, err
	}
	dt := message.DataType{Kind: message.DataTypeKind(k)}
	if !dt.Kind.Valid() {
		return message.DataType{}, base.CorruptionErrorf("data type kind %d", errors.Safe(k))
	}
	if dt.Kind != message.DataTypeExtension {
		return dt, nil
	}
	if dt.TypeID, err = r.ReadInt32(); err != nil {
		return message.DataType{}, err
	}
	if dt.Arg1, err = r.ReadInt64(); err != nil {
		return message.DataType{}, err
	}
	if dt.Arg2, err = ReadNullableDecimal(r); err != nil {
		return message.DataType{}, err
	}
	if dt.Arg3, err = r.ReadInt32(); err != nil {
		return message.DataType{}, err
	}
	return dt, nil
}
