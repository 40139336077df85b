// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"fmt"

	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/wire"
)

// fieldWireSize is the fixed on-wire length of a Field snapshot: 1
// type byte + 1 sender byte + 6*4 Q16 components + 8 timestamp +
// 1 sequence byte (spec §6 type 0x03).
const fieldWireSize = 1 + 1 + NumComponents*4 + 8 + 1

// EncodeWire serializes f as the spec §6 type-0x03 Field message.
// This lives in field rather than wire because the component count
// and layout are field-engine concerns; wire only supplies the
// Packer/Unpacker primitives, keeping the dependency one-directional
// (field imports wire, never the reverse).
func (f Field) EncodeWire() []byte {
	p := wire.NewPacker(fieldWireSize)
	p.PackByte(byte(wire.TypeField))
	p.PackByte(byte(f.Source))
	for _, c := range f.Components {
		p.PackI32(int32(c))
	}
	hi := uint32(f.TimestampUS >> 32)
	lo := uint32(f.TimestampUS)
	p.PackU32(hi)
	p.PackU32(lo)
	p.PackByte(f.Sequence)
	return p.Bytes
}

// DecodeWire parses a spec §6 type-0x03 Field message.
func DecodeWire(b []byte) (Field, error) {
	u := wire.NewUnpacker(b)
	typ := wire.Type(u.UnpackByte())
	var f Field
	f.Source = ModuleID(u.UnpackByte())
	for i := range f.Components {
		f.Components[i] = fixedpoint.Q16(u.UnpackI32())
	}
	hi := u.UnpackU32()
	lo := u.UnpackU32()
	f.TimestampUS = uint64(hi)<<32 | uint64(lo)
	f.Sequence = u.UnpackByte()
	if u.Err != nil {
		return Field{}, errs.Wrap(errs.InvalidArg, "field.DecodeWire", u.Err)
	}
	if typ != wire.TypeField {
		return Field{}, errs.Wrap(errs.InvalidArg, "field.DecodeWire", fmt.Errorf("type %#x != %#x", typ, wire.TypeField))
	}
	return f, nil
}
