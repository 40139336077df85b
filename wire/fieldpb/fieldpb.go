// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fieldpb is an alternate encoding of a field.Field snapshot
// using the protobuf wire format (spec §6's type-0x03 message is
// otherwise a fixed-layout Packer/Unpacker struct). It exists for
// deployments that bridge fieldmesh telemetry into protobuf-based
// pipelines without requiring every hop to understand the native
// wire.Packer layout; the native codec in field.EncodeWire remains the
// one the core engines speak to each other.
package fieldpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/fixedpoint"
)

const (
	fieldSource    protowire.Number = 1
	fieldTimestamp protowire.Number = 2
	fieldSequence  protowire.Number = 3
	fieldComponent protowire.Number = 4
)

// Encode serializes f using the protobuf wire format: varint fields
// for source/timestamp/sequence, and a repeated fixed32 field for the
// Q16.16 components, emitted in component order so Decode can recover
// positional slots without a length prefix.
func Encode(f field.Field) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldSource, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Source))
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, f.TimestampUS)
	b = protowire.AppendTag(b, fieldSequence, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Sequence))
	for _, c := range f.Components {
		b = protowire.AppendTag(b, fieldComponent, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, uint32(int32(c)))
	}
	return b
}

// Decode parses a message produced by Encode. Unknown fields are
// skipped rather than rejected, matching protobuf's forward-
// compatibility contract; more than NumComponents repeated component
// fields are silently truncated.
func Decode(b []byte) (field.Field, error) {
	var f field.Field
	compIdx := 0
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldSource && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", protowire.ParseError(n))
			}
			f.Source = field.ModuleID(v)
			b = b[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", protowire.ParseError(n))
			}
			f.TimestampUS = v
			b = b[n:]
		case num == fieldSequence && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", protowire.ParseError(n))
			}
			f.Sequence = uint8(v)
			b = b[n:]
		case num == fieldComponent && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", protowire.ParseError(n))
			}
			if compIdx < field.NumComponents {
				f.Components[compIdx] = fixedpoint.Q16(int32(v))
				compIdx++
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return field.Field{}, errs.Wrap(errs.InvalidArg, "fieldpb.Decode", fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n)))
			}
			b = b[n:]
		}
	}
	return f, nil
}
