// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fieldpb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/fixedpoint"
)

func testField(source field.ModuleID, v fixedpoint.Q16, ts uint64) field.Field {
	var f field.Field
	f.Source = source
	f.TimestampUS = ts
	for i := range f.Components {
		f.Components[i] = v
	}
	return f
}

func TestFieldRoundTrip(t *testing.T) {
	f := testField(12, fixedpoint.FromFloat(-0.75), 0x1_0000_0002)
	f.Sequence = 200

	b := Encode(f)
	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestFieldDecodeSkipsUnknownFields(t *testing.T) {
	f := testField(3, fixedpoint.One, 1000)
	b := Encode(f)

	// Append an unknown field (number 99, varint) that a future
	// producer might emit; Decode must skip it rather than fail.
	b = append(b, 0x98, 0x06, 0x2a) // tag for field 99, varint type; value 42

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestFieldDecodeTruncatedInput(t *testing.T) {
	_, err := Decode([]byte{0x08}) // tag byte with no varint payload
	require.Error(t, err)
}
