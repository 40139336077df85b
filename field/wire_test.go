package field

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/fixedpoint"
)

func TestFieldWireRoundTrip(t *testing.T) {
	f := testField(12, fixedpoint.FromFloat(-0.75), 0x1_0000_0002)
	f.Sequence = 200

	b := f.EncodeWire()
	require.Len(t, b, fieldWireSize)

	got, err := DecodeWire(b)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestFieldWireWrongType(t *testing.T) {
	b := testField(1, fixedpoint.One, 0).EncodeWire()
	b[0] = 0xFF
	_, err := DecodeWire(b)
	require.Error(t, err)
}

func TestFieldWireShortRead(t *testing.T) {
	_, err := DecodeWire([]byte{0x03, 1})
	require.Error(t, err)
}
