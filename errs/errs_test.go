package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStrings(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{OK, "OK"},
		{InvalidArg, "INVALID_ARG"},
		{NoMemory, "NO_MEMORY"},
		{Timeout, "TIMEOUT"},
		{Busy, "BUSY"},
		{NotFound, "NOT_FOUND"},
		{AlreadyExists, "ALREADY_EXISTS"},
		{NoQuorum, "NO_QUORUM"},
		{Inhibited, "INHIBITED"},
		{NeighborLost, "NEIGHBOR_LOST"},
		{FieldExpired, "FIELD_EXPIRED"},
		{HALFailure, "HAL_FAILURE"},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, test.kind.String())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("seqlock retry exhausted")
	err := Wrap(Busy, "field.Sample", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, Busy, KindOf(err))
	require.Equal(t, "field.Sample: BUSY: seqlock retry exhausted", err.Error())
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(Busy, "op", nil))
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, HALFailure, KindOf(errors.New("boom")))
}

func TestKindOfNil(t *testing.T) {
	require.Equal(t, OK, KindOf(nil))
}
