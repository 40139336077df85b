package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQ15AddSubSaturate(t *testing.T) {
	require.Equal(t, q15Max, q15Max.Add(q15One))
	require.Equal(t, q15Min, q15Min.Sub(q15One))
}

func TestQ15MulRoundsTowardZero(t *testing.T) {
	half := Q15(1 << 14) // 0.5 in Q1.15
	got := half.Mul(half)
	require.InDelta(t, 0.25, float64(got)/float64(q15One), 1e-3)
}

func TestFromQ16ClampsAtOne(t *testing.T) {
	require.Equal(t, q15Max, FromQ16(FromFloat(5.0)))
	require.Equal(t, q15Min, FromQ16(FromFloat(-5.0)))
}

func TestFromQ16RoundTrip(t *testing.T) {
	q := FromFloat(0.5)
	q15 := FromQ16(q)
	back := q15.ToQ16()
	require.InDelta(t, 0.5, back.ToFloat(), 1e-3)
}
