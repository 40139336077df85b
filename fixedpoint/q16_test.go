package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFloatRoundTrip(t *testing.T) {
	tests := []float64{0, 1, -1, 0.5, -0.5, 100.25, -100.25}
	for _, f := range tests {
		q := FromFloat(f)
		require.InDelta(t, f, q.ToFloat(), 1e-4)
	}
}

func TestFromFloatSaturates(t *testing.T) {
	require.Equal(t, q16Max, FromFloat(1e12))
	require.Equal(t, q16Min, FromFloat(-1e12))
}

func TestAddSaturates(t *testing.T) {
	require.Equal(t, q16Max, q16Max.Add(One))
	require.Equal(t, q16Min, q16Min.Add(-One))
}

func TestSubSaturates(t *testing.T) {
	require.Equal(t, q16Min, q16Min.Sub(One))
	require.Equal(t, q16Max, q16Max.Sub(-One))
}

func TestMulRoundsTowardZero(t *testing.T) {
	half := FromFloat(0.5)
	third := FromFloat(1.0 / 3.0)
	got := half.Mul(third).ToFloat()
	require.InDelta(t, 1.0/6.0, got, 1e-3)

	neg := FromFloat(-0.5).Mul(third)
	require.InDelta(t, -1.0/6.0, neg.ToFloat(), 1e-3)
}

func TestMulSaturates(t *testing.T) {
	big := FromFloat(1000)
	require.Equal(t, q16Max, big.Mul(big))
}

func TestDivByZeroSaturates(t *testing.T) {
	require.Equal(t, q16Max, One.Div(0))
	require.Equal(t, q16Min, Q16(-1).Div(0))
}

func TestDivRoundTrip(t *testing.T) {
	a := FromFloat(10)
	b := FromFloat(4)
	require.InDelta(t, 2.5, a.Div(b).ToFloat(), 1e-3)
}

func TestAbs(t *testing.T) {
	require.Equal(t, One, FromFloat(-1).Abs())
	require.Equal(t, q16Max, q16Min.Abs())
}

func TestClamp(t *testing.T) {
	lo, hi := FromFloat(-1), FromFloat(1)
	require.Equal(t, hi, Clamp(FromFloat(5), lo, hi))
	require.Equal(t, lo, Clamp(FromFloat(-5), lo, hi))
	require.Equal(t, FromFloat(0), Clamp(FromFloat(0), lo, hi))
}

func TestOverflowNeverPanics(t *testing.T) {
	require.NotPanics(t, func() {
		_ = Q16(math.MaxInt32).Mul(Q16(math.MaxInt32))
		_ = Q16(math.MinInt32).Mul(Q16(math.MaxInt32))
		_ = Q16(math.MinInt32).Sub(Q16(math.MaxInt32))
	})
}
