package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpTableMatchesMathExp(t *testing.T) {
	for i, q := range expTable {
		x := float64(i) * 0.25
		want := math.Exp(-x)
		got := q.ToFloat()
		if want > 0.02 {
			require.InDelta(t, want, got, want*0.05, "x=%v", x)
		}
	}
}

func TestExpTableMonotonicNonIncreasing(t *testing.T) {
	for i := 1; i < len(expTable); i++ {
		require.LessOrEqual(t, expTable[i], expTable[i-1])
	}
}

func TestDecayExponentialAtZero(t *testing.T) {
	f0 := FromFloat(100)
	got := Decay(Exponential, f0, 0, FromFloat(0.1))
	require.InDelta(t, 100.0, got.ToFloat(), 0.5)
}

func TestDecayExponentialPastCeilingIsZero(t *testing.T) {
	f0 := FromFloat(100)
	// elapsed far beyond 6*tau
	got := Decay(Exponential, f0, 1_000_000, FromFloat(0.001))
	require.Equal(t, Q16(0), got)
}

func TestDecayLinear(t *testing.T) {
	f0 := FromFloat(100)
	tau := FromFloat(1.0) // 1 second
	got := Decay(Linear, f0, 500_000, tau) // half tau elapsed
	require.InDelta(t, 50.0, got.ToFloat(), 1.0)
}

func TestDecayLinearFloorsAtZero(t *testing.T) {
	f0 := FromFloat(100)
	tau := FromFloat(1.0)
	got := Decay(Linear, f0, 2_000_000, tau)
	require.Equal(t, Q16(0), got)
}

func TestDecayStep(t *testing.T) {
	f0 := FromFloat(42)
	tau := FromFloat(0.1)
	require.Equal(t, f0, Decay(Step, f0, 50_000, tau))
	require.Equal(t, Q16(0), Decay(Step, f0, 150_000, tau))
}

func TestDecayZeroTau(t *testing.T) {
	require.Equal(t, Q16(0), Decay(Exponential, FromFloat(10), 1, 0))
}
