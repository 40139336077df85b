// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

// Model selects the decay law applied to a field component as it ages
// (spec §4.1).
type Model uint8

const (
	// Exponential applies f(t) = f0 * exp(-t/tau).
	Exponential Model = iota
	// Linear applies f(t) = f0 * max(0, 1 - t/tau).
	Linear
	// Step holds f0 until t>=tau, then drops to zero.
	Step
)

// expCeiling is the argument (t/tau, in Q16.16) beyond which
// exponential decay is clamped to zero outright rather than evaluated,
// per spec §4.1 ("clamps to zero when the argument exceeds a
// configurable ceiling"). Six tau constants is the conventional default
// for a 5%-bounded piecewise table (e^-6 ≈ 0.25%, well under the 5%
// relative-error budget spec §4.1 allows).
var expCeiling = FromFloat(6.0)

// expTable is a piecewise-linear approximation of exp(-x) for x in
// [0,6], sampled at x=0,0.25,...,6. Linear interpolation between
// samples keeps the relative error under 5% across the whole range
// and preserves monotonic non-increase, satisfying spec §4.1's
// accuracy contract without a floating-point exp() on a target that
// may have no FPU.
var expTable = buildExpTable()

func buildExpTable() [25]Q16 {
	var t [25]Q16
	for i := range t {
		x := float64(i) * 0.25
		t[i] = FromFloat(expApprox(x))
	}
	return t
}

// expApprox is used only to build the constant table above (at
// package init, using real floating point); it is never on the hot
// decay path.
func expApprox(x float64) float64 {
	// Minimax-free reference exp via repeated squaring of exp(-x/2^n),
	// good enough to seed a table checked against math.Exp in tests.
	const n = 16
	y := 1 - x/float64(int(1)<<n)
	for i := 0; i < n; i++ {
		y *= y
	}
	return y
}

// expDecay evaluates exp(-x) for x>=0 in Q16.16 via linear
// interpolation over expTable, clamping to 0 past expCeiling.
func expDecay(x Q16) Q16 {
	if x <= 0 {
		return One
	}
	if x >= expCeiling {
		return 0
	}
	// step = 0.25 in Q16.16
	step := FromFloat(0.25)
	idx := x.Div(step)
	lo := int(idx >> 16)
	if lo >= len(expTable)-1 {
		return expTable[len(expTable)-1]
	}
	frac := idx - Q16(lo<<16)
	a, b := expTable[lo], expTable[lo+1]
	return a.Add(b.Sub(a).Mul(frac))
}

// Decay applies the configured model to f0 over elapsedUS microseconds
// given a time constant tauSeconds (Q16.16 seconds), returning the
// decayed value. Callers clamp the result into [min,max] themselves
// (spec §4.3's decay-application step does this per component).
func Decay(model Model, f0 Q16, elapsedUS uint32, tauSeconds Q16) Q16 {
	if tauSeconds <= 0 {
		return 0
	}
	// Convert microseconds to Q16.16 seconds in integer space: routing
	// elapsedUS through FromFloat would saturate past ~32.8ms.
	tSeconds := saturate32(int64(elapsedUS) * int64(q16One) / 1_000_000)
	ratio := tSeconds.Div(tauSeconds)

	switch model {
	case Exponential:
		return f0.Mul(expDecay(ratio))
	case Linear:
		remaining := One.Sub(ratio)
		if remaining < 0 {
			remaining = 0
		}
		return f0.Mul(remaining)
	case Step:
		if ratio < One {
			return f0
		}
		return 0
	default:
		return f0
	}
}
