// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import "math"

// Q15 is a Q1.15 signed fixed-point value: 1 integer/sign bit, 15
// fractional bits, the storage form for gradient vectors (spec §3).
type Q15 int16

const (
	q15Frac = 15
	q15One  = Q15(1) << q15Frac

	q15Max = Q15(math.MaxInt16)
	q15Min = Q15(math.MinInt16)
)

// Add returns a+b saturating at ±1.0 (the int16 extrema).
func (a Q15) Add(b Q15) Q15 {
	sum := int32(a) + int32(b)
	return saturate16(sum)
}

// Sub returns a-b saturating at the int16 extrema.
func (a Q15) Sub(b Q15) Q15 {
	diff := int32(a) - int32(b)
	return saturate16(diff)
}

// Mul returns a*b, rounding toward zero, saturating at the int16
// extrema.
func (a Q15) Mul(b Q15) Q15 {
	product := int32(a) * int32(b)
	scaled := product / int32(q15One)
	return saturate16(scaled)
}

func saturate16(v int32) Q15 {
	if v > int32(math.MaxInt16) {
		return q15Max
	}
	if v < int32(math.MinInt16) {
		return q15Min
	}
	return Q15(v)
}

// FromQ16 converts a Q16.16 value to Q1.15, clamping to the
// representable ±1.0 range before rescaling.
func FromQ16(q Q16) Q15 {
	clamped := Clamp(q, -One, One-1)
	scaled := int64(clamped) >> (q16Frac - q15Frac)
	return saturate16(int32(scaled))
}

// ToQ16 widens a Q1.15 value back to Q16.16 with no precision loss.
func (a Q15) ToQ16() Q16 {
	return Q16(int32(a) << (q16Frac - q15Frac))
}
