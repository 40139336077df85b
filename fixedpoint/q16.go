// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint implements the Q16.16 and Q1.15 signed
// fixed-point arithmetic contracts used throughout fieldmesh for field
// components, thresholds, decay time constants, and gradients. All
// operations saturate at their representable extrema and round toward
// zero on multiply, per spec §4.1/§9.
package fixedpoint

import "math"

// Q16 is a Q16.16 signed fixed-point value: 16 integer bits, 16
// fractional bits, stored in an int32; arithmetic widens to int64 for
// intermediate results and saturates back into the int32 range.
type Q16 int32

const (
	q16Frac = 16
	q16One  = Q16(1) << q16Frac

	q16Max = Q16(math.MaxInt32)
	q16Min = Q16(math.MinInt32)
)

// One is the Q16.16 representation of 1.0.
const One = q16One

// FromFloat converts a float64 literal to Q16.16, saturating at the
// representable extrema. Intended for constants and tests only, per
// spec §4.1.
func FromFloat(f float64) Q16 {
	scaled := f * float64(q16One)
	if scaled >= float64(math.MaxInt32) {
		return q16Max
	}
	if scaled <= float64(math.MinInt32) {
		return q16Min
	}
	return Q16(scaled)
}

// ToFloat converts a Q16.16 value back to float64. Intended for
// constants and tests only.
func (q Q16) ToFloat() float64 {
	return float64(q) / float64(q16One)
}

// Add returns a+b saturating at the int32 extrema.
func (a Q16) Add(b Q16) Q16 {
	sum := int64(a) + int64(b)
	return saturate32(sum)
}

// Sub returns a-b saturating at the int32 extrema.
func (a Q16) Sub(b Q16) Q16 {
	diff := int64(a) - int64(b)
	return saturate32(diff)
}

// Mul returns a*b, rounding toward zero, saturating at the int32
// extrema. The product is formed in int64 before rescaling so a full
// 32x32 multiply never overflows the intermediate.
func (a Q16) Mul(b Q16) Q16 {
	product := int64(a) * int64(b)
	scaled := product / int64(q16One)
	return saturate32(scaled)
}

// Div returns a/b, rounding toward zero, saturating at the int32
// extrema. Division by zero returns the extremum with the sign of a
// (Max for a>=0, Min for a<0), matching the saturating contract rather
// than panicking — callers on an embedded target cannot recover from a
// trap.
func (a Q16) Div(b Q16) Q16 {
	if b == 0 {
		if a < 0 {
			return q16Min
		}
		return q16Max
	}
	scaled := (int64(a) * int64(q16One)) / int64(b)
	return saturate32(scaled)
}

// Abs returns the absolute value, saturating MinInt32 to MaxInt32.
func (a Q16) Abs() Q16 {
	if a >= 0 {
		return a
	}
	if a == q16Min {
		return q16Max
	}
	return -a
}

func saturate32(v int64) Q16 {
	if v > int64(math.MaxInt32) {
		return q16Max
	}
	if v < int64(math.MinInt32) {
		return q16Min
	}
	return Q16(v)
}

// Clamp restricts q to [lo, hi]. Callers pass lo<=hi; if they don't,
// the first bound applied wins and the result may exceed the intended
// range — this is a programmer error, not a runtime one.
func Clamp(q, lo, hi Q16) Q16 {
	if q < lo {
		return lo
	}
	if q > hi {
		return hi
	}
	return q
}
