// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package field implements the shared-memory coordination field of
// spec §4.2/§4.3: a process-wide table of per-module field slots under
// a seqlock discipline, and the sampling/decay/gradient math neighbours
// run over it. The field region is the only mutable state shared
// across modules (spec §5); everything else in fieldmesh is
// module-local.
package field

import (
	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/wire"
)

// NumComponents is the fixed per-field component count: load, thermal,
// power, slack, and two application-defined slots (spec §3, default 6).
const NumComponents = 6

// Component indices for the four core components; the remaining two
// slots are application-defined.
const (
	ComponentLoad = iota
	ComponentThermal
	ComponentPower
	ComponentSlack
	ComponentApp0
	ComponentApp1
)

// ModuleID reuses the wire package's module identifier so that field
// slots can be indexed directly by the ids carried on the wire,
// without a conversion at every call site in module/.
type ModuleID = wire.ModuleID

const (
	InvalidModule   = wire.InvalidModule
	BroadcastModule = wire.BroadcastModule
)

// Field is the tuple (components, timestamp, source, sequence) of
// spec §3. Sequence is a per-publisher debug/ordering counter, not to
// be confused with the seqlock counter on the owning Slot.
type Field struct {
	Components [NumComponents]fixedpoint.Q16
	TimestampUS uint64
	Source      ModuleID
	Sequence    uint8
}

// ApplyDecay decays every component of f in place by elapsedUS
// microseconds under model with time constant tauSeconds, clamping
// each result into [min,max] (spec §4.3).
func (f *Field) ApplyDecay(model fixedpoint.Model, elapsedUS uint32, tauSeconds, min, max fixedpoint.Q16) {
	for i := range f.Components {
		decayed := fixedpoint.Decay(model, f.Components[i], elapsedUS, tauSeconds)
		f.Components[i] = fixedpoint.Clamp(decayed, min, max)
	}
}

// Default returns a Field with every component at def, used when an
// aggregation has zero total weight (spec §4.3).
func Default(def fixedpoint.Q16, source ModuleID) Field {
	var f Field
	for i := range f.Components {
		f.Components[i] = def
	}
	f.Source = source
	return f
}
