// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"go.uber.org/zap"

	"github.com/luxfi/fieldmesh/fixedpoint"
)

// NeighborWeight is one neighbour's contribution to a weighted
// aggregation: the health and distance weights are supplied by the
// caller (heartbeat and topology own that math respectively, spec
// §4.5/§4.4) so that field stays a leaf package with no dependency on
// liveness or distance metrics; the recency weight is computed here.
type NeighborWeight struct {
	ID           ModuleID
	HealthWeight fixedpoint.Q16 // ALIVE=1.0, SUSPECT=0.5, DEAD/UNKNOWN=0.0 (spec §4.3)
	DistanceWeight fixedpoint.Q16 // 1/(1+distance), precomputed by the caller
}

// Engine runs the sampling, aggregation, and decay math of spec §4.3
// over a Region.
type Engine struct {
	Region *Region

	// DecayModel, Tau, and the component clamp bounds are the engine's
	// decay configuration (spec §4.1/§4.3).
	DecayModel fixedpoint.Model
	TauSeconds fixedpoint.Q16
	Min, Max   fixedpoint.Q16

	log *zap.Logger
}

// NewEngine returns an Engine over region with the given decay
// configuration. A nil log defaults to zap.NewNop().
func NewEngine(region *Region, model fixedpoint.Model, tau, min, max fixedpoint.Q16, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Region: region, DecayModel: model, TauSeconds: tau, Min: min, Max: max, log: log}
}

// SampleNeighbours reads every neighbour's current field (retrying per
// RetryingSample) and returns the recency*health*distance-weighted
// average of each component, plus the total weight used. A neighbour
// whose slot cannot be sampled (not yet published, or BUSY after
// retries) is simply excluded from the sum (spec §4.3: "a neighbour
// that cannot be read this tick contributes nothing, not a zero").
func (e *Engine) SampleNeighbours(nowUS uint64, neighbors []NeighborWeight) (sum [NumComponents]fixedpoint.Q16, totalWeight fixedpoint.Q16) {
	for _, n := range neighbors {
		f, err := e.Region.RetryingSample(n.ID)
		if err != nil {
			e.log.Debug("neighbour sample unavailable", zap.Uint8("neighbour", uint8(n.ID)), zap.Error(err))
			continue
		}
		recency := e.recencyWeight(nowUS, f.TimestampUS)
		w := fixedpoint.Q16(0).Add(recency) // start from recency, then fold in the rest
		w = w.Mul(n.HealthWeight)
		w = w.Mul(n.DistanceWeight)
		if w <= 0 {
			continue
		}
		for i, c := range f.Components {
			sum[i] = sum[i].Add(c.Mul(w))
		}
		totalWeight = totalWeight.Add(w)
	}
	return sum, totalWeight
}

// Aggregate normalizes a SampleNeighbours sum by totalWeight, falling
// back to def when totalWeight is zero — the "no live neighbours"
// case of spec §4.3.
func Aggregate(sum [NumComponents]fixedpoint.Q16, totalWeight, def fixedpoint.Q16) [NumComponents]fixedpoint.Q16 {
	if totalWeight <= 0 {
		var out [NumComponents]fixedpoint.Q16
		for i := range out {
			out[i] = def
		}
		return out
	}
	var out [NumComponents]fixedpoint.Q16
	for i, s := range sum {
		out[i] = s.Div(totalWeight)
	}
	return out
}

// Gradient returns, per component, the aggregate of neighbours minus
// self's own value (spec §4.3): positive means neighbours are
// "higher" on that component than self, the signal the module tick
// loop uses to decide whether to pick up or shed load.
func Gradient(aggregate, self [NumComponents]fixedpoint.Q16) [NumComponents]fixedpoint.Q16 {
	var out [NumComponents]fixedpoint.Q16
	for i := range out {
		out[i] = aggregate[i].Sub(self[i])
	}
	return out
}

// recencyWeight decays to zero as a sample ages, using the engine's
// configured decay model with an implicit f0=One (spec §4.3's
// "recency weight is the one-component decay of the sample's age").
func (e *Engine) recencyWeight(nowUS, sampleUS uint64) fixedpoint.Q16 {
	if sampleUS > nowUS {
		return fixedpoint.One
	}
	elapsed := nowUS - sampleUS
	var elapsedUS uint32
	if elapsed > uint64(^uint32(0)) {
		elapsedUS = ^uint32(0)
	} else {
		elapsedUS = uint32(elapsed)
	}
	return fixedpoint.Decay(e.DecayModel, fixedpoint.One, elapsedUS, e.TauSeconds)
}

// DecaySelf applies the engine's configured decay in place to a
// module's own field, advancing it by elapsedUS (spec §4.3's per-tick
// self-decay step, run before publishing).
func (e *Engine) DecaySelf(f *Field, elapsedUS uint32) {
	f.ApplyDecay(e.DecayModel, elapsedUS, e.TauSeconds, e.Min, e.Max)
}
