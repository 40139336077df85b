package field

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/fixedpoint"
)

func TestSampleNeighboursWeightedAverage(t *testing.T) {
	r := NewRegion()
	r.Publish(testField(1, fixedpoint.FromFloat(1.0), 0))
	r.Publish(testField(2, fixedpoint.FromFloat(0.0), 0))

	e := NewEngine(r, fixedpoint.Exponential, fixedpoint.FromFloat(10), fixedpoint.FromFloat(-10), fixedpoint.FromFloat(10), nil)
	neighbors := []NeighborWeight{
		{ID: 1, HealthWeight: fixedpoint.One, DistanceWeight: fixedpoint.One},
		{ID: 2, HealthWeight: fixedpoint.One, DistanceWeight: fixedpoint.One},
	}
	sum, total := e.SampleNeighbours(0, neighbors)
	agg := Aggregate(sum, total, fixedpoint.FromFloat(0.5))
	require.InDelta(t, 0.5, agg[0].ToFloat(), 0.01)
}

func TestSampleNeighboursSkipsUnpublished(t *testing.T) {
	r := NewRegion()
	r.Publish(testField(1, fixedpoint.One, 0))

	e := NewEngine(r, fixedpoint.Exponential, fixedpoint.FromFloat(10), fixedpoint.FromFloat(-10), fixedpoint.FromFloat(10), nil)
	neighbors := []NeighborWeight{
		{ID: 1, HealthWeight: fixedpoint.One, DistanceWeight: fixedpoint.One},
		{ID: 7, HealthWeight: fixedpoint.One, DistanceWeight: fixedpoint.One},
	}
	sum, total := e.SampleNeighbours(0, neighbors)
	agg := Aggregate(sum, total, fixedpoint.FromFloat(0.5))
	require.InDelta(t, 1.0, agg[0].ToFloat(), 0.01)
}

func TestAggregateFallsBackOnZeroWeight(t *testing.T) {
	var sum [NumComponents]fixedpoint.Q16
	agg := Aggregate(sum, 0, fixedpoint.FromFloat(0.25))
	for _, c := range agg {
		require.InDelta(t, 0.25, c.ToFloat(), 0.001)
	}
}

func TestGradientSignsCorrectly(t *testing.T) {
	var aggregate, self [NumComponents]fixedpoint.Q16
	aggregate[0] = fixedpoint.FromFloat(0.8)
	self[0] = fixedpoint.FromFloat(0.3)
	g := Gradient(aggregate, self)
	require.InDelta(t, 0.5, g[0].ToFloat(), 0.01)
}

func TestDecaySelfClamps(t *testing.T) {
	e := NewEngine(NewRegion(), fixedpoint.Linear, fixedpoint.FromFloat(1), fixedpoint.FromFloat(-1), fixedpoint.FromFloat(1), nil)
	f := Field{}
	for i := range f.Components {
		f.Components[i] = fixedpoint.FromFloat(1.0)
	}
	e.DecaySelf(&f, 2_000_000) // 2s elapsed against a 1s tau, linear floors at 0
	for _, c := range f.Components {
		require.GreaterOrEqual(t, c.ToFloat(), -1.0)
		require.LessOrEqual(t, c.ToFloat(), 1.0)
	}
}
