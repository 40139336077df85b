// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config is the mesh-wide parameter set every module in a
// deployment shares: k-neighbour size, heartbeat timing, decay
// constants, and consensus/task caps. It is kept separate from a
// module's own identity (its id, position, and capability mask),
// which is supplied at construction time rather than baked into a
// preset.
package config

import (
	"time"

	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/module"
	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

// Config is the validated, preset-friendly parameter set for one
// fieldmesh deployment. Units favor human-readable types
// (time.Duration, float64 seconds) over the raw microsecond/Q16.16
// types module.Config expects; ToModuleConfig performs the
// conversion.
type Config struct {
	// Topology
	K                 int
	MinNeighbors      int
	ReelectionDelay   time.Duration
	DiscoveryPeriod   time.Duration
	AllowSelfVote     bool

	// Heartbeat
	HeartbeatPeriod  time.Duration
	SuspectThreshold uint32
	TimeoutCount     uint32
	TrackRTT         bool
	RTTAlpha         float64

	// Field decay
	DecayModel   fixedpoint.Model
	TauSeconds   float64
	FieldMin     float64
	FieldMax     float64
	FieldDefault float64
	FieldMaxAge  time.Duration

	// Consensus
	MaxBallots          int
	VoteTimeout         time.Duration
	InhibitDuration      time.Duration
	RequireAllNeighbors bool

	// Tick loop
	TaskBudget time.Duration
}

// Verify checks that every field is internally consistent, rejecting
// the configurations spec §8 calls out explicitly (K=0) along with
// every other nonsensical combination a hand-built Config could carry.
func (c Config) Verify() error {
	if c.K < 1 {
		return ErrInvalidK
	}
	if c.MinNeighbors < 1 {
		return ErrMinNeighborsTooLow
	}
	if c.MinNeighbors > c.K {
		return ErrMinNeighborsTooHigh
	}
	if c.HeartbeatPeriod <= 0 {
		return ErrInvalidHeartbeat
	}
	if c.SuspectThreshold < 1 {
		return ErrInvalidSuspect
	}
	if c.TimeoutCount <= c.SuspectThreshold {
		return ErrInvalidTimeoutCount
	}
	if c.TauSeconds <= 0 {
		return ErrInvalidTau
	}
	if c.FieldMin >= c.FieldMax {
		return ErrInvalidFieldRange
	}
	if c.MaxBallots < 1 {
		return ErrInvalidMaxBallots
	}
	if c.VoteTimeout <= 0 {
		return ErrInvalidVoteTimeout
	}
	if c.TaskBudget <= 0 {
		return ErrInvalidTaskBudget
	}
	return nil
}

// ToModuleConfig converts a validated Config plus one module's
// identity into the module.Config the arena is constructed from.
func (c Config) ToModuleConfig(self wire.ModuleID, pos topology.Position, capabilities uint16, metric topology.Metric, custom topology.CustomDistance) module.Config {
	return module.Config{
		Self:         self,
		Position:     pos,
		Capabilities: capabilities,

		K:                 c.K,
		MinNeighbors:      c.MinNeighbors,
		ReelectionDelayUS: uint64(c.ReelectionDelay.Microseconds()),
		DiscoveryPeriodUS: uint64(c.DiscoveryPeriod.Microseconds()),
		Metric:            metric,
		Custom:            custom,
		AllowSelfVote:     c.AllowSelfVote,

		HeartbeatPeriodUS: uint64(c.HeartbeatPeriod.Microseconds()),
		SuspectThreshold:  c.SuspectThreshold,
		TimeoutCount:      c.TimeoutCount,
		TrackRTT:          c.TrackRTT,
		RTTAlpha:          fixedpoint.FromFloat(c.RTTAlpha),

		DecayModel:    c.DecayModel,
		TauSeconds:    fixedpoint.FromFloat(c.TauSeconds),
		FieldMin:      fixedpoint.FromFloat(c.FieldMin),
		FieldMax:      fixedpoint.FromFloat(c.FieldMax),
		FieldDefault:  fixedpoint.FromFloat(c.FieldDefault),
		FieldMaxAgeUS: uint64(c.FieldMaxAge.Microseconds()),

		MaxBallots:          c.MaxBallots,
		VoteTimeoutUS:       uint64(c.VoteTimeout.Microseconds()),
		InhibitDurationUS:   uint64(c.InhibitDuration.Microseconds()),
		RequireAllNeighbors: c.RequireAllNeighbors,

		TaskBudgetUS: uint32(c.TaskBudget.Microseconds()),
	}
}
