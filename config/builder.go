// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"time"

	"github.com/luxfi/fieldmesh/fixedpoint"
)

// Profile names a built-in preset tuned for a class of deployment.
type Profile string

const (
	// ProfileEmbedded favors a small k-set and conservative timing for
	// battery-powered or bandwidth-constrained nodes.
	ProfileEmbedded Profile = "embedded"
	// ProfileCluster favors a larger k-set and faster heartbeat for
	// densely-connected, mains-powered deployments.
	ProfileCluster Profile = "cluster"
	// ProfileSim relaxes every bound for fast-forward simulation.
	ProfileSim Profile = "sim"
)

// Builder provides a fluent interface for constructing a Config,
// starting from a named preset and layering overrides on top.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder starts from ProfileEmbedded's defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: EmbeddedConfig}
}

// FromProfile replaces the builder's working config with the named
// preset, discarding any overrides applied so far.
func (b *Builder) FromProfile(p Profile) *Builder {
	if b.err != nil {
		return b
	}
	switch p {
	case ProfileEmbedded:
		b.cfg = EmbeddedConfig
	case ProfileCluster:
		b.cfg = ClusterConfig
	case ProfileSim:
		b.cfg = SimConfig
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownProfile, p)
	}
	return b
}

// WithK sets the k-neighbour set size, auto-lowering MinNeighbors if
// it would otherwise exceed the new k.
func (b *Builder) WithK(k int) *Builder {
	if b.err != nil {
		return b
	}
	if k < 1 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidK, k)
		return b
	}
	b.cfg.K = k
	if b.cfg.MinNeighbors > k {
		b.cfg.MinNeighbors = k
	}
	return b
}

// WithMinNeighbors sets the minimum live k-set size below which a
// module reports DEGRADED.
func (b *Builder) WithMinNeighbors(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("%w: got %d", ErrMinNeighborsTooLow, n)
		return b
	}
	if n > b.cfg.K {
		b.err = fmt.Errorf("%w: got %d > k=%d", ErrMinNeighborsTooHigh, n, b.cfg.K)
		return b
	}
	b.cfg.MinNeighbors = n
	return b
}

// WithHeartbeat sets the heartbeat period and the missed-beat
// thresholds for SUSPECT and DEAD.
func (b *Builder) WithHeartbeat(period time.Duration, suspectThreshold, timeoutCount uint32) *Builder {
	if b.err != nil {
		return b
	}
	if period <= 0 {
		b.err = fmt.Errorf("%w: got %v", ErrInvalidHeartbeat, period)
		return b
	}
	if timeoutCount <= suspectThreshold {
		b.err = fmt.Errorf("%w: timeout=%d suspect=%d", ErrInvalidTimeoutCount, timeoutCount, suspectThreshold)
		return b
	}
	b.cfg.HeartbeatPeriod = period
	b.cfg.SuspectThreshold = suspectThreshold
	b.cfg.TimeoutCount = timeoutCount
	return b
}

// WithDecay sets the field decay model and its tau/min/max/default
// bounds (seconds, not Q16.16 — the builder operates in human units).
func (b *Builder) WithDecay(model fixedpoint.Model, tauSeconds, min, max, def float64) *Builder {
	if b.err != nil {
		return b
	}
	if tauSeconds <= 0 {
		b.err = fmt.Errorf("%w: got %v", ErrInvalidTau, tauSeconds)
		return b
	}
	if min >= max {
		b.err = fmt.Errorf("%w: min=%v max=%v", ErrInvalidFieldRange, min, max)
		return b
	}
	b.cfg.DecayModel = model
	b.cfg.TauSeconds = tauSeconds
	b.cfg.FieldMin = min
	b.cfg.FieldMax = max
	b.cfg.FieldDefault = def
	return b
}

// Build validates and returns the final Config.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if err := b.cfg.Verify(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}
