// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"time"

	"github.com/luxfi/fieldmesh/fixedpoint"
)

// EmbeddedConfig targets battery-powered or bandwidth-constrained
// modules: a small k-set, slow heartbeat, and a long decay tau so a
// quiet neighbour's field doesn't evaporate between sparse updates.
var EmbeddedConfig = Config{
	K:                6,
	MinNeighbors:     2,
	ReelectionDelay:  2 * time.Second,
	DiscoveryPeriod:  5 * time.Second,
	AllowSelfVote:    false,
	HeartbeatPeriod:  1 * time.Second,
	SuspectThreshold: 2,
	TimeoutCount:     5,
	TrackRTT:         true,
	RTTAlpha:         0.2,
	DecayModel:       fixedpoint.Exponential,
	TauSeconds:       10,
	FieldMin:         -100,
	FieldMax:         100,
	FieldDefault:     0,
	FieldMaxAge:      30 * time.Second,
	MaxBallots:       4,
	VoteTimeout:      5 * time.Second,
	InhibitDuration:  10 * time.Second,
	TaskBudget:       50 * time.Millisecond,
}

// ClusterConfig targets mains-powered, densely-connected deployments:
// a larger k-set and faster heartbeat since bandwidth and power are
// cheap.
var ClusterConfig = Config{
	K:                12,
	MinNeighbors:     4,
	ReelectionDelay:  500 * time.Millisecond,
	DiscoveryPeriod:  1 * time.Second,
	AllowSelfVote:    false,
	HeartbeatPeriod:  200 * time.Millisecond,
	SuspectThreshold: 2,
	TimeoutCount:     5,
	TrackRTT:         true,
	RTTAlpha:         0.2,
	DecayModel:       fixedpoint.Exponential,
	TauSeconds:       2,
	FieldMin:         -100,
	FieldMax:         100,
	FieldDefault:     0,
	FieldMaxAge:      5 * time.Second,
	MaxBallots:       8,
	VoteTimeout:      1 * time.Second,
	InhibitDuration:  2 * time.Second,
	TaskBudget:       10 * time.Millisecond,
}

// SimConfig relaxes timing so a simhal-driven test can advance
// simulated time in large steps without every neighbour immediately
// timing out.
var SimConfig = Config{
	K:                7,
	MinNeighbors:     1,
	ReelectionDelay:  0,
	DiscoveryPeriod:  1500 * time.Microsecond,
	AllowSelfVote:    true,
	HeartbeatPeriod:  1500 * time.Microsecond,
	SuspectThreshold: 2,
	TimeoutCount:     5,
	TrackRTT:         true,
	RTTAlpha:         0.2,
	DecayModel:       fixedpoint.Exponential,
	TauSeconds:       1,
	FieldMin:         -100,
	FieldMax:         100,
	FieldDefault:     0,
	FieldMaxAge:      0,
	MaxBallots:       4,
	VoteTimeout:      5 * time.Millisecond,
	InhibitDuration:  5 * time.Millisecond,
	TaskBudget:       100 * time.Microsecond,
}

// ProfileNames returns every built-in preset name, for CLI flag help
// text.
func ProfileNames() []string {
	return []string{string(ProfileEmbedded), string(ProfileCluster), string(ProfileSim)}
}
