// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package heartbeat tracks per-neighbour liveness from periodic
// beacons (spec §4.5): it classifies neighbours into ALIVE/SUSPECT/
// DEAD, fires transition callbacks exactly once per edge, and
// optionally tracks an RTT EWMA for the topology engine's latency
// distance metric. Modeled on the connected/disconnected tracking
// shape of an uptime manager, generalized from a binary
// connected/not-connected state to the three-way liveness machine the
// spec requires.
package heartbeat

import (
	"go.uber.org/zap"

	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

// Health is an alias of topology.Health: the heartbeat engine is the
// sole producer of liveness classifications, topology the consumer.
type Health = topology.Health

const (
	HealthUnknown = topology.HealthUnknown
	HealthAlive   = topology.HealthAlive
	HealthSuspect = topology.HealthSuspect
	HealthDead    = topology.HealthDead
)

// DefaultTimeoutCount is the missed-beat count at which a neighbour
// is declared DEAD (spec §4.5's default of 5).
const DefaultTimeoutCount = 5

// DefaultSuspectThreshold is the missed-beat count at which a
// neighbour is declared SUSPECT. The spec allows 1 or 2; this
// implementation picks 2 to tolerate a single dropped beacon on a
// lossy bus before downgrading a neighbour's weight in the field
// aggregation (spec §4.5: "implementation may pick the exact
// threshold within this range, but must be consistent").
const DefaultSuspectThreshold = 2

// Callbacks are the optional liveness transition hooks of spec §4.5,
// one method per edge rather than a class hierarchy (spec §8).
type Callbacks struct {
	OnAlive   func(id wire.ModuleID)
	OnSuspect func(id wire.ModuleID)
	OnDead    func(id wire.ModuleID)
}

// Config is the heartbeat engine's tunable parameters.
type Config struct {
	Self             wire.ModuleID
	PeriodUS         uint64
	SuspectThreshold uint32 // missed beats, 1 or 2
	TimeoutCount     uint32 // missed beats, default 5
	TrackRTT         bool
	RTTAlpha         fixedpoint.Q16 // EWMA smoothing factor, Q16.16 in (0,1]
}

// neighbor is the per-neighbour tracked state (spec §3's "tracked-
// neighbour table").
type neighbor struct {
	health     Health
	lastSeenUS uint64
	missed     uint32
	lastSeq    uint8

	rttEWMA    fixedpoint.Q16
	rttValid   bool
	lastSentUS uint64
	sentValid  bool
}

// Engine is the per-module heartbeat engine of spec §4.5.
type Engine struct {
	cfg Config
	cb  Callbacks

	topo *topology.Engine

	neighbors map[wire.ModuleID]*neighbor
	outSeq    uint8
	lastSendUS uint64

	log *zap.Logger
}

// NewEngine returns a heartbeat engine for cfg, wired to topo so that
// DEAD transitions can trigger reelection (spec §4.4's "heartbeat
// reports a neighbour dead" coupling). topo may be nil in tests that
// only exercise liveness tracking. A nil log defaults to zap.NewNop().
func NewEngine(cfg Config, cb Callbacks, topo *topology.Engine, log *zap.Logger) *Engine {
	if cfg.SuspectThreshold == 0 {
		cfg.SuspectThreshold = DefaultSuspectThreshold
	}
	if cfg.TimeoutCount == 0 {
		cfg.TimeoutCount = DefaultTimeoutCount
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		cb:        cb,
		topo:      topo,
		neighbors: make(map[wire.ModuleID]*neighbor),
		log:       log,
	}
}

// OutboundDue reports whether it is time to send a heartbeat and, if
// so, consumes the send slot and returns the beacon to broadcast
// (spec §4.5 "outbound"). loadPct and thermalPct are 0-100.
func (e *Engine) OutboundDue(nowUS uint64, state, neighborCount, loadPct, thermalPct uint8) (wire.Heartbeat, bool) {
	if nowUS-e.lastSendUS < e.cfg.PeriodUS {
		return wire.Heartbeat{}, false
	}
	e.lastSendUS = nowUS
	seq := e.outSeq
	e.outSeq++ // wraps modulo 256 via uint8 overflow
	return wire.Heartbeat{
		Sender:        e.cfg.Self,
		Seq:           seq,
		State:         state,
		NeighborCount: neighborCount,
		LoadPct:       loadPct,
		ThermalPct:    thermalPct,
	}, true
}

func (e *Engine) track(id wire.ModuleID) *neighbor {
	n, ok := e.neighbors[id]
	if !ok {
		n = &neighbor{health: HealthUnknown}
		e.neighbors[id] = n
	}
	return n
}

// OnHeartbeat processes an inbound beacon: marks the sender ALIVE,
// resets its missed-beat counter, and samples RTT if enabled (spec
// §4.5 "inbound").
func (e *Engine) OnHeartbeat(h wire.Heartbeat, nowUS uint64) {
	n := e.track(h.Sender)
	prev := n.health

	if e.cfg.TrackRTT && n.sentValid {
		sample := fixedpoint.FromFloat(float64(nowUS - n.lastSentUS))
		if n.rttValid {
			alpha := e.cfg.RTTAlpha
			if alpha <= 0 {
				alpha = fixedpoint.FromFloat(0.2)
			}
			n.rttEWMA = alpha.Mul(sample).Add(fixedpoint.One.Sub(alpha).Mul(n.rttEWMA))
		} else {
			n.rttEWMA = sample
			n.rttValid = true
		}
	}
	n.lastSentUS = nowUS
	n.sentValid = true

	n.health = HealthAlive
	n.lastSeenUS = nowUS
	n.missed = 0
	n.lastSeq = h.Seq

	e.fireTransition(h.Sender, prev, HealthAlive, nowUS)
}

// Tick advances missed-beat counters for every tracked neighbour and
// fires SUSPECT/DEAD transitions (spec §4.5 "tick").
func (e *Engine) Tick(nowUS uint64) {
	for id, n := range e.neighbors {
		if nowUS-n.lastSeenUS < e.cfg.PeriodUS {
			continue
		}
		n.missed++
		prev := n.health

		switch {
		case n.missed >= e.cfg.TimeoutCount:
			n.health = HealthDead
		case n.missed >= e.cfg.SuspectThreshold:
			n.health = HealthSuspect
		}

		if n.health != prev {
			e.fireTransition(id, prev, n.health, nowUS)
		}
	}
}

func (e *Engine) fireTransition(id wire.ModuleID, prev, next Health, nowUS uint64) {
	if prev == next {
		return
	}
	switch next {
	case HealthAlive:
		e.log.Info("neighbour alive", zap.Uint8("module", uint8(id)))
		if e.cb.OnAlive != nil {
			e.cb.OnAlive(id)
		}
	case HealthSuspect:
		e.log.Warn("neighbour suspect", zap.Uint8("module", uint8(id)))
		if e.cb.OnSuspect != nil {
			e.cb.OnSuspect(id)
		}
	case HealthDead:
		e.log.Error("neighbour dead", zap.Uint8("module", uint8(id)))
		if e.cb.OnDead != nil {
			e.cb.OnDead(id)
		}
	}
	if e.topo != nil {
		e.topo.MarkHealth(id, next, nowUS)
	}
}

// Health returns the tracked liveness of id, or UNKNOWN if never seen.
func (e *Engine) Health(id wire.ModuleID) Health {
	if n, ok := e.neighbors[id]; ok {
		return n.health
	}
	return HealthUnknown
}

// RTT returns the current RTT EWMA estimate for id, used by the
// topology engine's latency distance metric (spec §4.4/§4.5).
func (e *Engine) RTT(id wire.ModuleID) (fixedpoint.Q16, bool) {
	n, ok := e.neighbors[id]
	if !ok || !n.rttValid {
		return 0, false
	}
	return n.rttEWMA, true
}
