// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package topology maintains a module's k-neighbour set: a fixed-
// cardinality, distance-ordered view of the mesh that survives
// neighbour loss and arbitrary cluster size without a central
// scheduler (spec §4.4). It owns discovery bookkeeping and the
// reelection algorithm; liveness classification itself lives in
// heartbeat and is only consumed here.
package topology

import (
	"sort"

	"go.uber.org/zap"

	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/wire"
)

// Health mirrors the liveness classification the heartbeat engine
// maintains, duplicated here (rather than imported) to keep topology
// a leaf package — heartbeat imports topology to trigger reelection,
// not the other way around.
type Health uint8

const (
	HealthUnknown Health = iota
	HealthAlive
	HealthSuspect
	HealthDead
)

// Metric selects the distance function used to rank candidate
// neighbours (spec §4.4).
type Metric uint8

const (
	MetricLogical Metric = iota
	MetricPhysical
	MetricLatency
	MetricCustom
)

// Position is a module's 3D coordinate for the physical metric.
type Position struct {
	X, Y, Z int16
}

// CustomDistance is the application-supplied callback backing
// MetricCustom (spec §4.4's "custom: deferred to an application-
// provided callback").
type CustomDistance func(self, other wire.ModuleID) fixedpoint.Q16

// LatencyLookup returns the current RTT-derived distance for a
// neighbour, supplied by the heartbeat engine when MetricLatency is
// selected.
type LatencyLookup func(id wire.ModuleID) (fixedpoint.Q16, bool)

// Entry is one module's discovery-log record.
type Entry struct {
	ID            wire.ModuleID
	Position      Position
	NeighborCount uint8
	State         uint8
	Health        Health
	LastSeenUS    uint64
}

// Callbacks are the optional topology-change hooks of spec §4.4,
// modeled as a struct of handlers rather than an interface hierarchy
// per spec §8's "configuration objects holding polymorphic handlers"
// note.
type Callbacks struct {
	OnTopologyChanged func(old, new []wire.ModuleID)
}

// Config is the topology engine's tunable parameters.
type Config struct {
	Self         wire.ModuleID
	SelfPosition Position
	K            int // max k-set cardinality, default 7
	MinNeighbors int
	ReelectionDelayUS uint64
	DiscoveryPeriodUS uint64
	Metric       Metric
	Custom       CustomDistance
	Latency      LatencyLookup
	AllowSelfVote bool
}

// State is the module's observable topology status (spec §3's
// ACTIVE/DEGRADED/ISOLATED contribution; the full seven-state module
// machine lives in package module).
type State uint8

const (
	StateISOLATED State = iota
	StateDEGRADED
	StateACTIVE
)

// Engine is the per-module topology engine of spec §4.4.
type Engine struct {
	cfg Config
	cb  Callbacks

	log map[wire.ModuleID]*Entry
	kset []wire.ModuleID // ordered, length <= cfg.K

	lastDiscoveryUS  uint64
	lastReelectionUS uint64

	zlog *zap.Logger
}

// NewEngine returns a topology engine for cfg. K defaults to 7 if
// cfg.K is zero (spec §3's "default K = 7"). A nil zlog defaults to
// zap.NewNop().
func NewEngine(cfg Config, cb Callbacks, zlog *zap.Logger) *Engine {
	if cfg.K <= 0 {
		cfg.K = 7
	}
	if zlog == nil {
		zlog = zap.NewNop()
	}
	return &Engine{
		cfg:  cfg,
		cb:   cb,
		log:  make(map[wire.ModuleID]*Entry),
		zlog: zlog,
	}
}

// KSet returns the current ordered k-neighbour set. The returned
// slice is a copy; callers must not retain it across a reelection.
func (e *Engine) KSet() []wire.ModuleID {
	out := make([]wire.ModuleID, len(e.kset))
	copy(out, e.kset)
	return out
}

// State reports the module's topology-derived state given
// cfg.MinNeighbors (spec §4.4's ACTIVE/DEGRADED/ISOLATED thresholds).
func (e *Engine) State() State {
	n := len(e.kset)
	switch {
	case n == 0:
		return StateISOLATED
	case n < e.cfg.MinNeighbors:
		return StateDEGRADED
	default:
		return StateACTIVE
	}
}

// Has reports whether id is currently in the k-set.
func (e *Engine) Has(id wire.ModuleID) bool {
	for _, n := range e.kset {
		if n == id {
			return true
		}
	}
	return false
}

// OnDiscovery records or updates a discovery-log entry from an
// inbound Discovery message, re-running reelection if warranted (spec
// §4.4's "on discovery message" rule).
func (e *Engine) OnDiscovery(d wire.Discovery, nowUS uint64) {
	if d.Sender == e.cfg.Self && !e.cfg.AllowSelfVote {
		return
	}
	existing, known := e.log[d.Sender]
	changed := !known
	pos := Position{X: d.PosX, Y: d.PosY, Z: d.PosZ}
	if known && existing.Position != pos {
		changed = true
	}
	if !known {
		e.zlog.Debug("discovery log entry added", zap.Uint8("module", uint8(d.Sender)))
	}
	e.log[d.Sender] = &Entry{
		ID:            d.Sender,
		Position:      pos,
		NeighborCount: d.NeighborCount,
		State:         d.State,
		Health:        HealthAlive,
		LastSeenUS:    nowUS,
	}

	dueForReelection := nowUS-e.lastReelectionUS >= e.cfg.ReelectionDelayUS
	if (changed && dueForReelection) || len(e.kset) < e.cfg.MinNeighbors {
		e.Reelect(nowUS)
	}
}

// MarkHealth updates the discovery log's view of id's liveness. The
// heartbeat engine calls this on every health transition (spec §4.4's
// "heartbeat reports a neighbour dead" coupling).
func (e *Engine) MarkHealth(id wire.ModuleID, h Health, nowUS uint64) {
	if entry, ok := e.log[id]; ok {
		entry.Health = h
	}
	if h == HealthDead && e.Has(id) {
		e.zlog.Info("neighbour dead, dropping from k-set", zap.Uint8("module", uint8(id)))
		e.removeFromKSet(id)
		e.Reelect(nowUS)
	}
}

func (e *Engine) removeFromKSet(id wire.ModuleID) {
	for i, n := range e.kset {
		if n == id {
			e.kset = append(e.kset[:i], e.kset[i+1:]...)
			return
		}
	}
}

// distance computes the configured metric between self and other.
func (e *Engine) distance(other *Entry) fixedpoint.Q16 {
	switch e.cfg.Metric {
	case MetricPhysical:
		dx := int64(other.Position.X) - int64(e.cfg.SelfPosition.X)
		dy := int64(other.Position.Y) - int64(e.cfg.SelfPosition.Y)
		dz := int64(other.Position.Z) - int64(e.cfg.SelfPosition.Z)
		sq := dx*dx + dy*dy + dz*dz
		return fixedpoint.FromFloat(float64(sq))
	case MetricLatency:
		if e.cfg.Latency != nil {
			if d, ok := e.cfg.Latency(other.ID); ok {
				return d
			}
		}
		return fixedpoint.FromFloat(1e9) // unknown RTT sorts last
	case MetricCustom:
		if e.cfg.Custom != nil {
			return e.cfg.Custom(e.cfg.Self, other.ID)
		}
		return fixedpoint.FromFloat(1e9)
	default: // MetricLogical
		a, b := int32(e.cfg.Self), int32(other.ID)
		d := a - b
		if d < 0 {
			d = -d
		}
		return fixedpoint.FromFloat(float64(d))
	}
}

// Reelect sorts all known, non-dead, non-self modules by distance
// ascending (module-id ascending as the tie-break) and takes the
// first K as the new k-set (spec §4.4's reelection algorithm).
func (e *Engine) Reelect(nowUS uint64) {
	candidates := make([]*Entry, 0, len(e.log))
	for id, entry := range e.log {
		if id == e.cfg.Self && !e.cfg.AllowSelfVote {
			continue
		}
		if entry.Health == HealthDead {
			continue
		}
		candidates = append(candidates, entry)
	}

	type scored struct {
		entry *Entry
		dist  fixedpoint.Q16
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{entry: c, dist: e.distance(c)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].entry.ID < ranked[j].entry.ID
	})

	old := e.kset
	n := len(ranked)
	if n > e.cfg.K {
		n = e.cfg.K
	}
	newSet := make([]wire.ModuleID, n)
	for i := 0; i < n; i++ {
		newSet[i] = ranked[i].entry.ID
	}
	e.kset = newSet
	if nowUS > 0 {
		e.lastReelectionUS = nowUS
	}

	e.zlog.Debug("reelection complete", zap.Int("old_size", len(old)), zap.Int("new_size", len(newSet)))

	if e.cb.OnTopologyChanged != nil {
		e.cb.OnTopologyChanged(old, newSet)
	}
}

// DiscoveryDue reports whether a discovery broadcast is due and, if
// so, marks it sent. Callers invoke this once per tick.
func (e *Engine) DiscoveryDue(nowUS uint64) bool {
	if nowUS-e.lastDiscoveryUS < e.cfg.DiscoveryPeriodUS {
		return false
	}
	e.lastDiscoveryUS = nowUS
	return true
}

// BuildDiscovery constructs the outbound Discovery message (spec §4.4
// "discovery broadcast").
func (e *Engine) BuildDiscovery(state uint8, seq uint16) wire.Discovery {
	return wire.Discovery{
		Sender:        e.cfg.Self,
		PosX:          e.cfg.SelfPosition.X,
		PosY:          e.cfg.SelfPosition.Y,
		PosZ:          e.cfg.SelfPosition.Z,
		NeighborCount: uint8(len(e.kset)),
		State:         state,
		Seq:           seq,
	}
}

// Lookup returns the discovery-log entry for id, if known.
func (e *Engine) Lookup(id wire.ModuleID) (Entry, bool) {
	e2, ok := e.log[id]
	if !ok {
		return Entry{}, false
	}
	return *e2, true
}
