// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package module integrates the field, topology, heartbeat, and
// ballot engines into the per-module tick loop of spec §4.7. A Module
// is the arena spec §9 calls for: it owns every engine directly and
// passes indices/ids between them, rather than the engines holding
// back-pointers to each other or to the module.
package module

import (
	"go.uber.org/zap"

	"github.com/luxfi/fieldmesh/ballot"
	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/heartbeat"
	"github.com/luxfi/fieldmesh/metrics"
	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

// Capability bits (spec §3: "thermal-ok, high-power, gateway, V2G,
// reserved bits, and application-defined bits").
const (
	CapThermalOK uint16 = 1 << iota
	CapHighPower
	CapGateway
	CapV2G
)

// Config aggregates every subsystem's tunables into the single object
// a Module is constructed from.
type Config struct {
	Self         wire.ModuleID
	Position     topology.Position
	Capabilities uint16

	// Topology
	K                 int
	MinNeighbors      int
	ReelectionDelayUS uint64
	DiscoveryPeriodUS uint64
	Metric            topology.Metric
	Custom            topology.CustomDistance
	AllowSelfVote     bool

	// Heartbeat
	HeartbeatPeriodUS uint64
	SuspectThreshold  uint32
	TimeoutCount      uint32
	TrackRTT          bool
	RTTAlpha          fixedpoint.Q16

	// Field
	DecayModel       fixedpoint.Model
	TauSeconds       fixedpoint.Q16
	FieldMin         fixedpoint.Q16
	FieldMax         fixedpoint.Q16
	FieldDefault     fixedpoint.Q16
	FieldMaxAgeUS    uint64

	// Consensus
	MaxBallots          int
	VoteTimeoutUS       uint64
	InhibitDurationUS   uint64
	RequireAllNeighbors bool

	// Tick loop
	TaskBudgetUS uint32
}

// Callbacks are the module's optional user-visible event hooks, one
// method per event rather than an interface hierarchy (spec §9).
type Callbacks struct {
	OnStateChange     func(old, new State)
	Decide            func(p wire.Proposal) wire.VoteKind
	OnBallotComplete  func(b ballot.Ballot)
	OnTopologyChanged func(old, new []wire.ModuleID)
	OnAlive           func(id wire.ModuleID)
	OnSuspect         func(id wire.ModuleID)
	OnDead            func(id wire.ModuleID)
	// OnApplication delivers opaque application messages (type code
	// >= 0x80), undispatched by the core (spec §6).
	OnApplication func(sender wire.ModuleID, typ wire.Type, payload []byte)
}

// Deps bundles a Module's optional ambient dependencies — logging,
// metrics, and message authentication — so New doesn't grow a
// positional parameter per concern. The zero value is a fully
// functional, silent, unauthenticated, unmetered module.
type Deps struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Auth    *wire.Authenticator
}

// Module is the per-node arena tying together the four coordination
// engines plus the local task table (spec §3's "Module" aggregate).
type Module struct {
	cfg Config
	cb  Callbacks
	hal HAL

	log     *zap.Logger
	metrics *metrics.Metrics
	auth    *wire.Authenticator

	fieldEngine *field.Engine
	topo        *topology.Engine
	hb          *heartbeat.Engine
	cons        *ballot.Engine

	tasks taskTable

	self       field.Field
	aggregate  [field.NumComponents]fixedpoint.Q16
	gradient   [field.NumComponents]fixedpoint.Q16

	state        State
	justReformed bool

	outSeq     uint16
	lastTickUS uint64
	hasTicked  bool
}

// New constructs a Module from cfg, wired to hal for time/transport
// and firing cb on lifecycle events. The arena pattern of spec §9:
// every engine is owned directly by Module and receives callbacks
// that reach back into Module's own state by value/id, never by
// following a back-pointer into another engine. deps supplies the
// module's optional logging, metrics, and authentication; the zero
// Deps value is a valid, silent, unmetered, unauthenticated module.
func New(cfg Config, hal HAL, cb Callbacks, deps Deps) *Module {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := &Module{cfg: cfg, cb: cb, hal: hal, state: StateInit, log: log, metrics: deps.Metrics, auth: deps.Auth}

	m.fieldEngine = field.NewEngine(hal.Region(), cfg.DecayModel, cfg.TauSeconds, cfg.FieldMin, cfg.FieldMax, log)
	m.self = field.Default(cfg.FieldDefault, cfg.Self)

	m.topo = topology.NewEngine(topology.Config{
		Self:              cfg.Self,
		SelfPosition:      cfg.Position,
		K:                 cfg.K,
		MinNeighbors:      cfg.MinNeighbors,
		ReelectionDelayUS: cfg.ReelectionDelayUS,
		DiscoveryPeriodUS: cfg.DiscoveryPeriodUS,
		Metric:            cfg.Metric,
		Custom:            cfg.Custom,
		AllowSelfVote:     cfg.AllowSelfVote,
		Latency: func(id wire.ModuleID) (fixedpoint.Q16, bool) {
			return m.hb.RTT(id)
		},
	}, topology.Callbacks{OnTopologyChanged: func(old, new []wire.ModuleID) {
		if cb.OnTopologyChanged != nil {
			cb.OnTopologyChanged(old, new)
		}
	}}, log)

	m.hb = heartbeat.NewEngine(heartbeat.Config{
		Self:             cfg.Self,
		PeriodUS:         cfg.HeartbeatPeriodUS,
		SuspectThreshold: cfg.SuspectThreshold,
		TimeoutCount:     cfg.TimeoutCount,
		TrackRTT:         cfg.TrackRTT,
		RTTAlpha:         cfg.RTTAlpha,
	}, heartbeat.Callbacks{
		OnAlive:   cb.OnAlive,
		OnSuspect: cb.OnSuspect,
		OnDead:    cb.OnDead,
	}, m.topo, log)

	m.cons = ballot.NewEngine(ballot.Config{
		Self:                cfg.Self,
		MaxBallots:          cfg.MaxBallots,
		VoteTimeoutUS:       cfg.VoteTimeoutUS,
		InhibitDurationUS:   cfg.InhibitDurationUS,
		AllowSelfVote:       cfg.AllowSelfVote,
		RequireAllNeighbors: cfg.RequireAllNeighbors,
		NeighborCount:       func() int { return len(m.topo.KSet()) },
	}, ballot.Callbacks{
		Decide: cb.Decide,
		OnComplete: func(b ballot.Ballot) {
			if m.metrics != nil {
				switch b.Result {
				case ballot.ResultApproved:
					m.metrics.BallotsApproved.Inc()
				case ballot.ResultRejected, ballot.ResultTimeout:
					m.metrics.BallotsRejected.Inc()
				case ballot.ResultCancelled:
					m.metrics.BallotsInhibited.Inc()
				}
			}
			if cb.OnBallotComplete != nil {
				cb.OnBallotComplete(b)
			}
		},
	}, log)

	return m
}

// send seals payload (if typ requires authentication and an
// Authenticator is attached) and hands it to the HAL, counting a
// failed delivery as a dropped message (spec §7).
func (m *Module) send(dest wire.ModuleID, typ wire.Type, payload []byte) {
	sealed := m.auth.Seal(m.cfg.Self, typ, payload)
	if err := m.hal.Send(dest, typ, sealed); err != nil {
		if m.metrics != nil {
			m.metrics.MessagesDropped.Inc()
		}
		m.log.Debug("send failed", zap.Uint8("dest", uint8(dest)), zap.Uint8("type", uint8(typ)), zap.Error(err))
	}
}

// dropDecode counts and logs an inbound message that failed to decode
// (spec §7's "an observable counter" for dropped messages).
func (m *Module) dropDecode(typ wire.Type, err error) {
	if m.metrics != nil {
		m.metrics.MessagesDropped.Inc()
	}
	m.log.Debug("dropped undecodable message", zap.Uint8("type", uint8(typ)), zap.Error(err))
}

// AddTask registers t in the local task table, returning its index or
// false if the table (capacity MaxTasks) is full.
func (m *Module) AddTask(t Task) (int, bool) {
	return m.tasks.Add(t)
}

// SetComponent updates a live sensor-derived component of the
// module's own field (load, thermal, power, or an application-defined
// slot); the slack component is owned by the tick loop itself (spec
// §4.7 step 6) and should not be set directly.
func (m *Module) SetComponent(idx int, v fixedpoint.Q16) {
	m.self.Components[idx] = v
}

// State returns the module's current operational phase.
func (m *Module) State() State { return m.state }

// KSet returns the current k-neighbour set.
func (m *Module) KSet() []wire.ModuleID { return m.topo.KSet() }

// Gradient returns the most recently computed gradient vector.
func (m *Module) Gradient() [field.NumComponents]fixedpoint.Q16 { return m.gradient }

// ActiveBallots returns the number of ballots currently open.
func (m *Module) ActiveBallots() int { return m.cons.Active() }

// Propose starts a new ballot and broadcasts the proposal (spec §4.6
// "propose"), tolerating a broadcast send failure per spec §7.
func (m *Module) Propose(proposalType uint8, data uint32, threshold fixedpoint.Q16, nowUS uint64) (wire.Proposal, error) {
	p, err := m.cons.Propose(proposalType, data, threshold, nowUS)
	if err != nil {
		return wire.Proposal{}, err
	}
	m.send(wire.BroadcastModule, wire.TypeProposal, p.Encode())
	return p, nil
}

// Inhibit records and broadcasts an inhibition against (proposer,
// ballotID).
func (m *Module) Inhibit(proposer wire.ModuleID, ballotID uint16, nowUS uint64) {
	i := m.cons.Inhibit(proposer, ballotID, nowUS)
	m.send(wire.BroadcastModule, wire.TypeInhibit, i.Encode())
}

// Stop transitions the module to SHUTDOWN; subsequent Tick calls
// return immediately without processing further (spec §5: "the tick
// loop abandons a tick cleanly if asked to stop via the module-stop
// transition").
func (m *Module) Stop() {
	m.setState(StateShutdown)
}

// Tick runs one iteration of the ten-step loop of spec §4.7.
func (m *Module) Tick(nowUS uint64) error {
	if m.state == StateShutdown {
		return nil
	}

	// Step 1: drain inbound messages, dispatching each by type.
	for {
		sender, typ, payload, ok := m.hal.Recv()
		if !ok {
			break
		}
		m.dispatch(sender, typ, payload, nowUS)
		if m.state == StateShutdown {
			return nil
		}
	}

	// Step 2: topology tick.
	if m.topo.DiscoveryDue(nowUS) {
		d := m.topo.BuildDiscovery(uint8(m.state), m.nextDiscoverySeq())
		m.send(wire.BroadcastModule, wire.TypeDiscovery, d.Encode())
	}

	// Step 3: heartbeat tick.
	m.hb.Tick(nowUS)
	if hbMsg, due := m.hb.OutboundDue(nowUS, uint8(m.state), uint8(len(m.topo.KSet())), m.loadPct(), m.thermalPct()); due {
		m.send(wire.BroadcastModule, wire.TypeHeartbeat, hbMsg.Encode())
	}

	// Step 4: consensus tick.
	m.cons.Tick(nowUS)
	if m.metrics != nil {
		m.metrics.KSetSize.Set(float64(len(m.topo.KSet())))
		m.metrics.ActiveBallots.Set(float64(m.cons.Active()))
	}

	// Field-region garbage collection runs alongside the consensus
	// tick: both are periodic maintenance passes (spec §4.2's
	// "periodically" GC pass). The region is shared, so every module
	// with FieldMaxAgeUS set sweeps all of its slots.
	if m.cfg.FieldMaxAgeUS > 0 {
		m.hal.Region().GC(nowUS, m.cfg.FieldMaxAgeUS)
	}

	// Step 5: re-sample neighbours, aggregate, compute gradient.
	m.resample(nowUS)

	// Step 6: slack for deadline-carrying tasks.
	m.updateSlack(nowUS)

	// Step 7 & 8: select and execute a local task.
	idx := m.tasks.Select(m.cfg.Capabilities, func(i int) int32 {
		return int32(m.gradient[field.ComponentLoad])
	})
	if idx >= 0 {
		m.tasks.Run(idx, m.cfg.TaskBudgetUS, nowUS)
	}

	// Step 9: publish own field.
	var elapsedUS uint32
	if m.hasTicked && nowUS > m.lastTickUS {
		d := nowUS - m.lastTickUS
		if d > uint64(^uint32(0)) {
			elapsedUS = ^uint32(0)
		} else {
			elapsedUS = uint32(d)
		}
	}
	m.fieldEngine.DecaySelf(&m.self, elapsedUS)
	m.self.TimestampUS = nowUS
	m.self.Sequence++
	m.hal.Barrier()
	m.hal.Region().Publish(m.self)

	m.lastTickUS = nowUS
	m.hasTicked = true

	// Step 10: evaluate module-state transitions.
	m.evaluateState()

	return nil
}

func (m *Module) dispatch(sender wire.ModuleID, typ wire.Type, payload []byte, nowUS uint64) {
	body, ok := m.auth.Open(sender, typ, payload)
	if !ok {
		if m.metrics != nil {
			m.metrics.AuthFailures.Inc()
		}
		m.log.Warn("dropped message failing authentication", zap.Uint8("sender", uint8(sender)), zap.Uint8("type", uint8(typ)))
		return
	}
	payload = body

	switch {
	case typ == wire.TypeHeartbeat:
		h, err := wire.DecodeHeartbeat(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		m.hb.OnHeartbeat(h, nowUS)
	case typ == wire.TypeDiscovery:
		d, err := wire.DecodeDiscovery(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		m.topo.OnDiscovery(d, nowUS)
	case typ == wire.TypeField:
		f, err := field.DecodeWire(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		m.hal.Region().Publish(f)
	case typ == wire.TypeProposal:
		p, err := wire.DecodeProposal(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		vote, err := m.cons.OnProposal(p, nowUS)
		if err != nil || vote == nil {
			return
		}
		m.send(p.Proposer, wire.TypeVote, vote.Encode())
	case typ == wire.TypeVote:
		v, err := wire.DecodeVote(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		// Votes are unicast to the proposer; a module only ever
		// receives a Vote message for a ballot it proposed itself.
		m.cons.OnVote(m.cfg.Self, v, nowUS)
	case typ == wire.TypeInhibit:
		i, err := wire.DecodeInhibit(payload)
		if err != nil {
			m.dropDecode(typ, err)
			return
		}
		m.cons.OnInhibit(i, nowUS)
	case typ == wire.TypeReform:
		m.justReformed = true
		m.topo.Reelect(nowUS)
	case typ == wire.TypeShutdown:
		m.Stop()
	case typ.IsApplication():
		if m.cb.OnApplication != nil {
			m.cb.OnApplication(sender, typ, payload)
		}
	}
}

func (m *Module) nextDiscoverySeq() uint16 {
	seq := m.outSeq
	m.outSeq++
	return seq
}

func (m *Module) loadPct() uint8  { return pctOf(m.self.Components[field.ComponentLoad]) }
func (m *Module) thermalPct() uint8 { return pctOf(m.self.Components[field.ComponentThermal]) }

// pctOf maps a Q16.16 value in [0,1] to an integer percentage 0-100,
// clamping out-of-range inputs rather than wrapping (spec §4.5's
// load_pct/thermal_pct wire fields are plain 0-100 bytes).
func pctOf(q fixedpoint.Q16) uint8 {
	f := q.ToFloat() * 100
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return uint8(f)
}

func (m *Module) resample(nowUS uint64) {
	kset := m.topo.KSet()
	weights := make([]field.NeighborWeight, 0, len(kset))
	for _, id := range kset {
		health := m.hb.Health(id)
		var hw fixedpoint.Q16
		switch health {
		case heartbeat.HealthAlive:
			hw = fixedpoint.One
		case heartbeat.HealthSuspect:
			hw = fixedpoint.FromFloat(0.5)
		default:
			hw = 0
		}
		if hw <= 0 {
			continue
		}
		weights = append(weights, field.NeighborWeight{
			ID:             id,
			HealthWeight:   hw,
			DistanceWeight: m.distanceWeight(id),
		})
	}
	sum, total := m.fieldEngine.SampleNeighbours(nowUS, weights)
	m.aggregate = field.Aggregate(sum, total, m.cfg.FieldDefault)
	m.gradient = field.Gradient(m.aggregate, m.self.Components)

	if m.metrics != nil {
		var oldestUS uint64
		for _, id := range kset {
			f, ok := m.hal.Region().Sample(id)
			if !ok || f.TimestampUS > nowUS {
				continue
			}
			if age := nowUS - f.TimestampUS; age > oldestUS {
				oldestUS = age
			}
		}
		m.metrics.OldestFieldAgeUS.Set(float64(oldestUS))
	}
}

// distanceWeight computes 1/(1+rank) in Q16.16 for id, where rank is
// id's position in the distance-ordered k-set (spec §4.3's distance
// weight); ids outside the k-set get 1.0.
func (m *Module) distanceWeight(id wire.ModuleID) fixedpoint.Q16 {
	// The topology engine's distance() is unexported; module derives
	// an equivalent ordering-preserving weight from rank among the
	// k-set instead of re-deriving the metric, which is sufficient
	// since the distance weight here only scales an already-ranked
	// neighbour's contribution rather than re-ordering anything.
	kset := m.topo.KSet()
	for rank, n := range kset {
		if n == id {
			return fixedpoint.One.Div(fixedpoint.FromFloat(float64(1 + rank)))
		}
	}
	return fixedpoint.One
}

func (m *Module) updateSlack(nowUS uint64) {
	slackUS, ok := m.tasks.MinSlackUS(nowUS)
	if !ok {
		m.self.Components[field.ComponentSlack] = m.cfg.FieldMax
		return
	}
	slackSeconds := fixedpoint.FromFloat(float64(slackUS) / 1e6)
	m.self.Components[field.ComponentSlack] = fixedpoint.Clamp(slackSeconds, m.cfg.FieldMin, m.cfg.FieldMax)
}

func (m *Module) evaluateState() {
	if m.state == StateShutdown {
		return
	}
	if m.justReformed {
		m.setState(StateReforming)
		m.justReformed = false
		return
	}
	if m.state == StateInit {
		m.setState(StateDiscovering)
		return
	}
	switch m.topo.State() {
	case topology.StateISOLATED:
		m.setState(StateIsolated)
	case topology.StateDEGRADED:
		m.setState(StateDegraded)
	case topology.StateACTIVE:
		m.setState(StateActive)
	}
}

func (m *Module) setState(next State) {
	if m.state == next {
		return
	}
	old := m.state
	m.state = next
	m.log.Info("module state transition", zap.Uint8("module", uint8(m.cfg.Self)), zap.Int("old", int(old)), zap.Int("new", int(next)))
	if m.cb.OnStateChange != nil {
		m.cb.OnStateChange(old, next)
	}
}

// Fail transitions the module to SHUTDOWN on a broken invariant (spec
// §7: "assertion failures... are fatal for the module and transition
// it to SHUTDOWN; they never crash peers"), returning the HALFailure
// error kind to the caller.
func (m *Module) Fail(op string) error {
	m.log.Error("assertion failure, shutting down", zap.String("op", op))
	m.setState(StateShutdown)
	return errs.New(errs.HALFailure, op)
}
