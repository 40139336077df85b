// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ballot implements threshold consensus with mutual
// inhibition (spec §4.6): modules propose cluster-wide decisions,
// collect neighbour votes, and reach APPROVED/REJECTED/CANCELLED/
// TIMEOUT outcomes without a coordinator. Modeled on a bag-of-votes
// poll generalized to proposer+ballot-id keyed ballots with an
// explicit inhibit channel for mutual exclusion between competing
// proposals.
package ballot

import (
	"go.uber.org/zap"

	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/wire"
)

// Result is a ballot's terminal outcome.
type Result uint8

const (
	ResultPending Result = iota
	ResultApproved
	ResultRejected
	ResultCancelled
	ResultTimeout
)

// DefaultMaxBallots is the concurrent-ballot ceiling of spec §5
// (default 4).
const DefaultMaxBallots = 4

// key identifies a ballot by (proposer id, ballot id), resolving
// cross-proposer collisions on the 16-bit ballot counter (spec §3).
type key struct {
	Proposer wire.ModuleID
	Ballot   uint16
}

// Ballot is one proposal's full vote-tracking state (spec §3).
type Ballot struct {
	Proposer     wire.ModuleID
	BallotID     uint16
	ProposalType uint8
	Data         uint32
	Threshold    fixedpoint.Q16
	DeadlineUS   uint64

	votes map[wire.ModuleID]wire.VoteKind

	YesCount     int
	NoCount      int
	AbstainCount int
	InhibitCount int

	Result    Result
	Completed bool
}

func (b *Ballot) voteCount() int {
	return b.YesCount + b.NoCount + b.AbstainCount + b.InhibitCount
}

// Callbacks are the optional ballot lifecycle hooks of spec §4.6/§8.
type Callbacks struct {
	// Decide is invoked on an inbound proposal to choose this
	// module's vote; when Decide is nil the engine votes YES.
	Decide func(p wire.Proposal) wire.VoteKind
	// OnComplete fires exactly once per completed ballot.
	OnComplete func(b Ballot)
}

// Config is the consensus engine's tunable parameters.
type Config struct {
	Self                wire.ModuleID
	MaxBallots          int
	VoteTimeoutUS       uint64
	InhibitDurationUS   uint64
	AllowSelfVote       bool
	RequireAllNeighbors bool
	NeighborCount       func() int // supplies the live neighbour count for require_all_neighbors
}

// inhibitEntry records a locally-known inhibition with expiry.
type inhibitEntry struct {
	expiresUS uint64
}

// Engine is the per-module consensus engine of spec §4.6.
type Engine struct {
	cfg Config
	cb  Callbacks

	ballots      map[key]*Ballot
	inhibited    map[key]inhibitEntry
	nextBallotID uint16

	log *zap.Logger
}

// NewEngine returns a consensus engine for cfg. A nil log defaults to
// zap.NewNop().
func NewEngine(cfg Config, cb Callbacks, log *zap.Logger) *Engine {
	if cfg.MaxBallots <= 0 {
		cfg.MaxBallots = DefaultMaxBallots
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		cb:        cb,
		ballots:   make(map[key]*Ballot),
		inhibited: make(map[key]inhibitEntry),
		log:       log,
	}
}

// Propose allocates a ballot keyed by (self, next ballot id), and
// returns the proposal message to broadcast (spec §4.6 "propose").
func (e *Engine) Propose(proposalType uint8, data uint32, threshold fixedpoint.Q16, nowUS uint64) (wire.Proposal, error) {
	if len(e.ballots) >= e.cfg.MaxBallots {
		return wire.Proposal{}, errs.New(errs.Busy, "ballot.Propose")
	}
	id := e.nextBallotID
	e.nextBallotID++

	k := key{Proposer: e.cfg.Self, Ballot: id}
	b := &Ballot{
		Proposer:     e.cfg.Self,
		BallotID:     id,
		ProposalType: proposalType,
		Data:         data,
		Threshold:    threshold,
		DeadlineUS:   nowUS + e.cfg.VoteTimeoutUS,
		votes:        make(map[wire.ModuleID]wire.VoteKind),
	}
	e.ballots[k] = b

	if e.cfg.AllowSelfVote {
		// Tally only: spec §4.6 re-evaluates outcome "on vote" (a
		// received neighbour vote), not on the proposer's own
		// self-vote at propose time, so a lone self-vote can't
		// short-circuit approval before any neighbour has weighed in.
		e.tallyVote(b, e.cfg.Self, wire.VoteYes)
	}

	return wire.Proposal{
		Proposer:     e.cfg.Self,
		Ballot:       id,
		ProposalType: proposalType,
		Data:         data,
		Threshold:    uint32(threshold),
	}, nil
}

// OnProposal handles an inbound Proposal: drops it if the ballot id is
// still inhibited, otherwise inserts it and casts this module's vote
// (spec §4.6 "on proposal"). vote is nil for a dropped proposal.
func (e *Engine) OnProposal(p wire.Proposal, nowUS uint64) (*wire.Vote, error) {
	k := key{Proposer: p.Proposer, Ballot: p.Ballot}
	if inh, ok := e.inhibited[k]; ok && inh.expiresUS > nowUS {
		return nil, nil
	}
	if len(e.ballots) >= e.cfg.MaxBallots {
		return nil, errs.New(errs.Busy, "ballot.OnProposal")
	}

	b := &Ballot{
		Proposer:     p.Proposer,
		BallotID:     p.Ballot,
		ProposalType: p.ProposalType,
		Data:         p.Data,
		Threshold:    fixedpoint.Q16(p.Threshold),
		DeadlineUS:   nowUS + e.cfg.VoteTimeoutUS,
		votes:        make(map[wire.ModuleID]wire.VoteKind),
	}
	e.ballots[k] = b

	kind := wire.VoteYes
	if e.cb.Decide != nil {
		kind = e.cb.Decide(p)
	}
	return &wire.Vote{Voter: e.cfg.Self, Ballot: p.Ballot, Vote: kind, Timestamp: uint32(nowUS)}, nil
}

// OnVote records a neighbour's vote against the ballot identified by
// (proposer, ballot id), re-evaluates the outcome, and fires
// OnComplete exactly once on the edge (spec §4.6 "on vote").
func (e *Engine) OnVote(proposer wire.ModuleID, v wire.Vote, nowUS uint64) {
	k := key{Proposer: proposer, Ballot: v.Ballot}
	b, ok := e.ballots[k]
	if !ok || b.Completed {
		return
	}
	e.recordVote(b, v.Voter, v.Vote, nowUS)
}

func (e *Engine) recordVote(b *Ballot, voter wire.ModuleID, kind wire.VoteKind, nowUS uint64) {
	if !e.tallyVote(b, voter, kind) {
		return
	}
	e.evaluate(b, nowUS)
}

// tallyVote records voter's vote if not already cast, reporting
// whether it was newly recorded.
func (e *Engine) tallyVote(b *Ballot, voter wire.ModuleID, kind wire.VoteKind) bool {
	if _, already := b.votes[voter]; already {
		return false
	}
	b.votes[voter] = kind
	switch kind {
	case wire.VoteYes:
		b.YesCount++
	case wire.VoteNo:
		b.NoCount++
	case wire.VoteAbstain:
		b.AbstainCount++
	case wire.VoteInhibit:
		b.InhibitCount++
	}
	return true
}

// evaluate applies spec §4.6's completion predicates in order; the
// first one true at this tick wins.
func (e *Engine) evaluate(b *Ballot, nowUS uint64) {
	if b.Completed {
		return
	}

	if b.InhibitCount >= 1 {
		e.complete(b, ResultCancelled)
		return
	}

	waitingForAll := e.cfg.RequireAllNeighbors && e.cfg.NeighborCount != nil &&
		b.voteCount() < e.cfg.NeighborCount() && nowUS < b.DeadlineUS
	if waitingForAll {
		return
	}

	// The threshold ratio is measured against the full expected
	// neighbourhood, not just the votes tallied so far: "votes[K]
	// per-neighbour" (spec §3) fixes the roster size up front, and
	// scoring against votes-received-so-far would let a single early
	// vote decide the ballot outright (1/1 always clears any
	// threshold below 1.0). Falls back to votes received when the
	// neighbourhood size isn't known to the caller.
	denom := b.voteCount()
	if e.cfg.NeighborCount != nil {
		if n := e.cfg.NeighborCount(); n > 0 {
			denom = n
		}
	}
	if denom < 1 {
		denom = 1
	}
	yesRatio := fixedpoint.FromFloat(float64(b.YesCount) / float64(denom))
	noRatio := fixedpoint.FromFloat(float64(b.NoCount) / float64(denom))

	switch {
	case yesRatio >= b.Threshold:
		e.complete(b, ResultApproved)
	case noRatio > fixedpoint.One.Sub(b.Threshold):
		e.complete(b, ResultRejected)
	}
}

func (e *Engine) complete(b *Ballot, result Result) {
	b.Result = result
	b.Completed = true
	e.log.Info("ballot complete",
		zap.Uint8("proposer", uint8(b.Proposer)),
		zap.Uint16("ballot", b.BallotID),
		zap.Uint8("result", uint8(result)),
	)
	if e.cb.OnComplete != nil {
		e.cb.OnComplete(*b)
	}
}

// Inhibit records an inhibition against (proposer, ballotID), cancels
// any local ballot copy, and returns the corresponding wire message
// (spec §4.6 "inhibit"). The caller is responsible for sending the
// returned message.
func (e *Engine) Inhibit(proposer wire.ModuleID, ballotID uint16, nowUS uint64) wire.Inhibit {
	k := key{Proposer: proposer, Ballot: ballotID}
	e.inhibited[k] = inhibitEntry{expiresUS: nowUS + e.cfg.InhibitDurationUS}
	if b, ok := e.ballots[k]; ok && !b.Completed {
		e.complete(b, ResultCancelled)
	}
	return wire.Inhibit{Sender: e.cfg.Self, Ballot: ballotID, Proposer: proposer}
}

// OnInhibit applies a received Inhibit message locally, mirroring
// Inhibit's bookkeeping without re-broadcasting.
func (e *Engine) OnInhibit(i wire.Inhibit, nowUS uint64) {
	k := key{Proposer: i.Proposer, Ballot: i.Ballot}
	e.inhibited[k] = inhibitEntry{expiresUS: nowUS + e.cfg.InhibitDurationUS}
	if b, ok := e.ballots[k]; ok && !b.Completed {
		e.complete(b, ResultCancelled)
	}
}

// Tick reaps ballots past their deadline with result TIMEOUT, and
// expires stale inhibit entries (spec §4.6 "tick").
func (e *Engine) Tick(nowUS uint64) {
	for k, b := range e.ballots {
		if !b.Completed && nowUS >= b.DeadlineUS {
			e.complete(b, ResultTimeout)
		}
		if b.Completed {
			delete(e.ballots, k)
		}
	}
	for k, inh := range e.inhibited {
		if nowUS >= inh.expiresUS {
			delete(e.inhibited, k)
		}
	}
}

// Get returns a copy of the tracked ballot for (proposer, ballotID),
// if any.
func (e *Engine) Get(proposer wire.ModuleID, ballotID uint16) (Ballot, bool) {
	b, ok := e.ballots[key{Proposer: proposer, Ballot: ballotID}]
	if !ok {
		return Ballot{}, false
	}
	return *b, true
}

// Active returns the number of ballots currently tracked.
func (e *Engine) Active() int {
	return len(e.ballots)
}
