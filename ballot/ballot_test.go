package ballot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/wire"
)

func TestProposeAllocatesMonotonicBallotID(t *testing.T) {
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 1000}, Callbacks{}, nil)
	p1, err := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.NoError(t, err)
	p2, err := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.NoError(t, err)
	require.Equal(t, uint16(0), p1.Ballot)
	require.Equal(t, uint16(1), p2.Ballot)
}

func TestProposeBusyWhenFull(t *testing.T) {
	e := NewEngine(Config{Self: 1, MaxBallots: 1, VoteTimeoutUS: 1000}, Callbacks{}, nil)
	_, err := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.NoError(t, err)
	_, err = e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.Error(t, err)
}

func TestSupermajorityApprovalAgainstFullNeighborhood(t *testing.T) {
	// Seven-module cluster: the proposer plus six neighbours. The
	// threshold ratio is scored against the full neighbourhood (6),
	// so the ballot resolves as soon as enough yes votes clear it,
	// even if not every neighbour has voted yet — later votes on an
	// already-completed ballot are dropped (spec §4.6 "if the ballot
	// is completed, drop").
	var completed Ballot
	e := NewEngine(Config{
		Self: 1, VoteTimeoutUS: 1000, AllowSelfVote: true,
		NeighborCount: func() int { return 6 },
	}, Callbacks{
		OnComplete: func(b Ballot) { completed = b },
	}, nil)
	threshold := fixedpoint.FromFloat(0.67)
	p, err := e.Propose(5, 0, threshold, 0)
	require.NoError(t, err)

	e.OnVote(1, wire.Vote{Voter: 2, Ballot: p.Ballot, Vote: wire.VoteNo}, 0)
	for _, voter := range []wire.ModuleID{3, 4, 5, 6} {
		e.OnVote(1, wire.Vote{Voter: voter, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	}

	require.Equal(t, ResultApproved, completed.Result)
	require.Equal(t, 5, completed.YesCount)
	require.Equal(t, 1, completed.NoCount)

	// The seventh (would-be) voter arrives after completion and is
	// silently dropped.
	e.OnVote(1, wire.Vote{Voter: 7, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	b, ok := e.Get(1, p.Ballot)
	require.True(t, ok)
	require.Equal(t, 5, b.YesCount)
}

func TestInhibitCancelsBallot(t *testing.T) {
	var completed Ballot
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 1000, InhibitDurationUS: 5000}, Callbacks{
		OnComplete: func(b Ballot) { completed = b },
	}, nil)
	p, err := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.NoError(t, err)

	e.OnVote(1, wire.Vote{Voter: 2, Ballot: p.Ballot, Vote: wire.VoteInhibit}, 0)
	require.Equal(t, ResultCancelled, completed.Result)
}

func TestInhibitBlocksLaterProposal(t *testing.T) {
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 1000, InhibitDurationUS: 5000}, Callbacks{}, nil)
	e.Inhibit(9, 3, 0)

	vote, err := e.OnProposal(wire.Proposal{Proposer: 9, Ballot: 3}, 100)
	require.NoError(t, err)
	require.Nil(t, vote)
}

func TestTickReapsTimeout(t *testing.T) {
	var completed Ballot
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 100}, Callbacks{
		OnComplete: func(b Ballot) { completed = b },
	}, nil)
	_, err := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)
	require.NoError(t, err)

	e.Tick(50)
	require.NotEqual(t, ResultTimeout, completed.Result)

	e.Tick(150)
	require.Equal(t, ResultTimeout, completed.Result)
	require.Equal(t, 0, e.Active())
}

func TestRejectionPath(t *testing.T) {
	var completed Ballot
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 1000}, Callbacks{
		OnComplete: func(b Ballot) { completed = b },
	}, nil)
	threshold := fixedpoint.FromFloat(0.67)
	p, _ := e.Propose(0, 0, threshold, 0)

	for _, voter := range []wire.ModuleID{2, 3, 4} {
		e.OnVote(1, wire.Vote{Voter: voter, Ballot: p.Ballot, Vote: wire.VoteNo}, 0)
	}
	require.Equal(t, ResultRejected, completed.Result)
}

func TestDuplicateVoteIgnored(t *testing.T) {
	e := NewEngine(Config{Self: 1, VoteTimeoutUS: 1000}, Callbacks{}, nil)
	p, _ := e.Propose(0, 0, fixedpoint.FromFloat(0.9), 0)
	e.OnVote(1, wire.Vote{Voter: 2, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	e.OnVote(1, wire.Vote{Voter: 2, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)

	b, ok := e.Get(1, p.Ballot)
	require.True(t, ok)
	require.Equal(t, 1, b.YesCount)
}

func TestRequireAllNeighborsDefersCompletion(t *testing.T) {
	var completed Ballot
	e := NewEngine(Config{
		Self: 1, VoteTimeoutUS: 1000, RequireAllNeighbors: true,
		NeighborCount: func() int { return 3 },
	}, Callbacks{OnComplete: func(b Ballot) { completed = b }}, nil)
	p, _ := e.Propose(0, 0, fixedpoint.FromFloat(0.5), 0)

	e.OnVote(1, wire.Vote{Voter: 2, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	require.Equal(t, ResultPending, completed.Result)

	e.OnVote(1, wire.Vote{Voter: 3, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	e.OnVote(1, wire.Vote{Voter: 4, Ballot: p.Ballot, Vote: wire.VoteYes}, 0)
	require.Equal(t, ResultApproved, completed.Result)
}
