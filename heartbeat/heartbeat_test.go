package heartbeat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/wire"
)

func TestOutboundDueGatesOnPeriod(t *testing.T) {
	e := NewEngine(Config{Self: 1, PeriodUS: 1000}, Callbacks{}, nil, nil)
	_, ok := e.OutboundDue(0, 0, 0, 0, 0)
	require.True(t, ok)
	_, ok = e.OutboundDue(500, 0, 0, 0, 0)
	require.False(t, ok)
	_, ok = e.OutboundDue(1000, 0, 0, 0, 0)
	require.True(t, ok)
}

func TestOutboundSeqWrapsModulo256(t *testing.T) {
	e := NewEngine(Config{Self: 1, PeriodUS: 1}, Callbacks{}, nil, nil)
	var last wire.Heartbeat
	for i := 0; i < 257; i++ {
		hb, ok := e.OutboundDue(uint64(i), 0, 0, 0, 0)
		require.True(t, ok)
		last = hb
	}
	require.Equal(t, uint8(0), last.Seq)
}

func TestInboundMarksAliveAndResetsMissed(t *testing.T) {
	e := NewEngine(Config{Self: 1, PeriodUS: 100}, Callbacks{}, nil, nil)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 0)
	require.Equal(t, HealthAlive, e.Health(2))
}

func TestAliveCallbackFiresOnce(t *testing.T) {
	count := 0
	e := NewEngine(Config{Self: 1, PeriodUS: 100}, Callbacks{
		OnAlive: func(id wire.ModuleID) { count++ },
	}, nil, nil)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 0)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 50)
	require.Equal(t, 1, count)
}

func TestSuspectThenDeadTransitions(t *testing.T) {
	var suspected, dead bool
	e := NewEngine(Config{Self: 1, PeriodUS: 100, SuspectThreshold: 2, TimeoutCount: 5}, Callbacks{
		OnSuspect: func(id wire.ModuleID) { suspected = true },
		OnDead:    func(id wire.ModuleID) { dead = true },
	}, nil, nil)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 0)

	now := uint64(0)
	for i := 0; i < 5; i++ {
		now += 100
		e.Tick(now)
	}
	require.True(t, suspected)
	require.Equal(t, HealthDead, e.Health(2))
	require.True(t, dead)
}

func TestDeadTransitionFiresExactlyOnce(t *testing.T) {
	deadCount := 0
	e := NewEngine(Config{Self: 1, PeriodUS: 10, SuspectThreshold: 1, TimeoutCount: 2}, Callbacks{
		OnDead: func(id wire.ModuleID) { deadCount++ },
	}, nil, nil)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 0)

	now := uint64(0)
	for i := 0; i < 5; i++ {
		now += 10
		e.Tick(now)
	}
	require.Equal(t, 1, deadCount)
}

func TestRTTTrackingEWMA(t *testing.T) {
	e := NewEngine(Config{Self: 1, PeriodUS: 100, TrackRTT: true}, Callbacks{}, nil, nil)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 0)
	e.OnHeartbeat(wire.Heartbeat{Sender: 2}, 100)
	rtt, ok := e.RTT(2)
	require.True(t, ok)
	require.InDelta(t, 100.0, rtt.ToFloat(), 1.0)
}

func TestUnknownHealthForUntrackedNeighbor(t *testing.T) {
	e := NewEngine(Config{Self: 1, PeriodUS: 100}, Callbacks{}, nil, nil)
	require.Equal(t, HealthUnknown, e.Health(9))
}
