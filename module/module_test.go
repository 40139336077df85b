package module

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/fixedpoint"
	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

// bus is a shared in-memory transport connecting a set of testHAL
// instances, standing in for the real HAL contract in tests.
type bus struct {
	region *field.Region
	peers  map[wire.ModuleID]*testHAL
}

func newBus() *bus {
	return &bus{region: field.NewRegion(), peers: make(map[wire.ModuleID]*testHAL)}
}

type queued struct {
	sender wire.ModuleID
	typ    wire.Type
	payload []byte
}

type testHAL struct {
	id    wire.ModuleID
	now   uint64
	bus   *bus
	inbox []queued
}

func (h *testHAL) NowUS() uint64 { return h.now }

func (h *testHAL) Send(dest wire.ModuleID, typ wire.Type, payload []byte) error {
	cp := append([]byte(nil), payload...)
	if dest == wire.BroadcastModule {
		for id, peer := range h.bus.peers {
			if id == h.id {
				continue
			}
			peer.inbox = append(peer.inbox, queued{h.id, typ, cp})
		}
		return nil
	}
	if peer, ok := h.bus.peers[dest]; ok {
		peer.inbox = append(peer.inbox, queued{h.id, typ, cp})
	}
	return nil
}

func (h *testHAL) Recv() (wire.ModuleID, wire.Type, []byte, bool) {
	if len(h.inbox) == 0 {
		return 0, 0, nil, false
	}
	m := h.inbox[0]
	h.inbox = h.inbox[1:]
	return m.sender, m.typ, m.payload, true
}

func (h *testHAL) Barrier()              {}
func (h *testHAL) Region() *field.Region { return h.bus.region }
func (h *testHAL) Platform() string      { return "test" }
func (h *testHAL) SelfID() wire.ModuleID { return h.id }

func testConfig(self wire.ModuleID) Config {
	return Config{
		Self:              self,
		MinNeighbors:      1,
		K:                 7,
		ReelectionDelayUS: 0,
		DiscoveryPeriodUS: 1000,
		HeartbeatPeriodUS: 1000,
		TimeoutCount:      5,
		SuspectThreshold:  2,
		DecayModel:        fixedpoint.Exponential,
		TauSeconds:        fixedpoint.FromFloat(1.0),
		FieldMin:          fixedpoint.FromFloat(-100),
		FieldMax:          fixedpoint.FromFloat(100),
		FieldDefault:      0,
		MaxBallots:        4,
		VoteTimeoutUS:     5000,
		InhibitDurationUS: 5000,
		TaskBudgetUS:      100,
	}
}

func newTestModule(b *bus, id wire.ModuleID, cfg Config, cb Callbacks) *Module {
	h := &testHAL{id: id, bus: b}
	b.peers[id] = h
	return New(cfg, h, cb, Deps{})
}

func tickAll(mods []*Module, bs []*testHAL, nowUS uint64) {
	for i, m := range mods {
		bs[i].now = nowUS
		_ = m.Tick(nowUS)
	}
}

func TestNewModuleStartsInInit(t *testing.T) {
	b := newBus()
	m := newTestModule(b, 1, testConfig(1), Callbacks{})
	require.Equal(t, StateInit, m.State())
}

func TestFirstTickMovesToDiscovering(t *testing.T) {
	b := newBus()
	m := newTestModule(b, 1, testConfig(1), Callbacks{})
	require.NoError(t, m.Tick(1))
	require.Equal(t, StateDiscovering, m.State())
}

func TestTwoModulesFormKSetAndGoActive(t *testing.T) {
	b := newBus()
	cfg1, cfg2 := testConfig(1), testConfig(2)

	var states1 []State
	m1 := newTestModule(b, 1, cfg1, Callbacks{OnStateChange: func(_, n State) { states1 = append(states1, n) }})
	m2 := newTestModule(b, 2, cfg2, Callbacks{})

	mods := []*Module{m1, m2}
	bs := []*testHAL{b.peers[1], b.peers[2]}

	now := uint64(0)
	for i := 0; i < 6; i++ {
		now += 1500
		tickAll(mods, bs, now)
	}

	require.Contains(t, m1.KSet(), wire.ModuleID(2))
	require.Contains(t, m2.KSet(), wire.ModuleID(1))
	require.Equal(t, StateActive, m1.State())
	require.Equal(t, StateActive, m2.State())
	require.Contains(t, states1, StateActive)
}

func TestClusterOfOneStaysIsolated(t *testing.T) {
	b := newBus()
	cfg := testConfig(1)
	cfg.MinNeighbors = 1
	m := newTestModule(b, 1, cfg, Callbacks{})

	now := uint64(0)
	for i := 0; i < 4; i++ {
		now += 1500
		require.NoError(t, m.Tick(now))
	}
	require.Equal(t, StateIsolated, m.State())
	require.Empty(t, m.KSet())
}

func TestStopAbandonsFurtherTicks(t *testing.T) {
	b := newBus()
	m := newTestModule(b, 1, testConfig(1), Callbacks{})
	require.NoError(t, m.Tick(1000))
	m.Stop()
	require.Equal(t, StateShutdown, m.State())

	before := m.State()
	require.NoError(t, m.Tick(2000))
	require.Equal(t, before, m.State())
}

func TestShutdownMessageStopsModule(t *testing.T) {
	b := newBus()
	m1 := newTestModule(b, 1, testConfig(1), Callbacks{})
	m2 := newTestModule(b, 2, testConfig(2), Callbacks{})

	sd := wire.Shutdown{Sender: 2}
	require.NoError(t, b.peers[2].Send(1, wire.TypeShutdown, sd.Encode()))
	require.NoError(t, m1.Tick(1000))
	require.Equal(t, StateShutdown, m1.State())
	_ = m2
}

func TestTaskSelectionPicksPositiveGradientTask(t *testing.T) {
	b := newBus()
	m1 := newTestModule(b, 1, testConfig(1), Callbacks{})
	m2 := newTestModule(b, 2, testConfig(2), Callbacks{})

	runCount := 0
	_, ok := m1.AddTask(Task{Run: func(budgetUS uint32) { runCount++ }})
	require.True(t, ok)

	mods := []*Module{m1, m2}
	bs := []*testHAL{b.peers[1], b.peers[2]}
	now := uint64(0)
	for i := 0; i < 4; i++ {
		now += 1500
		tickAll(mods, bs, now)
	}
	require.Contains(t, m1.KSet(), wire.ModuleID(2))

	// Module 2 publishes a much higher load; module 1's gradient
	// toward it should turn positive and select the pending task once
	// it resamples module 2's newly published field.
	m2.SetComponent(field.ComponentLoad, fixedpoint.FromFloat(10))
	now += 1500
	tickAll(mods, bs, now) // module 2 publishes the new load this round
	now += 1500
	tickAll(mods, bs, now) // module 1 resamples it this round

	require.Greater(t, m1.Gradient()[field.ComponentLoad], fixedpoint.Q16(0))
	require.Greater(t, runCount, 0)
}

func TestDeadNeighborTriggersReelection(t *testing.T) {
	b := newBus()
	cfg := testConfig(1)
	cfg.MinNeighbors = 1
	cfg.K = 2
	cfg.SuspectThreshold = 2
	cfg.TimeoutCount = 3

	var mods []*Module
	var bs []*testHAL
	for id := wire.ModuleID(1); id <= 5; id++ {
		c := cfg
		c.Self = id
		m := newTestModule(b, id, c, Callbacks{})
		mods = append(mods, m)
		bs = append(bs, b.peers[id])
	}

	now := uint64(0)
	for i := 0; i < 10; i++ {
		now += 1500
		tickAll(mods, bs, now)
	}
	require.Equal(t, StateActive, mods[0].State())
	require.NotEmpty(t, mods[0].KSet())

	// Module 5 goes dark: every other module stops hearing its
	// heartbeats, so it should age out as dead and be dropped from
	// neighbours' k-sets, forcing a reelection around the gap.
	dead := wire.ModuleID(5)
	survivors := mods[:4]
	survivorHALs := bs[:4]
	for i := 0; i < 12; i++ {
		now += 1500
		tickAll(survivors, survivorHALs, now)
	}

	for _, m := range survivors {
		require.NotContains(t, m.KSet(), dead, "module %d should have dropped the dead neighbour", m.cfg.Self)
	}
}

func TestDegradedBelowMinNeighbors(t *testing.T) {
	b := newBus()
	cfg := testConfig(1)
	cfg.MinNeighbors = 2
	m1 := newTestModule(b, 1, cfg, Callbacks{})
	m2 := newTestModule(b, 2, testConfig(2), Callbacks{})

	mods := []*Module{m1, m2}
	bs := []*testHAL{b.peers[1], b.peers[2]}
	now := uint64(0)
	for i := 0; i < 6; i++ {
		now += 1500
		tickAll(mods, bs, now)
	}
	require.Equal(t, StateDegraded, m1.State())
	require.Equal(t, topology.StateDEGRADED, m1.topo.State())
}
